package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dividas/backend/internal/domain/debt"
	"github.com/dividas/backend/internal/infrastructure/auth"
	"github.com/dividas/backend/internal/infrastructure/config"
	"github.com/dividas/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestJWTService() *auth.JWTService {
	return auth.NewJWTService(config.JWTConfig{
		Secret:                "test-secret-key-at-least-32-chars",
		AccessTokenExpiration: 15 * time.Minute,
		Issuer:                "dividas-test",
	})
}

func newTestToken(t *testing.T, svc *auth.JWTService, perms ...string) (string, uuid.UUID) {
	t.Helper()
	userID := uuid.New()
	token, _, err := svc.GenerateToken(auth.TokenInput{UserID: userID, Username: "ana", Permissions: perms})
	require.NoError(t, err)
	return token, userID
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) *dto.ErrorInfo {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	return resp.Error
}

func TestJWTAuthMiddleware(t *testing.T) {
	svc := newTestJWTService()

	newRouter := func() *gin.Engine {
		r := gin.New()
		r.Use(JWTAuthMiddleware(svc))
		r.GET("/test", func(c *gin.Context) {
			c.String(http.StatusOK, GetJWTUserID(c))
		})
		r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
		return r
	}

	t.Run("valid token", func(t *testing.T) {
		token, userID := newTestToken(t, svc)
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set(AuthHeaderKey, BearerPrefix+token)
		rec := httptest.NewRecorder()

		newRouter().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, userID.String(), rec.Body.String())
	})

	t.Run("missing header", func(t *testing.T) {
		rec := httptest.NewRecorder()
		newRouter().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/test", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, dto.ErrCodeTokenInvalid, decodeError(t, rec).Code)
	})

	t.Run("wrong scheme", func(t *testing.T) {
		token, _ := newTestToken(t, svc)
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set(AuthHeaderKey, "Basic "+token)
		rec := httptest.NewRecorder()
		newRouter().ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("token signed with another secret", func(t *testing.T) {
		other := auth.NewJWTService(config.JWTConfig{Secret: "another-secret-key-of-32-characters", AccessTokenExpiration: time.Minute, Issuer: "dividas-test"})
		token, _ := newTestToken(t, other)
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set(AuthHeaderKey, BearerPrefix+token)
		rec := httptest.NewRecorder()
		newRouter().ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("skipped path", func(t *testing.T) {
		rec := httptest.NewRecorder()
		newRouter().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestRequirePermission(t *testing.T) {
	svc := newTestJWTService()
	r := gin.New()
	r.Use(JWTAuthMiddleware(svc))
	r.POST("/companies", RequirePermission(auth.PermissionManageCompanies, nil), func(c *gin.Context) {
		c.Status(http.StatusCreated)
	})

	granted, _ := newTestToken(t, svc, auth.PermissionManageCompanies)
	denied, _ := newTestToken(t, svc)

	for name, tc := range map[string]struct {
		token string
		want  int
	}{
		"granted": {granted, http.StatusCreated},
		"denied":  {denied, http.StatusForbidden},
	} {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/companies", nil)
			req.Header.Set(AuthHeaderKey, BearerPrefix+tc.token)
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)
			assert.Equal(t, tc.want, rec.Code)
		})
	}
}

type stubResolver struct {
	actor debt.Actor
	err   error
}

func (s stubResolver) ResolveActor(_ context.Context, userID uuid.UUID) (debt.Actor, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.actor != nil {
		return s.actor, nil
	}
	return debt.ExternalActor{User: userID}, nil
}

func TestResolveActor(t *testing.T) {
	svc := newTestJWTService()
	token, userID := newTestToken(t, svc)

	serve := func(resolver ActorResolver) (*httptest.ResponseRecorder, debt.Actor) {
		var got debt.Actor
		r := gin.New()
		r.Use(JWTAuthMiddleware(svc), ResolveActor(resolver))
		r.GET("/me", func(c *gin.Context) {
			got, _ = GetActor(c)
			c.Status(http.StatusOK)
		})
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set(AuthHeaderKey, BearerPrefix+token)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec, got
	}

	t.Run("external actor", func(t *testing.T) {
		rec, actor := serve(stubResolver{})
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, debt.ExternalActor{User: userID}, actor)
	})

	t.Run("company actor", func(t *testing.T) {
		member := debt.CompanyActor{User: userID, CompanyID: uuid.New()}
		rec, actor := serve(stubResolver{actor: member})
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, member, actor)
	})

	t.Run("lookup failure", func(t *testing.T) {
		rec, _ := serve(stubResolver{err: errors.New("db down")})
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, dto.ErrCodeInternal, decodeError(t, rec).Code)
	})
}
