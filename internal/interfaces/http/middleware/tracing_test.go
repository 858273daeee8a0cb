package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dividas/backend/internal/domain/debt"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestTracing(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(provider)
	t.Cleanup(func() { otel.SetTracerProvider(previous) })

	companyID := uuid.New()
	r := gin.New()
	r.Use(RequestID(), Tracing("dividas-test", true))
	r.Use(func(c *gin.Context) {
		c.Set(ActorKey, debt.Actor(debt.CompanyActor{User: uuid.New(), CompanyID: companyID}))
		c.Next()
	}, TracingAttributeInjector())
	r.GET("/debts/:id", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/debts/42", nil))

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	span := spans[0]
	assert.Equal(t, codes.Error, span.Status().Code)

	attrs := map[attribute.Key]attribute.Value{}
	for _, kv := range span.Attributes() {
		attrs[kv.Key] = kv.Value
	}
	assert.Equal(t, companyID.String(), attrs["company_id"].AsString())
	assert.False(t, attrs["actor.external"].AsBool())
	assert.NotEmpty(t, attrs["request_id"].AsString())
}

func TestTracing_Disabled(t *testing.T) {
	r := gin.New()
	r.Use(Tracing("dividas-test", false), TracingAttributeInjector())
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
