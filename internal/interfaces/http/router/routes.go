package router

import (
	"net/http"

	"github.com/dividas/backend/internal/interfaces/http/handler"
	"github.com/gin-gonic/gin"
)

// Handlers are the API handlers mounted by LedgerGroups
type Handlers struct {
	Debts     *handler.DebtHandler
	Clients   *handler.ClientHandler
	Companies *handler.CompanyHandler
	Reports   *handler.ReportHandler
	System    *handler.SystemHandler
}

// Guards are the per-route middleware of the API. A nil guard is skipped.
type Guards struct {
	// ManageCompanies protects company creation
	ManageCompanies gin.HandlerFunc
	// SearchLimit throttles the client search endpoints
	SearchLimit gin.HandlerFunc
}

func chain(guard gin.HandlerFunc, h gin.HandlerFunc) []gin.HandlerFunc {
	if guard == nil {
		return []gin.HandlerFunc{h}
	}
	return []gin.HandlerFunc{guard, h}
}

// LedgerGroups builds the domain groups of the API
func LedgerGroups(h Handlers, g Guards) []*DomainGroup {
	debts := NewDomainGroup("debts", "/debts").
		POST("", h.Debts.Register).
		POST("/with-client", h.Debts.RegisterForClient).
		GET("/:id", h.Debts.Get).
		PATCH("/:id", h.Debts.Edit).
		POST("/:id/payments", h.Debts.RegisterPayment).
		POST("/:id/negotiation", h.Debts.StartNegotiation).
		POST("/:id/cancel", h.Debts.Cancel).
		POST("/:id/reactivate", h.Debts.Reactivate).
		GET("/:id/history", h.Debts.History)

	clients := NewDomainGroup("clients", "/clients").
		GET("", chain(g.SearchLimit, h.Clients.List)...).
		GET("/search", chain(g.SearchLimit, h.Clients.Search)...).
		GET("/:id", h.Clients.Detail).
		GET("/:id/debts", h.Clients.Debts)

	companies := NewDomainGroup("companies", "/companies").
		POST("", chain(g.ManageCompanies, h.Companies.Create)...).
		GET("", h.Companies.List).
		GET("/:id", h.Companies.Get).
		GET("/:id/members", h.Companies.ListMembers).
		POST("/:id/members", h.Companies.AddMember)

	reports := NewDomainGroup("reports", "/reports").
		GET("/dashboard", h.Reports.Dashboard).
		GET("/statistics", h.Reports.Statistics).
		GET("/overdue", h.Reports.Overdue)

	me := NewDomainGroup("me", "/me").GET("", h.Companies.Me)

	groups := []*DomainGroup{debts, clients, companies, reports, me}
	if h.System != nil {
		groups = append(groups, NewDomainGroup("system", "/system").GET("/info", h.System.Info))
	}
	return groups
}

// RegisterOperational mounts the unversioned health, readiness and metrics
// endpoints. metrics may be nil.
func RegisterOperational(engine *gin.Engine, system *handler.SystemHandler, metrics http.Handler) {
	engine.GET("/health", system.Health)
	engine.GET("/ready", system.Ready)
	if metrics != nil {
		engine.GET("/metrics", gin.WrapH(metrics))
	}
}
