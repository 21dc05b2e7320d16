// Package router mounts the commission HTTP API on a gin engine.
package router

import (
	"slices"

	"github.com/gin-gonic/gin"
	"github.com/ticketbook/backend/internal/interfaces/http/handler"
)

// DefaultVersion is the API version prefix used when none is given
const DefaultVersion = "v1"

// API is the set of handlers behind the commission routes. Nil handlers
// leave their routes unregistered.
type API struct {
	Commission *handler.CommissionHandler
	Payments   *handler.PaymentHandler
	// Health is served on the unversioned /health path
	Health gin.HandlerFunc
	// RecalcGuard runs before both recalculation endpoints, typically a
	// per-event rate limiter
	RecalcGuard []gin.HandlerFunc
}

// Mount registers the routes on r under /api/<version>:
//
//	POST /commission/events/:event_id/recalculate
//	GET  /commission/events/:event_id/records
//	GET  /commission/events/:event_id/total
//	GET  /commission/events/:event_id/summary
//	GET  /commission/events/:event_id/diagnostics
//	POST /commission/books/:book_id/recalculate
//	POST /payments
//	POST /payments/import
func (a API) Mount(r gin.IRouter, version string) {
	if version == "" {
		version = DefaultVersion
	}
	if a.Health != nil {
		r.GET("/health", a.Health)
	}
	api := r.Group("/api/" + version)

	if h := a.Commission; h != nil {
		events := api.Group("/commission/events/:event_id")
		events.POST("/recalculate", a.guarded(h.RecalculateEvent)...)
		events.GET("/records", h.ListRecords)
		events.GET("/total", h.GetTotal)
		events.GET("/summary", h.GetSummary)
		events.GET("/diagnostics", h.GetDiagnostics)

		api.POST("/commission/books/:book_id/recalculate", a.guarded(h.RecalculateBook)...)
	}

	if h := a.Payments; h != nil {
		payments := api.Group("/payments")
		payments.POST("", h.RecordPayment)
		payments.POST("/import", h.ImportPayments)
	}
}

func (a API) guarded(h gin.HandlerFunc) []gin.HandlerFunc {
	return append(slices.Clip(a.RecalcGuard), h)
}
