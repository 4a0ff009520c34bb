// Package router defines how HTTP routes are registered for the API.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-ticketing/internal/handler"
)

// RegisterRoutes registers routes that carry no dependencies on the
// provided Echo instance. Currently it exposes only a health check,
// which load balancers and monitoring systems use to verify that the
// service is up.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAccounts registers the account endpoints under /v1/accounts.
// Registration, lookup and lifecycle live here; the activate and
// deactivate switches gate whether new tickets may be booked for the
// account.
func RegisterAccounts(e *echo.Echo, a *handler.AccountHandler) {
	g := e.Group("/v1/accounts")
	g.POST("", a.Create)
	g.GET("", a.Search)
	g.GET("/:id", a.Get)
	g.PUT("/:id", a.Update)
	g.DELETE("/:id", a.Delete)
	g.POST("/:id/activate", a.Activate)
	g.POST("/:id/deactivate", a.Deactivate)
	g.GET("/:id/tickets", a.ListTickets)
}

// RegisterMovies registers the movie endpoints under /v1/movies.
// Deletion is guarded: it fails with 409 while tickets reference the
// movie.
func RegisterMovies(e *echo.Echo, m *handler.MovieHandler) {
	g := e.Group("/v1/movies")
	g.POST("", m.Create)
	g.GET("", m.List)
	g.GET("/:id", m.Get)
	g.PUT("/:id", m.Update)
	g.DELETE("/:id", m.Delete)
	g.GET("/:id/tickets", m.ListTickets)
}

// RegisterTickets registers the ticket endpoints under /v1/tickets.
// POST and DELETE run through the reservation engine and move the
// movie's seat counter; the QR route renders a ticket's reference
// code for printing or scanning.
func RegisterTickets(e *echo.Echo, t *handler.TicketHandler) {
	g := e.Group("/v1/tickets")
	g.POST("", t.Create)
	g.GET("/:id", t.Get)
	g.PUT("/:id", t.Update)
	g.DELETE("/:id", t.Delete)
	g.GET("/:id/qr", t.QR)
}
