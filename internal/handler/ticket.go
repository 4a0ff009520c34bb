package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-ticketing/internal/model"
	"github.com/iliyamo/cinema-ticketing/internal/repository"
	"github.com/iliyamo/cinema-ticketing/internal/service"
	"github.com/iliyamo/cinema-ticketing/internal/utils"
)

// TicketHandler groups the dependencies for ticket endpoints. Creation
// and deletion go through the reservation engine; plain reads and the
// showtime/price edit talk to the repository directly.
type TicketHandler struct {
	Engine  *service.ReservationService
	Tickets *repository.TicketRepo
}

// NewTicketHandler constructs a TicketHandler. All dependencies must
// be non-nil.
func NewTicketHandler(engine *service.ReservationService, tickets *repository.TicketRepo) *TicketHandler {
	if engine == nil || tickets == nil {
		panic("nil dependency passed to NewTicketHandler")
	}
	return &TicketHandler{Engine: engine, Tickets: tickets}
}

type createTicketRequest struct {
	Showtime  string `json:"showtime" validate:"required"`
	AccountID uint64 `json:"account_id" validate:"required"`
	MovieID   uint64 `json:"movie_id" validate:"required"`
	Type      string `json:"type"` // NORMAL or REDUCED; empty defaults to NORMAL
}

type updateTicketRequest struct {
	Showtime   string  `json:"showtime" validate:"required"`
	FinalPrice float64 `json:"final_price" validate:"gte=0,lte=100"`
}

type ticketResponse struct {
	ID         uint64  `json:"id"`
	Code       string  `json:"code"`
	Showtime   string  `json:"showtime"`
	FinalPrice float64 `json:"final_price"`
	AccountID  uint64  `json:"account_id"`
	MovieID    uint64  `json:"movie_id"`
	CreatedAt  string  `json:"created_at"`
	UpdatedAt  string  `json:"updated_at"`
}

func toTicketResponse(t model.Ticket) ticketResponse {
	return ticketResponse{
		ID:         t.ID,
		Code:       t.Code,
		Showtime:   t.Showtime.UTC().Format(time.RFC3339),
		FinalPrice: t.FinalPrice,
		AccountID:  t.AccountID,
		MovieID:    t.MovieID,
		CreatedAt:  t.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:  t.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

// parseShowtime accepts RFC3339 or the plain DB format so clients can
// pass either "2026-01-02T20:00:00Z" or "2026-01-02 20:00:00".
func parseShowtime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", s)
}

// Create handles POST /v1/tickets. It books one seat of the movie for
// the account, computing the final price from the movie's base price
// and the requested ticket type.
func (h *TicketHandler) Create(c echo.Context) error {
	var req createTicketRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if err := validate.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	showtime, err := parseShowtime(req.Showtime)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid showtime"})
	}
	ticketType, err := service.ParseTicketType(req.Type)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid ticket type"})
	}
	ticket, err := h.Engine.CreateTicket(c.Request().Context(), service.CreateTicketInput{
		Showtime:  showtime,
		AccountID: req.AccountID,
		MovieID:   req.MovieID,
		Type:      ticketType,
	})
	switch {
	case err == nil:
		return c.JSON(http.StatusCreated, toTicketResponse(ticket))
	case errors.Is(err, repository.ErrAccountNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "account not found"})
	case errors.Is(err, repository.ErrMovieNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "movie not found"})
	case errors.Is(err, repository.ErrAccountInactive):
		return c.JSON(http.StatusConflict, echo.Map{"error": "account is deactivated"})
	case errors.Is(err, repository.ErrNoSeatsAvailable):
		return c.JSON(http.StatusConflict, echo.Map{"error": "no seats available"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "booking failed"})
	}
}

// Get handles GET /v1/tickets/:id.
func (h *TicketHandler) Get(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	t, err := h.Tickets.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrTicketNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "ticket not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, toTicketResponse(t))
}

// Update handles PUT /v1/tickets/:id. Only the showtime and the final
// price are editable; the seat counter is untouched because the seat
// was already taken at creation.
func (h *TicketHandler) Update(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req updateTicketRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if err := validate.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	showtime, err := parseShowtime(req.Showtime)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid showtime"})
	}
	err = h.Tickets.Update(c.Request().Context(), id, showtime.UTC(), req.FinalPrice)
	if err != nil {
		if errors.Is(err, repository.ErrTicketNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "ticket not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	t, err := h.Tickets.GetByID(c.Request().Context(), id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, toTicketResponse(t))
}

// Delete handles DELETE /v1/tickets/:id. The engine removes the ticket
// and returns its seat to the movie's pool atomically.
func (h *TicketHandler) Delete(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	err = h.Engine.DeleteTicket(c.Request().Context(), id)
	switch {
	case err == nil:
		return c.NoContent(http.StatusNoContent)
	case errors.Is(err, repository.ErrTicketNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "ticket not found"})
	case errors.Is(err, repository.ErrMovieNotFound):
		// The ticket pointed at a movie that no longer exists. Surface the
		// inconsistency instead of quietly dropping the ticket.
		return c.JSON(http.StatusConflict, echo.Map{"error": "ticket references a missing movie"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "cancel failed"})
	}
}

// QR handles GET /v1/tickets/:id/qr. It renders the ticket's reference
// code as a PNG QR image suitable for printing or scanning at entry.
func (h *TicketHandler) QR(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	t, err := h.Tickets.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrTicketNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "ticket not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	png, err := utils.GenerateQRCode(t.Code, 256)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "qr generation failed"})
	}
	return c.Blob(http.StatusOK, "image/png", png)
}
