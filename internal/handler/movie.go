package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-ticketing/internal/model"
	"github.com/iliyamo/cinema-ticketing/internal/repository"
	"github.com/iliyamo/cinema-ticketing/internal/service"
)

// MovieHandler groups the dependencies for movie endpoints. Deletion
// goes through the engine so the tickets-referencing guard runs in the
// same transaction as the delete.
type MovieHandler struct {
	Movies  *repository.MovieRepo
	Tickets *repository.TicketRepo
	Engine  *service.ReservationService
}

// NewMovieHandler constructs a MovieHandler. All dependencies must be
// non-nil.
func NewMovieHandler(movies *repository.MovieRepo, tickets *repository.TicketRepo, engine *service.ReservationService) *MovieHandler {
	if movies == nil || tickets == nil || engine == nil {
		panic("nil dependency passed to NewMovieHandler")
	}
	return &MovieHandler{Movies: movies, Tickets: tickets, Engine: engine}
}

type createMovieRequest struct {
	Title          string  `json:"title" validate:"required,min=1,max=150"`
	BasePrice      float64 `json:"base_price" validate:"gte=0,lte=100"`
	RoomNumber     int     `json:"room_number" validate:"required,gte=1,lte=30"`
	AvailableSeats int     `json:"available_seats" validate:"gte=0,lte=120"`
}

type updateMovieRequest struct {
	Title      string  `json:"title" validate:"required,min=1,max=150"`
	BasePrice  float64 `json:"base_price" validate:"gte=0,lte=100"`
	RoomNumber int     `json:"room_number" validate:"required,gte=1,lte=30"`
}

type movieResponse struct {
	ID             uint64  `json:"id"`
	Title          string  `json:"title"`
	BasePrice      float64 `json:"base_price"`
	RoomNumber     int     `json:"room_number"`
	AvailableSeats int     `json:"available_seats"`
	SeatCapacity   int     `json:"seat_capacity"`
	CreatedAt      string  `json:"created_at"`
	UpdatedAt      string  `json:"updated_at"`
}

func toMovieResponse(m model.Movie) movieResponse {
	return movieResponse{
		ID:             m.ID,
		Title:          m.Title,
		BasePrice:      m.BasePrice,
		RoomNumber:     m.RoomNumber,
		AvailableSeats: m.AvailableSeats,
		SeatCapacity:   m.SeatCapacity,
		CreatedAt:      m.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:      m.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

// Create handles POST /v1/movies. The initial available_seats value
// becomes the movie's fixed seat capacity.
func (h *MovieHandler) Create(c echo.Context) error {
	var req createMovieRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if err := validate.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	m := model.Movie{
		Title:          req.Title,
		BasePrice:      req.BasePrice,
		RoomNumber:     req.RoomNumber,
		AvailableSeats: req.AvailableSeats,
	}
	if err := h.Movies.Create(c.Request().Context(), &m); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusCreated, toMovieResponse(m))
}

// List handles GET /v1/movies.
func (h *MovieHandler) List(c echo.Context) error {
	movies, err := h.Movies.List(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	out := make([]movieResponse, 0, len(movies))
	for _, m := range movies {
		out = append(out, toMovieResponse(m))
	}
	return c.JSON(http.StatusOK, out)
}

// Get handles GET /v1/movies/:id.
func (h *MovieHandler) Get(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	m, err := h.Movies.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrMovieNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "movie not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, toMovieResponse(m))
}

// Update handles PUT /v1/movies/:id. Seat counts are not editable
// here; only bookings move them.
func (h *MovieHandler) Update(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req updateMovieRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if err := validate.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	err = h.Movies.Update(c.Request().Context(), id, req.Title, req.BasePrice, req.RoomNumber)
	if err != nil {
		if errors.Is(err, repository.ErrMovieNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "movie not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	m, err := h.Movies.GetByID(c.Request().Context(), id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, toMovieResponse(m))
}

// Delete handles DELETE /v1/movies/:id. The engine refuses while any
// ticket still references the movie.
func (h *MovieHandler) Delete(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	err = h.Engine.DeleteMovie(c.Request().Context(), id)
	switch {
	case err == nil:
		return c.NoContent(http.StatusNoContent)
	case errors.Is(err, repository.ErrMovieNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "movie not found"})
	case errors.Is(err, repository.ErrMovieInUse):
		return c.JSON(http.StatusConflict, echo.Map{"error": "cannot delete movie with tickets"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
}

// ListTickets handles GET /v1/movies/:id/tickets.
func (h *MovieHandler) ListTickets(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if _, err := h.Movies.GetByID(c.Request().Context(), id); err != nil {
		if errors.Is(err, repository.ErrMovieNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "movie not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	tickets, err := h.Tickets.ListByMovie(c.Request().Context(), id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	out := make([]ticketResponse, 0, len(tickets))
	for _, t := range tickets {
		out = append(out, toTicketResponse(t))
	}
	return c.JSON(http.StatusOK, out)
}
