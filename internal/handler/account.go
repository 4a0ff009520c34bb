// Package handler defines the HTTP handlers of the ticketing API.
// Handlers are thin: they bind and validate the request, call the
// repository or the reservation engine, and translate sentinel errors
// into status codes. No business rule lives here.
package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-ticketing/internal/model"
	"github.com/iliyamo/cinema-ticketing/internal/repository"
	"github.com/iliyamo/cinema-ticketing/internal/service"
)

var validate = validator.New()

// AccountHandler groups the dependencies for account endpoints.
type AccountHandler struct {
	Accounts *repository.AccountRepo
	Tickets  *repository.TicketRepo
	Engine   *service.ReservationService
}

// NewAccountHandler constructs an AccountHandler. All dependencies
// must be non-nil.
func NewAccountHandler(accounts *repository.AccountRepo, tickets *repository.TicketRepo, engine *service.ReservationService) *AccountHandler {
	if accounts == nil || tickets == nil || engine == nil {
		panic("nil dependency passed to NewAccountHandler")
	}
	return &AccountHandler{Accounts: accounts, Tickets: tickets, Engine: engine}
}

type createAccountRequest struct {
	Login    string `json:"login" validate:"required,min=8,max=20"`
	Password string `json:"password" validate:"required,min=8,max=40"`
	Role     string `json:"role" validate:"required,oneof=CLIENT ADMIN STAFF"`
}

type updateAccountRequest struct {
	Login    string `json:"login" validate:"required,min=8,max=20"`
	Password string `json:"password" validate:"required,min=8,max=40"`
}

// accountResponse is the JSON shape returned for accounts. The
// password column never appears in a response.
type accountResponse struct {
	ID        uint64 `json:"id"`
	Login     string `json:"login"`
	Role      string `json:"role"`
	IsActive  bool   `json:"is_active"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

func toAccountResponse(a model.Account) accountResponse {
	return accountResponse{
		ID:        a.ID,
		Login:     a.Login,
		Role:      a.Role,
		IsActive:  a.IsActive,
		CreatedAt: a.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt: a.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

// containsWhitespace reports whether s holds any whitespace character.
// Logins and passwords must be whitespace-free; the length rules are
// covered by validator tags.
func containsWhitespace(s string) bool {
	return strings.ContainsAny(s, " \t\r\n")
}

func pathID(c echo.Context) (uint64, error) {
	return strconv.ParseUint(c.Param("id"), 10, 64)
}

// Create handles POST /v1/accounts. Field-format violations are
// reported as 400 before the store is touched; a duplicate login is a
// distinct 409.
func (h *AccountHandler) Create(c echo.Context) error {
	var req createAccountRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if err := validate.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	if containsWhitespace(req.Login) || containsWhitespace(req.Password) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "login and password must not contain whitespace"})
	}
	id, err := h.Accounts.Create(c.Request().Context(), req.Login, req.Password, req.Role)
	if err != nil {
		if errors.Is(err, repository.ErrLoginExists) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "login already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	acc, err := h.Accounts.GetByID(c.Request().Context(), id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusCreated, toAccountResponse(acc))
}

// Get handles GET /v1/accounts/:id.
func (h *AccountHandler) Get(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	acc, err := h.Accounts.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "account not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, toAccountResponse(acc))
}

// Search handles GET /v1/accounts with either ?login= (exact match)
// or ?login_prefix= (prefix search). Without a filter it rejects the
// request; there is no unpaged full listing of accounts.
func (h *AccountHandler) Search(c echo.Context) error {
	if login := c.QueryParam("login"); login != "" {
		acc, err := h.Accounts.GetByLogin(c.Request().Context(), login)
		if err != nil {
			if errors.Is(err, repository.ErrAccountNotFound) {
				return c.JSON(http.StatusNotFound, echo.Map{"error": "account not found"})
			}
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
		}
		return c.JSON(http.StatusOK, toAccountResponse(acc))
	}
	if prefix := c.QueryParam("login_prefix"); prefix != "" {
		accs, err := h.Accounts.SearchByLoginPrefix(c.Request().Context(), prefix)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
		}
		out := make([]accountResponse, 0, len(accs))
		for _, a := range accs {
			out = append(out, toAccountResponse(a))
		}
		return c.JSON(http.StatusOK, out)
	}
	return c.JSON(http.StatusBadRequest, echo.Map{"error": "login or login_prefix query parameter is required"})
}

// Update handles PUT /v1/accounts/:id (login/password only).
func (h *AccountHandler) Update(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req updateAccountRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if err := validate.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	if containsWhitespace(req.Login) || containsWhitespace(req.Password) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "login and password must not contain whitespace"})
	}
	err = h.Accounts.Update(c.Request().Context(), id, req.Login, req.Password)
	switch {
	case err == nil:
	case errors.Is(err, repository.ErrAccountNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "account not found"})
	case errors.Is(err, repository.ErrLoginExists):
		return c.JSON(http.StatusConflict, echo.Map{"error": "login already exists"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	acc, err := h.Accounts.GetByID(c.Request().Context(), id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, toAccountResponse(acc))
}

// Delete handles DELETE /v1/accounts/:id. Tickets owned by the account
// are not removed; they carry their own copy of the booking data.
func (h *AccountHandler) Delete(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	err = h.Accounts.Delete(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "account not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// Activate handles POST /v1/accounts/:id/activate.
func (h *AccountHandler) Activate(c echo.Context) error {
	return h.setActive(c, true)
}

// Deactivate handles POST /v1/accounts/:id/deactivate. Tickets the
// account already holds stay valid; only new bookings are blocked.
func (h *AccountHandler) Deactivate(c echo.Context) error {
	return h.setActive(c, false)
}

func (h *AccountHandler) setActive(c echo.Context, active bool) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if active {
		err = h.Engine.ActivateAccount(c.Request().Context(), id)
	} else {
		err = h.Engine.DeactivateAccount(c.Request().Context(), id)
	}
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "account not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
	}
	return c.NoContent(http.StatusNoContent)
}

// ListTickets handles GET /v1/accounts/:id/tickets.
func (h *AccountHandler) ListTickets(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if _, err := h.Accounts.GetByID(c.Request().Context(), id); err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "account not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	tickets, err := h.Tickets.ListByAccount(c.Request().Context(), id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	out := make([]ticketResponse, 0, len(tickets))
	for _, t := range tickets {
		out = append(out, toTicketResponse(t))
	}
	return c.JSON(http.StatusOK, out)
}
