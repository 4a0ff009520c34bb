// Package service implements the reservation engine: the one place
// that creates and deletes tickets against account and movie state.
// Every operation runs inside a single store transaction; either all
// of its writes commit or none do, and no other transaction ever
// observes a ticket without its seat decrement or vice versa.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/cinema-ticketing/internal/model"
	"github.com/iliyamo/cinema-ticketing/internal/queue"
	"github.com/iliyamo/cinema-ticketing/internal/repository"
)

// AccountStore is the slice of account persistence the engine needs:
// transactional reads for booking eligibility and the active-flag
// switch. Satisfied by *repository.AccountRepo.
type AccountStore interface {
	GetTx(ctx context.Context, tx repository.Tx, id uint64) (model.Account, error)
	SetActive(ctx context.Context, id uint64, active bool) error
}

// MovieStore is the slice of movie persistence the engine needs.
// DecrementSeatsTx must be conditional (fail, not go negative, when
// the pool is empty) and IncrementSeatsTx must cap at the movie's
// creation-time capacity. Satisfied by *repository.MovieRepo.
type MovieStore interface {
	GetTx(ctx context.Context, tx repository.Tx, id uint64) (model.Movie, error)
	DecrementSeatsTx(ctx context.Context, tx repository.Tx, id uint64) error
	IncrementSeatsTx(ctx context.Context, tx repository.Tx, id uint64) error
	DeleteTx(ctx context.Context, tx repository.Tx, id uint64) error
}

// TicketStore is the slice of ticket persistence the engine needs.
// Satisfied by *repository.TicketRepo.
type TicketStore interface {
	InsertTx(ctx context.Context, tx repository.Tx, t *model.Ticket) error
	GetTx(ctx context.Context, tx repository.Tx, id uint64) (model.Ticket, error)
	DeleteTx(ctx context.Context, tx repository.Tx, id uint64) error
	CountByMovieTx(ctx context.Context, tx repository.Tx, movieID uint64) (int, error)
}

// EventPublisher receives domain events after a booking transaction
// commits. Publishing is best-effort: a broker failure is logged and
// never fails the operation that already committed.
type EventPublisher interface {
	TicketIssued(ctx context.Context, ev queue.TicketIssuedEvent) error
	TicketCancelled(ctx context.Context, ev queue.TicketCancelledEvent) error
}

// ReservationService orchestrates ticket creation and deletion across
// the account, movie and ticket stores. It owns the availableSeats
// counter: no other component may move it.
type ReservationService struct {
	db        repository.TxStarter
	accounts  AccountStore
	movies    MovieStore
	tickets   TicketStore
	publisher EventPublisher // may be nil when no broker is configured
	log       *logrus.Logger
}

// NewReservationService constructs the engine. The stores and the
// transaction starter must be non-nil; the publisher may be nil.
func NewReservationService(db repository.TxStarter, accounts AccountStore, movies MovieStore, tickets TicketStore, publisher EventPublisher, log *logrus.Logger) *ReservationService {
	if db == nil || accounts == nil || movies == nil || tickets == nil {
		panic("nil store passed to NewReservationService")
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &ReservationService{
		db:        db,
		accounts:  accounts,
		movies:    movies,
		tickets:   tickets,
		publisher: publisher,
		log:       log,
	}
}

// CreateTicketInput carries a validated booking request. Showtime is
// any timestamp; it is not checked against a schedule.
type CreateTicketInput struct {
	Showtime  time.Time
	AccountID uint64
	MovieID   uint64
	Type      TicketType
}

// CreateTicket books one seat: it verifies the account exists and is
// active, verifies the movie exists, takes a seat via the conditional
// decrement and inserts the ticket, all in one transaction. On any
// failure the transaction rolls back and both stores are untouched.
//
// Possible errors: repository.ErrAccountNotFound,
// repository.ErrAccountInactive, repository.ErrMovieNotFound,
// repository.ErrNoSeatsAvailable, or a wrapped transient store error
// (safe to retry; a retry books a fresh ticket id).
func (s *ReservationService) CreateTicket(ctx context.Context, in CreateTicketInput) (model.Ticket, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return model.Ticket{}, fmt.Errorf("begin booking transaction: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	acc, err := s.accounts.GetTx(ctx, tx, in.AccountID)
	if err != nil {
		return model.Ticket{}, err
	}
	if !acc.IsActive {
		return model.Ticket{}, repository.ErrAccountInactive
	}
	movie, err := s.movies.GetTx(ctx, tx, in.MovieID)
	if err != nil {
		return model.Ticket{}, err
	}
	if err := s.movies.DecrementSeatsTx(ctx, tx, in.MovieID); err != nil {
		return model.Ticket{}, err
	}

	ticket := model.Ticket{
		Code:       uuid.NewString(),
		Showtime:   in.Showtime.UTC(),
		FinalPrice: FinalPrice(movie.BasePrice, in.Type),
		AccountID:  in.AccountID,
		MovieID:    in.MovieID,
	}
	if err := s.tickets.InsertTx(ctx, tx, &ticket); err != nil {
		return model.Ticket{}, fmt.Errorf("insert ticket: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return model.Ticket{}, fmt.Errorf("commit booking: %w", err)
	}
	committed = true

	s.log.WithFields(logrus.Fields{
		"ticket_id":   ticket.ID,
		"account_id":  ticket.AccountID,
		"movie_id":    ticket.MovieID,
		"final_price": ticket.FinalPrice,
	}).Info("ticket issued")

	if s.publisher != nil {
		ev := queue.TicketIssuedEvent{
			TicketID:   ticket.ID,
			Code:       ticket.Code,
			AccountID:  ticket.AccountID,
			MovieID:    ticket.MovieID,
			MovieTitle: movie.Title,
			RoomNumber: movie.RoomNumber,
			Showtime:   ticket.Showtime.Format(time.RFC3339),
			FinalPrice: ticket.FinalPrice,
			IssuedAt:   time.Now().UTC().Format(time.RFC3339),
		}
		if err := s.publisher.TicketIssued(ctx, ev); err != nil {
			s.log.WithError(err).Warn("publish ticket.issued failed")
		}
	}
	return ticket, nil
}

// DeleteTicket cancels a booking: it removes the ticket row and
// returns its seat to the movie's pool in one transaction. The
// increment is capped at the movie's creation-time capacity. A ticket
// whose movie no longer exists is reported as
// repository.ErrMovieNotFound rather than silently ignored; the
// rollback keeps the dangling ticket visible for repair.
func (s *ReservationService) DeleteTicket(ctx context.Context, ticketID uint64) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin cancel transaction: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	ticket, err := s.tickets.GetTx(ctx, tx, ticketID)
	if err != nil {
		return err
	}
	if err := s.tickets.DeleteTx(ctx, tx, ticketID); err != nil {
		return err
	}
	if err := s.movies.IncrementSeatsTx(ctx, tx, ticket.MovieID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit cancel: %w", err)
	}
	committed = true

	s.log.WithFields(logrus.Fields{
		"ticket_id": ticket.ID,
		"movie_id":  ticket.MovieID,
	}).Info("ticket cancelled")

	if s.publisher != nil {
		ev := queue.TicketCancelledEvent{
			TicketID:    ticket.ID,
			Code:        ticket.Code,
			AccountID:   ticket.AccountID,
			MovieID:     ticket.MovieID,
			CancelledAt: time.Now().UTC().Format(time.RFC3339),
		}
		if err := s.publisher.TicketCancelled(ctx, ev); err != nil {
			s.log.WithError(err).Warn("publish ticket.cancelled failed")
		}
	}
	return nil
}

// DeleteMovie removes a movie only while no tickets reference it. The
// count and the delete run in the same transaction, so a concurrent
// booking either commits before the count (and blocks the delete) or
// fails its own decrement after the movie row is gone. There is no
// cascading delete.
func (s *ReservationService) DeleteMovie(ctx context.Context, movieID uint64) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin delete transaction: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if _, err := s.movies.GetTx(ctx, tx, movieID); err != nil {
		return err
	}
	n, err := s.tickets.CountByMovieTx(ctx, tx, movieID)
	if err != nil {
		return fmt.Errorf("count tickets: %w", err)
	}
	if n > 0 {
		return repository.ErrMovieInUse
	}
	if err := s.movies.DeleteTx(ctx, tx, movieID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete: %w", err)
	}
	committed = true
	s.log.WithField("movie_id", movieID).Info("movie deleted")
	return nil
}

// ActivateAccount flips the account's active flag on. Existing tickets
// are never touched by activation state.
func (s *ReservationService) ActivateAccount(ctx context.Context, accountID uint64) error {
	if err := s.accounts.SetActive(ctx, accountID, true); err != nil {
		return fmt.Errorf("activation failed: %w", err)
	}
	return nil
}

// DeactivateAccount flips the account's active flag off. Tickets the
// account already holds remain valid; only new bookings are blocked.
func (s *ReservationService) DeactivateAccount(ctx context.Context, accountID uint64) error {
	if err := s.accounts.SetActive(ctx, accountID, false); err != nil {
		return fmt.Errorf("deactivation failed: %w", err)
	}
	return nil
}
