package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/cinema-ticketing/internal/model"
)

// TicketRepo provides persistence for the `tickets` table. Ticket
// writes that move the seat counter only exist as Tx variants; the
// engine pairs them with the matching movie update inside one
// transaction so neither write is ever visible alone.
type TicketRepo struct{ DB *sql.DB }

// NewTicketRepo returns a TicketRepo bound to the given database.
func NewTicketRepo(db *sql.DB) *TicketRepo { return &TicketRepo{DB: db} }

const ticketColumns = "id,code,showtime,final_price,account_id,movie_id,created_at,updated_at"

// InsertTx inserts a ticket within the scope of an existing
// transaction. It populates the generated ID and the DB-side
// timestamps on the provided record. The caller must commit or
// rollback the transaction.
func (r *TicketRepo) InsertTx(ctx context.Context, tx Tx, t *model.Ticket) error {
	stx, err := unwrapTx(tx)
	if err != nil {
		return err
	}
	res, err := stx.ExecContext(ctx,
		"INSERT INTO tickets (code, showtime, final_price, account_id, movie_id) VALUES (?,?,?,?,?)",
		t.Code, t.Showtime, t.FinalPrice, t.AccountID, t.MovieID)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = uint64(id)
	// Query back the full row to populate timestamps and defaults
	return stx.QueryRowContext(ctx,
		"SELECT "+ticketColumns+" FROM tickets WHERE id=? LIMIT 1", t.ID).
		Scan(&t.ID, &t.Code, &t.Showtime, &t.FinalPrice, &t.AccountID, &t.MovieID, &t.CreatedAt, &t.UpdatedAt)
}

// GetTx fetches a ticket inside the given transaction.
func (r *TicketRepo) GetTx(ctx context.Context, tx Tx, id uint64) (model.Ticket, error) {
	stx, err := unwrapTx(tx)
	if err != nil {
		return model.Ticket{}, err
	}
	var t model.Ticket
	err = stx.QueryRowContext(ctx,
		"SELECT "+ticketColumns+" FROM tickets WHERE id=? LIMIT 1", id).
		Scan(&t.ID, &t.Code, &t.Showtime, &t.FinalPrice, &t.AccountID, &t.MovieID, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Ticket{}, ErrTicketNotFound
	}
	return t, err
}

// DeleteTx removes a ticket row inside the given transaction.
func (r *TicketRepo) DeleteTx(ctx context.Context, tx Tx, id uint64) error {
	stx, err := unwrapTx(tx)
	if err != nil {
		return err
	}
	res, err := stx.ExecContext(ctx, "DELETE FROM tickets WHERE id=?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrTicketNotFound
	}
	return nil
}

// CountByMovieTx counts tickets referencing the given movie inside the
// transaction. The movie deletion guard reads this count and deletes
// in the same tx, so the answer cannot go stale between the two.
func (r *TicketRepo) CountByMovieTx(ctx context.Context, tx Tx, movieID uint64) (int, error) {
	stx, err := unwrapTx(tx)
	if err != nil {
		return 0, err
	}
	var n int
	err = stx.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM tickets WHERE movie_id=?", movieID).Scan(&n)
	return n, err
}

// GetByID fetches a ticket by id.
func (r *TicketRepo) GetByID(ctx context.Context, id uint64) (model.Ticket, error) {
	var t model.Ticket
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+ticketColumns+" FROM tickets WHERE id=? LIMIT 1", id).
		Scan(&t.ID, &t.Code, &t.Showtime, &t.FinalPrice, &t.AccountID, &t.MovieID, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Ticket{}, ErrTicketNotFound
	}
	return t, err
}

// Update edits a ticket's showtime and final price. This is a plain
// row edit: it does not touch the movie's seat counter, because the
// seat was already taken when the ticket was created.
func (r *TicketRepo) Update(ctx context.Context, id uint64, showtime time.Time, finalPrice float64) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE tickets SET showtime=?, final_price=? WHERE id=?",
		showtime, finalPrice, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	var one int
	err = r.DB.QueryRowContext(ctx, "SELECT 1 FROM tickets WHERE id=? LIMIT 1", id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrTicketNotFound
	}
	return err
}

// ListByAccount returns all tickets owned by the given account,
// newest first.
func (r *TicketRepo) ListByAccount(ctx context.Context, accountID uint64) ([]model.Ticket, error) {
	return r.list(ctx,
		"SELECT "+ticketColumns+" FROM tickets WHERE account_id=? ORDER BY created_at DESC, id DESC", accountID)
}

// ListByMovie returns all tickets referencing the given movie,
// newest first.
func (r *TicketRepo) ListByMovie(ctx context.Context, movieID uint64) ([]model.Ticket, error) {
	return r.list(ctx,
		"SELECT "+ticketColumns+" FROM tickets WHERE movie_id=? ORDER BY created_at DESC, id DESC", movieID)
}

func (r *TicketRepo) list(ctx context.Context, query string, arg uint64) ([]model.Ticket, error) {
	rows, err := r.DB.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	tickets := make([]model.Ticket, 0)
	for rows.Next() {
		var t model.Ticket
		if err := rows.Scan(&t.ID, &t.Code, &t.Showtime, &t.FinalPrice, &t.AccountID, &t.MovieID, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		tickets = append(tickets, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return tickets, nil
}
