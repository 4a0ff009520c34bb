package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/cinema-ticketing/internal/model"
)

// MovieRepo provides persistence for the `movies` table, including the
// seat counter the reservation engine contends on. The counter is only
// ever moved through DecrementSeatsTx and IncrementSeatsTx so that the
// invariant 0 <= available_seats <= seat_capacity holds at the store
// level, not just in whoever remembered to check first.
type MovieRepo struct{ DB *sql.DB }

// NewMovieRepo returns a MovieRepo bound to the given database.
func NewMovieRepo(db *sql.DB) *MovieRepo { return &MovieRepo{DB: db} }

const movieColumns = "id,title,base_price,room_number,available_seats,seat_capacity,created_at,updated_at"

// Create inserts a movie. seat_capacity is frozen to the initial
// available_seats value and bounds every later increment. The
// generated ID and DB-side timestamps are populated on m.
func (r *MovieRepo) Create(ctx context.Context, m *model.Movie) error {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO movies (title, base_price, room_number, available_seats, seat_capacity) VALUES (?,?,?,?,?)",
		m.Title, m.BasePrice, m.RoomNumber, m.AvailableSeats, m.AvailableSeats)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	m.ID = uint64(id)
	// Query back the full row to populate timestamps and defaults
	created, err := r.GetByID(ctx, m.ID)
	if err != nil {
		return err
	}
	*m = created
	return nil
}

// GetByID fetches a movie by id.
func (r *MovieRepo) GetByID(ctx context.Context, id uint64) (model.Movie, error) {
	var m model.Movie
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+movieColumns+" FROM movies WHERE id=? LIMIT 1", id).
		Scan(&m.ID, &m.Title, &m.BasePrice, &m.RoomNumber, &m.AvailableSeats, &m.SeatCapacity, &m.CreatedAt, &m.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Movie{}, ErrMovieNotFound
	}
	return m, err
}

// List returns all movies ordered by title.
func (r *MovieRepo) List(ctx context.Context) ([]model.Movie, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+movieColumns+" FROM movies ORDER BY title, id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	movies := make([]model.Movie, 0)
	for rows.Next() {
		var m model.Movie
		if err := rows.Scan(&m.ID, &m.Title, &m.BasePrice, &m.RoomNumber, &m.AvailableSeats, &m.SeatCapacity, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		movies = append(movies, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return movies, nil
}

// Update changes a movie's title, base price and room number. The seat
// counter and capacity are not reachable from here; only the
// reservation engine moves them.
func (r *MovieRepo) Update(ctx context.Context, id uint64, title string, basePrice float64, roomNumber int) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE movies SET title=?, base_price=?, room_number=? WHERE id=?",
		title, basePrice, roomNumber, id)
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
	err = r.DB.QueryRowContext(ctx, "SELECT 1 FROM movies WHERE id=? LIMIT 1", id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrMovieNotFound
	}
	return err
}

// GetTx fetches a movie inside the given transaction.
func (r *MovieRepo) GetTx(ctx context.Context, tx Tx, id uint64) (model.Movie, error) {
	stx, err := unwrapTx(tx)
	if err != nil {
		return model.Movie{}, err
	}
	var m model.Movie
	err = stx.QueryRowContext(ctx,
		"SELECT "+movieColumns+" FROM movies WHERE id=? LIMIT 1", id).
		Scan(&m.ID, &m.Title, &m.BasePrice, &m.RoomNumber, &m.AvailableSeats, &m.SeatCapacity, &m.CreatedAt, &m.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Movie{}, ErrMovieNotFound
	}
	return m, err
}

// DecrementSeatsTx takes one seat from the movie's pool. The decrement
// is conditional: the WHERE clause re-checks the counter at write time,
// so two transactions racing for the last seat cannot both succeed.
// The loser matches no row and gets ErrNoSeatsAvailable; a missing
// movie is told apart by a follow-up existence probe in the same tx.
func (r *MovieRepo) DecrementSeatsTx(ctx context.Context, tx Tx, id uint64) error {
	stx, err := unwrapTx(tx)
	if err != nil {
		return err
	}
	res, err := stx.ExecContext(ctx,
		"UPDATE movies SET available_seats = available_seats - 1 WHERE id=? AND available_seats > 0", id)
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
	err = stx.QueryRowContext(ctx, "SELECT 1 FROM movies WHERE id=? LIMIT 1", id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrMovieNotFound
	}
	if err != nil {
		return err
	}
	return ErrNoSeatsAvailable
}

// IncrementSeatsTx returns one seat to the movie's pool when a ticket
// is deleted. The increment is capped at seat_capacity: the original
// system incremented unconditionally, which let a delete/re-create
// cycle inflate the pool past the room size. LEAST keeps the invariant
// instead. A missing movie means the deleted ticket was dangling and
// is reported as ErrMovieNotFound.
func (r *MovieRepo) IncrementSeatsTx(ctx context.Context, tx Tx, id uint64) error {
	stx, err := unwrapTx(tx)
	if err != nil {
		return err
	}
	// Probe first: a capped increment that changes nothing also reports
	// zero affected rows, so RowsAffected cannot signal existence here.
	var one int
	err = stx.QueryRowContext(ctx, "SELECT 1 FROM movies WHERE id=? LIMIT 1", id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrMovieNotFound
	}
	if err != nil {
		return err
	}
	_, err = stx.ExecContext(ctx,
		"UPDATE movies SET available_seats = LEAST(available_seats + 1, seat_capacity) WHERE id=?", id)
	return err
}

// DeleteTx removes a movie row inside the given transaction. Callers
// must have verified the ticket count first; the engine does both
// inside one tx so no ticket can slip in between.
func (r *MovieRepo) DeleteTx(ctx context.Context, tx Tx, id uint64) error {
	stx, err := unwrapTx(tx)
	if err != nil {
		return err
	}
	res, err := stx.ExecContext(ctx, "DELETE FROM movies WHERE id=?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrMovieNotFound
	}
	return nil
}
