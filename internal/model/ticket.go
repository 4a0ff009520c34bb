package model

import "time"

// Ticket represents a row of the `tickets` table. A ticket reserves
// exactly one seat of a movie's pool for a given showtime. AccountID
// and MovieID are plain foreign keys, not object graphs; the account
// and movie data shown on a ticket is whatever those rows hold at
// read time.
//
// Code is an opaque UUID issued at creation. It is what gets printed
// on the ticket (and rendered as a QR code) so that the numeric
// database ID never leaves the system.
//
// Fields:
//  ID         primary key identifier.
//  Code       public reference code (UUID v4).
//  Showtime   screening timestamp; not validated against a schedule.
//  FinalPrice base price multiplied by the ticket type's discount factor.
//  AccountID  owning account; any role may hold tickets.
//  MovieID    referenced movie.
//  CreatedAt  creation timestamp.
//  UpdatedAt  last update timestamp.
type Ticket struct {
	ID         uint64    // tickets.id
	Code       string    // tickets.code
	Showtime   time.Time // tickets.showtime
	FinalPrice float64   // tickets.final_price
	AccountID  uint64    // tickets.account_id
	MovieID    uint64    // tickets.movie_id
	CreatedAt  time.Time // tickets.created_at
	UpdatedAt  time.Time // tickets.updated_at
}
