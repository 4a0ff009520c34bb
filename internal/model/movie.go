package model

import "time"

// Movie represents a scheduled movie in a screening room together
// with its aggregate seat pool. There is no per-seat layout; a single
// counter tracks unsold seats. SeatCapacity is frozen at creation and
// bounds AvailableSeats for the lifetime of the row:
//
//	0 <= AvailableSeats <= SeatCapacity
//
// The counter is mutated only by the reservation engine (decrement on
// ticket creation, increment on ticket deletion), always inside the
// same transaction as the ticket write.
//
// Fields:
//  ID             primary key identifier.
//  Title          movie title (1-150 chars).
//  BasePrice      base ticket price before discounts (0-100, two decimals).
//  RoomNumber     screening room (1-30).
//  AvailableSeats unsold seats remaining (0-120 at creation).
//  SeatCapacity   value of AvailableSeats at creation time.
//  CreatedAt      creation timestamp.
//  UpdatedAt      last update timestamp.
type Movie struct {
	ID             uint64    // movies.id
	Title          string    // movies.title
	BasePrice      float64   // movies.base_price
	RoomNumber     int       // movies.room_number
	AvailableSeats int       // movies.available_seats
	SeatCapacity   int       // movies.seat_capacity
	CreatedAt      time.Time // movies.created_at
	UpdatedAt      time.Time // movies.updated_at
}
