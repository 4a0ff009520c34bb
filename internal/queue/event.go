// Package queue defines message payloads exchanged over the message broker.
package queue

// TicketIssuedEvent is published when a booking commits. It carries a
// denormalized snapshot of the ticket so downstream consumers can log,
// notify, or feed analytics without querying the primary database.
type TicketIssuedEvent struct {
	TicketID   uint64  `json:"ticket_id"`
	Code       string  `json:"code"`
	AccountID  uint64  `json:"account_id"`
	MovieID    uint64  `json:"movie_id"`
	MovieTitle string  `json:"movie_title"`
	RoomNumber int     `json:"room_number"`
	Showtime   string  `json:"showtime"`
	FinalPrice float64 `json:"final_price"`
	IssuedAt   string  `json:"issued_at"`
}

// TicketCancelledEvent is published when a ticket deletion commits and
// its seat has been returned to the movie's pool.
type TicketCancelledEvent struct {
	TicketID    uint64 `json:"ticket_id"`
	Code        string `json:"code"`
	AccountID   uint64 `json:"account_id"`
	MovieID     uint64 `json:"movie_id"`
	CancelledAt string `json:"cancelled_at"`
}
