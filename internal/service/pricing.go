package service

import (
	"fmt"
	"math"
	"strings"
)

// TicketType selects the discount applied to a movie's base price.
type TicketType string

const (
	// TicketNormal pays the full base price.
	TicketNormal TicketType = "NORMAL"
	// TicketReduced pays 75% of the base price (students, seniors).
	TicketReduced TicketType = "REDUCED"
)

// ParseTicketType normalizes a user-supplied ticket type. An empty
// string defaults to NORMAL; anything else unknown is rejected.
func ParseTicketType(s string) (TicketType, error) {
	switch TicketType(strings.ToUpper(strings.TrimSpace(s))) {
	case "":
		return TicketNormal, nil
	case TicketNormal:
		return TicketNormal, nil
	case TicketReduced:
		return TicketReduced, nil
	}
	return "", fmt.Errorf("unknown ticket type %q", s)
}

// DiscountFactor returns the multiplier applied to the base price.
func (t TicketType) DiscountFactor() float64 {
	if t == TicketReduced {
		return 0.75
	}
	return 1.0
}

// FinalPrice computes the price a ticket of the given type pays for a
// movie with the given base price, rounded to two decimals. Prices are
// small (0-100) so float64 carries them exactly enough; rounding keeps
// the stored DECIMAL(6,2) and the computed value identical.
func FinalPrice(basePrice float64, t TicketType) float64 {
	return math.Round(basePrice*t.DiscountFactor()*100) / 100
}
