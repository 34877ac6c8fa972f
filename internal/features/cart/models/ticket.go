package models

import (
	"fmt"
	"time"

	apperrors "lottery-miniapp-backend/internal/common/errors"
)

// CartTicket is one pending ticket selection. Numbers are kept sorted ascending.
type CartTicket struct {
	ID      string    `json:"id"`
	Numbers []int     `json:"numbers"`
	AddedAt time.Time `json:"addedAt"`
}

// TicketFormat describes a valid ticket: NumbersPerTicket distinct numbers in [1, MaxNumber].
type TicketFormat struct {
	NumbersPerTicket int `json:"numbersPerTicket"`
	MaxNumber        int `json:"maxNumber"`
}

// Validate is the caller-side check run before numbers reach the cart.
func (f TicketFormat) Validate(numbers []int) error {
	if len(numbers) != f.NumbersPerTicket {
		return apperrors.NewInvalidTicketError(fmt.Sprintf("expected %d numbers, got %d", f.NumbersPerTicket, len(numbers))).
			WithDetail("expected", f.NumbersPerTicket)
	}
	seen := make(map[int]struct{}, len(numbers))
	for _, n := range numbers {
		if n < 1 || n > f.MaxNumber {
			return apperrors.NewInvalidTicketError(fmt.Sprintf("number %d out of range 1..%d", n, f.MaxNumber)).
				WithDetail("number", n)
		}
		if _, dup := seen[n]; dup {
			return apperrors.NewInvalidTicketError(fmt.Sprintf("duplicate number %d", n)).
				WithDetail("number", n)
		}
		seen[n] = struct{}{}
	}
	return nil
}

type AddTicketRequest struct {
	Numbers []int `json:"numbers" binding:"required,min=1"`
}
