package event

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/Strob0t/EventBoard/internal/domain"
)

const (
	maxTitleLen    = 255
	maxLocationLen = 500
	maxGuests      = 500
	maxGuestLen    = 255
)

// ValidateRequest validates the fields of an event create or update request.
func ValidateRequest(req *Request) error {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return fmt.Errorf("title is required: %w", domain.ErrValidation)
	}
	if len(req.Title) > maxTitleLen {
		return fmt.Errorf("title exceeds %d characters: %w", maxTitleLen, domain.ErrValidation)
	}
	if hasControl(req.Title) {
		return fmt.Errorf("title contains control characters: %w", domain.ErrValidation)
	}

	if req.DateTime.IsZero() {
		return fmt.Errorf("date_time is required: %w", domain.ErrValidation)
	}

	if len(req.Guests) > maxGuests {
		return fmt.Errorf("guests exceeds %d entries: %w", maxGuests, domain.ErrValidation)
	}
	for i, g := range req.Guests {
		if strings.TrimSpace(g) == "" {
			return fmt.Errorf("guests[%d] is empty: %w", i, domain.ErrValidation)
		}
		if len(g) > maxGuestLen {
			return fmt.Errorf("guests[%d] exceeds %d characters: %w", i, maxGuestLen, domain.ErrValidation)
		}
	}

	if len(req.Location) > maxLocationLen {
		return fmt.Errorf("location exceeds %d characters: %w", maxLocationLen, domain.ErrValidation)
	}

	return nil
}

func hasControl(s string) bool {
	for _, r := range s {
		if unicode.IsControl(r) {
			return true
		}
	}
	return false
}
