package models

import "github.com/vogiaan1904/ticketbottle-reservation/internal/errors"

type Table struct {
	ID             string `json:"id"`
	Name           string `json:"name,omitempty"`
	SeatsTotal     int    `json:"seats_total"`
	SeatsAvailable int    `json:"seats_available"`
}

// Take removes seats from availability for a new reservation.
func (t *Table) Take(seats int) error {
	if seats > t.SeatsAvailable {
		return errors.ErrInsufficientSeats
	}
	t.SeatsAvailable -= seats
	return nil
}

// Release returns seats to availability, never beyond SeatsTotal, and
// reports how many were actually restored.
func (t *Table) Release(seats int) int {
	if seats <= 0 {
		return 0
	}
	before := t.SeatsAvailable
	t.SeatsAvailable = min(t.SeatsTotal, t.SeatsAvailable+seats)
	return t.SeatsAvailable - before
}

type Event struct {
	ID     string  `json:"id"`
	Title  string  `json:"title,omitempty"`
	Tables []Table `json:"tables"`
}

// Table returns a pointer into e.Tables so callers can mutate it in place.
func (e *Event) Table(id string) (*Table, error) {
	for i := range e.Tables {
		if e.Tables[i].ID == id {
			return &e.Tables[i], nil
		}
	}
	return nil, errors.ErrTableNotFound
}
