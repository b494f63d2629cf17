// Package event defines the Event domain entity managed by the board.
package event

import "time"

// Event is a scheduled gathering with a guest list.
type Event struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	DateTime  time.Time `json:"date_time"`
	Guests    []string  `json:"guests"`
	Location  string    `json:"location"`
	Version   int       `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Request holds the client-writable fields of an event. It is used for
// both create and full-replacement update.
type Request struct {
	Title    string    `json:"title"`
	DateTime time.Time `json:"date_time"`
	Guests   []string  `json:"guests"`
	Location string    `json:"location"`
}

// Apply overwrites the writable fields of e with the values from req.
func (e *Event) Apply(req *Request) {
	e.Title = req.Title
	e.DateTime = req.DateTime
	e.Guests = append([]string(nil), req.Guests...)
	e.Location = req.Location
}
