package history

import (
	"errors"
	"time"
)

// Entry is one journaled tool call.
type Entry struct {
	ID         string    `json:"id"`
	Tool       string    `json:"tool"`
	Operation  string    `json:"operation"`
	Command    string    `json:"command,omitempty"`
	OK         bool      `json:"ok"`
	Error      string    `json:"error,omitempty"`
	DurationMS int64     `json:"duration_ms"`
	Backend    string    `json:"backend"`
	At         time.Time `json:"at"`
}

var ErrNotFound = errors.New("history entry not found")
