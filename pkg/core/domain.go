// Package core holds the domain types of shelter: records, events and the
// repository contract every storage adapter implements.
package core

import (
	"fmt"
	"strings"
	"time"
)

// IDField is the reserved record field holding the store-assigned identifier.
const IDField = "id"

// Mode selects how the "content" of a table envelope is interpreted.
type Mode int

const (
	// ModePlain stores content as a raw JSON array of records.
	ModePlain Mode = iota
	// ModeEncrypted stores content as an opaque base64 ciphertext.
	ModeEncrypted
)

func (m Mode) String() string {
	if m == ModeEncrypted {
		return "encrypted"
	}
	return "plain"
}

// Direction is the sort order used by OrderBy.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// ParseDirection accepts "asc" or "desc" in any case. An empty string means Asc.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "asc":
		return Asc, nil
	case "desc":
		return Desc, nil
	}
	return "", fmt.Errorf("%w: unknown sort direction %q", ErrValidation, s)
}

// EventType represents the type of change observed on a table file.
type EventType string

const (
	EventCreate EventType = "CREATE"
	EventModify EventType = "MODIFY"
	EventDelete EventType = "DELETE"
)

// Event represents a change to a table.
type Event struct {
	Type      EventType
	Table     string
	Timestamp time.Time
}

func (e Event) String() string {
	return fmt.Sprintf("%s %s", e.Type, e.Table)
}
