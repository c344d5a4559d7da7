package model

import (
	"database/sql"
	"time"
)

// Contact message statuses. The throttle counts only NEW and SPAM rows
// inside the rolling window; staff move messages between states freely.
const (
	ContactNew     = "NEW"
	ContactOngoing = "ONGOING"
	ContactDone    = "DONE"
	ContactSpam    = "SPAM"
)

// ValidContactStatus reports whether s is a known contact status.
func ValidContactStatus(s string) bool {
	switch s {
	case ContactNew, ContactOngoing, ContactDone, ContactSpam:
		return true
	}
	return false
}

// Contact mirrors the 'contacts' table.
type Contact struct {
	ID          uint64        // contacts.id
	FromUserID  sql.NullInt64 // contacts.from_user_id (null for guests)
	Name        string        // contacts.name
	Email       string        // contacts.email (normalized)
	Country     string        // contacts.country
	Subject     string        // contacts.subject
	Body        string        // contacts.body
	Type        string        // contacts.type (free-form category)
	Status      string        // contacts.status
	SubmittedAt time.Time     // contacts.submitted_at
}
