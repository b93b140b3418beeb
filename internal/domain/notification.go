package domain

import (
	"encoding/json"
	"time"
)

// Notification severity tags.
const (
	TypeInfo    = "info"
	TypeSuccess = "success"
	TypeWarning = "warning"
	TypeError   = "error"
)

// Notification is one persisted message addressed to exactly one recipient.
type Notification struct {
	ID        string          `json:"id"`
	UserID    string          `json:"user_id"`
	Title     string          `json:"title"`
	Message   string          `json:"message"`
	Type      string          `json:"type"`
	Category  string          `json:"category,omitempty"`
	ActionURL *string         `json:"action_url,omitempty"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
	Read      bool            `json:"read"`
	ExpiresAt *time.Time      `json:"expires_at,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// CreateNotificationRequest targets exactly one of: a single user, an
// explicit list, or (with both omitted) every user in the directory.
type CreateNotificationRequest struct {
	UserID    string          `json:"user_id,omitempty"`
	UserIDs   []string        `json:"user_ids,omitempty"`
	Title     string          `json:"title"`
	Message   string          `json:"message"`
	Type      string          `json:"type,omitempty"`
	Category  string          `json:"category,omitempty"`
	ActionURL string          `json:"action_url,omitempty"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
	ExpiresAt *time.Time      `json:"expires_at,omitempty"`
}

// ValidType reports whether t is one of the known severity tags.
func ValidType(t string) bool {
	switch t {
	case TypeInfo, TypeSuccess, TypeWarning, TypeError:
		return true
	}
	return false
}
