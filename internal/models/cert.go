package models

import "time"

// Certificate is a saved issuance, keyed by its credential id.
// Rows are appended on issuance and never updated.
type Certificate struct {
	ID             int64     `json:"id"`
	CredentialID   string    `json:"credential_id"`
	Name           string    `json:"name"`
	Series         string    `json:"series"`
	Date           string    `json:"date"`
	Timestamp      int64     `json:"timestamp"`
	PartsCompleted int       `json:"parts_completed"`
	BadgeURL       string    `json:"badge_url,omitempty"`
	ClientIP       string    `json:"client_ip,omitempty"`
	SavedAt        time.Time `json:"saved_at"`
}
