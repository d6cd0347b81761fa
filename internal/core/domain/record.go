package domain

import "time"

// MaxSessionRecords caps the saved session-configuration list. Saving past
// the cap evicts the record with the oldest SavedAt.
const MaxSessionRecords = 10

// SessionRecord is a saved, reusable stream configuration. It is distinct
// from the live StreamSession: records are presets, not state.
type SessionRecord struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	CategoryID     string    `json:"category_id"`
	CategoryName   string    `json:"category_name"`
	Tags           []string  `json:"tags"`
	ArchiveEnabled bool      `json:"archive_enabled"`
	SavedAt        time.Time `json:"saved_at"`
}

// Category is a stream category the platform accepts at live creation.
type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
