package ports

import (
	"livedock/internal/core/domain"
)

// SettingsStore is the persistence port for credentials, settings, and
// cached reference documents. Implementations must be safe for concurrent
// use from multiple goroutines: reads may run concurrently with each other
// but never with a write, and a write is atomic with respect to readers.
//
// Storage failures are surfaced as errors but must never be fatal; readers
// fall back to the last in-memory value where one exists.
type SettingsStore interface {
	// Initialize prepares the backing storage. It is idempotent: the
	// second and later calls are no-ops returning nil.
	Initialize() error

	Credential() domain.Credential
	SetCredential(c domain.Credential) error
	ClearCredential() error

	Settings() domain.Settings
	SetDockVisible(visible bool) error
	SetDockLayout(layout string) error
	SetStreamEndpoint(endpoint, key string) error
	SetUseWHIP(useWHIP bool) error

	PlatformConfig() domain.PlatformConfig
	SetPlatformConfig(cfg domain.PlatformConfig) error

	SessionRecords() []domain.SessionRecord
	SaveSessionRecord(r domain.SessionRecord) error
	RemoveSessionRecord(id string) error

	GiftCatalog() domain.GiftCatalog
	SetGiftCatalog(cat domain.GiftCatalog) error
}
