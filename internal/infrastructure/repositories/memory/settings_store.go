package memory

import (
	"sort"
	"sync"
	"time"

	"livedock/internal/core/domain"
	"livedock/internal/core/ports"
)

// SettingsStore is an in-memory SettingsStore. It keeps the same locking
// discipline as the file-backed store but persists nothing; used in tests
// and for ephemeral runs without a data directory.
type SettingsStore struct {
	mu sync.RWMutex

	settings       domain.Settings
	platformConfig domain.PlatformConfig
	records        []domain.SessionRecord
	gifts          domain.GiftCatalog
}

var _ ports.SettingsStore = (*SettingsStore)(nil)

func NewSettingsStore() *SettingsStore {
	return &SettingsStore{}
}

func (s *SettingsStore) Initialize() error {
	return nil
}

func (s *SettingsStore) Credential() domain.Credential {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings.Credential
}

func (s *SettingsStore) SetCredential(c domain.Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings.Credential = c
	return nil
}

func (s *SettingsStore) ClearCredential() error {
	return s.SetCredential(domain.Credential{})
}

func (s *SettingsStore) Settings() domain.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

func (s *SettingsStore) SetDockVisible(visible bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings.DockVisible = visible
	return nil
}

func (s *SettingsStore) SetDockLayout(layout string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings.DockLayout = layout
	return nil
}

func (s *SettingsStore) SetStreamEndpoint(endpoint, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings.LastEndpoint = endpoint
	s.settings.LastKey = key
	return nil
}

func (s *SettingsStore) SetUseWHIP(useWHIP bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings.UseWHIP = useWHIP
	return nil
}

func (s *SettingsStore) PlatformConfig() domain.PlatformConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.platformConfig
}

func (s *SettingsStore) SetPlatformConfig(cfg domain.PlatformConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.platformConfig = cfg
	return nil
}

func (s *SettingsStore) SessionRecords() []domain.SessionRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.SessionRecord, len(s.records))
	copy(out, s.records)
	return out
}

func (s *SettingsStore) SaveSessionRecord(r domain.SessionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.records {
		if s.records[i].ID == r.ID {
			r.SavedAt = s.records[i].SavedAt
			s.records[i] = r
			return nil
		}
	}

	if r.SavedAt.IsZero() {
		r.SavedAt = time.Now()
	}
	s.records = append(s.records, r)

	if len(s.records) > domain.MaxSessionRecords {
		sort.SliceStable(s.records, func(i, j int) bool {
			return s.records[i].SavedAt.Before(s.records[j].SavedAt)
		})
		s.records = s.records[len(s.records)-domain.MaxSessionRecords:]
	}
	return nil
}

func (s *SettingsStore) RemoveSessionRecord(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.records {
		if s.records[i].ID == id {
			s.records = append(s.records[:i], s.records[i+1:]...)
			return nil
		}
	}
	return domain.ErrRecordNotFound
}

func (s *SettingsStore) GiftCatalog() domain.GiftCatalog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.gifts
}

func (s *SettingsStore) SetGiftCatalog(cat domain.GiftCatalog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gifts = cat
	return nil
}
