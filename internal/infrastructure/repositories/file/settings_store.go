package file

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"livedock/internal/core/domain"
	"livedock/internal/core/ports"
	apperrors "livedock/pkg/errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	settingsFile       = "settings.json"
	platformConfigFile = "platform_config.json"
	sessionsFile       = "sessions.json"
	giftsFile          = "gifts.json"
)

// SettingsStore persists settings and cached documents as JSON files in a
// per-user data directory. Every document is load-all/save-all: a mutation
// rewrites the whole file under the writer lock, so concurrent readers
// never observe a partial write. Mutations before Initialize fail with
// domain.ErrNotInitialized. Only one process is expected to hold the
// directory open at a time; there is no cross-process locking.
type SettingsStore struct {
	dir    string
	logger *zap.Logger

	mu          sync.RWMutex
	initialized bool

	settings       domain.Settings
	platformConfig domain.PlatformConfig
	records        []domain.SessionRecord
	gifts          domain.GiftCatalog
}

var _ ports.SettingsStore = (*SettingsStore)(nil)

// NewSettingsStore creates a store rooted at dir. Initialize must be
// called before use.
func NewSettingsStore(dir string, logger *zap.Logger) *SettingsStore {
	return &SettingsStore{
		dir:    dir,
		logger: logger,
	}
}

// Initialize creates the data directory and loads any existing documents.
// Idempotent: later calls return nil without touching the filesystem.
// Missing or unreadable documents are not fatal; the in-memory zero value
// stands in, and parse failures are logged and skipped.
func (s *SettingsStore) Initialize() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.initialized {
		return nil
	}

	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return apperrors.NewStorageError(fmt.Sprintf("cannot create data directory %s", s.dir), err)
	}

	s.loadDoc(settingsFile, &s.settings)
	s.loadDoc(platformConfigFile, &s.platformConfig)
	s.loadDoc(sessionsFile, &s.records)
	s.loadDoc(giftsFile, &s.gifts)

	if s.settings.DeviceID == "" {
		s.settings.DeviceID = uuid.NewString()
		if err := s.writeDoc(settingsFile, s.settings); err != nil {
			return err
		}
	}

	s.initialized = true
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

	if !s.initialized {
		return domain.ErrNotInitialized
	}

	prev := s.settings.Credential
	s.settings.Credential = c
	if err := s.writeDoc(settingsFile, s.settings); err != nil {
		s.settings.Credential = prev
		return err
	}
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
	return s.updateSettings(func(st *domain.Settings) {
		st.DockVisible = visible
	})
}

func (s *SettingsStore) SetDockLayout(layout string) error {
	return s.updateSettings(func(st *domain.Settings) {
		st.DockLayout = layout
	})
}

func (s *SettingsStore) SetStreamEndpoint(endpoint, key string) error {
	return s.updateSettings(func(st *domain.Settings) {
		st.LastEndpoint = endpoint
		st.LastKey = key
	})
}

func (s *SettingsStore) SetUseWHIP(useWHIP bool) error {
	return s.updateSettings(func(st *domain.Settings) {
		st.UseWHIP = useWHIP
	})
}

func (s *SettingsStore) updateSettings(mutate func(*domain.Settings)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return domain.ErrNotInitialized
	}

	prev := s.settings
	mutate(&s.settings)
	if err := s.writeDoc(settingsFile, s.settings); err != nil {
		s.settings = prev
		return err
	}
	return nil
}

// PlatformConfig returns the cached configuration document. On first run,
// before any SetPlatformConfig, this is the zero document; the method
// never fails on "not found".
func (s *SettingsStore) PlatformConfig() domain.PlatformConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.platformConfig
}

func (s *SettingsStore) SetPlatformConfig(cfg domain.PlatformConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return domain.ErrNotInitialized
	}

	prev := s.platformConfig
	s.platformConfig = cfg
	if err := s.writeDoc(platformConfigFile, s.platformConfig); err != nil {
		s.platformConfig = prev
		return err
	}
	return nil
}

func (s *SettingsStore) SessionRecords() []domain.SessionRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.SessionRecord, len(s.records))
	copy(out, s.records)
	return out
}

// SaveSessionRecord upserts by record ID. A replaced record keeps its
// original SavedAt so an upsert does not refresh its eviction priority.
// When the list exceeds the cap, the record with the oldest SavedAt is
// evicted.
func (s *SettingsStore) SaveSessionRecord(r domain.SessionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return domain.ErrNotInitialized
	}

	prev := s.records

	records := make([]domain.SessionRecord, len(s.records))
	copy(records, s.records)

	replaced := false
	for i := range records {
		if records[i].ID == r.ID {
			r.SavedAt = records[i].SavedAt
			records[i] = r
			replaced = true
			break
		}
	}
	if !replaced {
		if r.SavedAt.IsZero() {
			r.SavedAt = time.Now()
		}
		records = append(records, r)
	}

	if len(records) > domain.MaxSessionRecords {
		sort.SliceStable(records, func(i, j int) bool {
			return records[i].SavedAt.Before(records[j].SavedAt)
		})
		records = records[len(records)-domain.MaxSessionRecords:]
	}

	s.records = records
	if err := s.writeDoc(sessionsFile, s.records); err != nil {
		s.records = prev
		return err
	}
	return nil
}

func (s *SettingsStore) RemoveSessionRecord(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return domain.ErrNotInitialized
	}

	idx := -1
	for i := range s.records {
		if s.records[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return domain.ErrRecordNotFound
	}

	prev := s.records
	records := make([]domain.SessionRecord, 0, len(s.records)-1)
	records = append(records, s.records[:idx]...)
	records = append(records, s.records[idx+1:]...)

	s.records = records
	if err := s.writeDoc(sessionsFile, s.records); err != nil {
		s.records = prev
		return err
	}
	return nil
}

func (s *SettingsStore) GiftCatalog() domain.GiftCatalog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.gifts
}

func (s *SettingsStore) SetGiftCatalog(cat domain.GiftCatalog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return domain.ErrNotInitialized
	}

	prev := s.gifts
	s.gifts = cat
	if err := s.writeDoc(giftsFile, s.gifts); err != nil {
		s.gifts = prev
		return err
	}
	return nil
}

// loadDoc reads a JSON document into v. Absent or empty files leave v
// untouched (first-run case); malformed files are logged and skipped so a
// corrupted cache never blocks startup. Caller holds the writer lock.
func (s *SettingsStore) loadDoc(name string, v interface{}) {
	path := filepath.Join(s.dir, name)
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("cannot read document", zap.String("file", name), zap.Error(err))
		}
		return
	}
	if len(data) == 0 {
		return
	}
	if err := json.Unmarshal(data, v); err != nil {
		s.logger.Warn("skipping malformed document", zap.String("file", name), zap.Error(err))
	}
}

// writeDoc marshals v and replaces the document via temp file + rename so
// a crash mid-write never leaves a truncated document on disk. Caller
// holds the writer lock.
func (s *SettingsStore) writeDoc(name string, v interface{}) error {
	path := filepath.Join(s.dir, name)

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return apperrors.NewStorageError(fmt.Sprintf("cannot encode %s", name), err)
	}

	tmp, err := os.CreateTemp(s.dir, name+".tmp-*")
	if err != nil {
		s.logger.Error("cannot create temp file", zap.String("file", name), zap.Error(err))
		return apperrors.NewStorageError(fmt.Sprintf("cannot write %s", name), err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		s.logger.Error("cannot write document", zap.String("file", name), zap.Error(err))
		return apperrors.NewStorageError(fmt.Sprintf("cannot write %s", name), err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return apperrors.NewStorageError(fmt.Sprintf("cannot flush %s", name), err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return apperrors.NewStorageError(fmt.Sprintf("cannot close %s", name), err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		s.logger.Error("cannot replace document", zap.String("file", name), zap.Error(err))
		return apperrors.NewStorageError(fmt.Sprintf("cannot replace %s", name), err)
	}
	return nil
}
