package ports

import (
	"context"
	"encoding/json"

	"livedock/internal/core/domain"
)

// PlatformClient is the authenticated cloud API port. Every operation
// except Login requires a stored credential and fails fast without one,
// before any network I/O. On HTTP 401 the implementation renews the
// credential once and replays the request once; it never retries beyond
// that. LastError always describes the most recent failure in a form
// suitable for display.
type PlatformClient interface {
	Login(ctx context.Context, username, password string) (domain.UserProfile, error)
	Logout(ctx context.Context) error
	RenewCredential(ctx context.Context) error

	FetchPlatformConfig(ctx context.Context) (domain.PlatformConfig, error)
	UserProfile(ctx context.Context) (domain.UserProfile, error)

	RoomInfo(ctx context.Context, roomID string) (domain.RoomInfo, error)
	UpdateRoomInfo(ctx context.Context, title, announcement string) error

	CreateLive(ctx context.Context, title, categoryID string, tags []string) (string, error)
	StartStream(ctx context.Context) (domain.StreamEndpoint, error)
	StopStream(ctx context.Context) error
	CheckStreamAlive(ctx context.Context) (bool, error)
	SetArchiveEnabled(ctx context.Context, enabled bool) error
	IssueRTMP(ctx context.Context) (domain.StreamEndpoint, error)
	IssueWHIP(ctx context.Context) (domain.StreamEndpoint, error)

	MessagingToken(ctx context.Context) (string, error)
	GiftCatalog(ctx context.Context) (domain.GiftCatalog, error)
	RockZoneViewers(ctx context.Context, count int) ([]domain.RockZoneViewer, error)
	Poke(ctx context.Context, userID string) error
	SendCustomEvent(ctx context.Context, eventType string, payload json.RawMessage) error
	Categories(ctx context.Context) ([]domain.Category, error)
	Gateway(ctx context.Context, action string, params map[string]string) (json.RawMessage, error)

	LastError() string
}
