package platform

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"livedock/internal/core/domain"
	apperrors "livedock/pkg/errors"

	"github.com/google/uuid"
)

// RenewCredential exchanges the current bearer token for a fresh one.
// This is the 401 recovery path; it never triggers a renewal of its own.
// With no credential stored it fails immediately without a network call.
func (c *Client) RenewCredential(ctx context.Context) error {
	data, err := c.do(ctx, request{
		operation: "renew_credential",
		method:    http.MethodPost,
		path:      "/v1/auth/renew",
		noRenew:   true,
	})
	if err != nil {
		return err
	}

	var result struct {
		Token string `json:"token"`
	}
	if err := decode(data, &result); err != nil {
		return c.fail("renew_credential", err)
	}
	if result.Token == "" {
		return c.fail("renew_credential",
			apperrors.NewApplicationError(0, "renewal returned an empty token"))
	}

	cred := c.store.Credential()
	cred.Token = result.Token
	if err := c.store.SetCredential(cred); err != nil {
		return c.fail("renew_credential", err)
	}
	return nil
}

// FetchPlatformConfig retrieves the platform configuration document and
// caches it in the settings store. A cache write failure is logged inside
// the store and does not fail the fetch; the in-memory copy still updates.
func (c *Client) FetchPlatformConfig(ctx context.Context) (domain.PlatformConfig, error) {
	data, err := c.do(ctx, request{
		operation: "fetch_platform_config",
		method:    http.MethodGet,
		path:      "/v1/config",
	})
	if err != nil {
		return domain.PlatformConfig{}, err
	}

	var cfg domain.PlatformConfig
	if err := decode(data, &cfg); err != nil {
		return domain.PlatformConfig{}, c.fail("fetch_platform_config", err)
	}

	_ = c.store.SetPlatformConfig(cfg)
	return cfg, nil
}

func (c *Client) UserProfile(ctx context.Context) (domain.UserProfile, error) {
	data, err := c.do(ctx, request{
		operation: "user_profile",
		method:    http.MethodGet,
		path:      "/v1/user/profile",
	})
	if err != nil {
		return domain.UserProfile{}, err
	}

	var profile domain.UserProfile
	if err := decode(data, &profile); err != nil {
		return domain.UserProfile{}, c.fail("user_profile", err)
	}
	return profile, nil
}

// RoomInfo fetches a room. An empty roomID resolves to the authenticated
// user's own room.
func (c *Client) RoomInfo(ctx context.Context, roomID string) (domain.RoomInfo, error) {
	if roomID == "" {
		roomID = c.store.Credential().RoomID
	}
	data, err := c.do(ctx, request{
		operation: "room_info",
		method:    http.MethodGet,
		path:      "/v1/room/" + url.PathEscape(roomID),
	})
	if err != nil {
		return domain.RoomInfo{}, err
	}

	var info domain.RoomInfo
	if err := decode(data, &info); err != nil {
		return domain.RoomInfo{}, c.fail("room_info", err)
	}
	return info, nil
}

func (c *Client) UpdateRoomInfo(ctx context.Context, title, announcement string) error {
	_, err := c.do(ctx, request{
		operation: "update_room_info",
		method:    http.MethodPut,
		path:      "/v1/room/info",
		jsonBody: map[string]string{
			"title":        title,
			"announcement": announcement,
		},
	})
	return err
}

// CreateLive creates a live session and returns its live ID. The session
// is created, not yet streaming; StartStream begins ingestion.
func (c *Client) CreateLive(ctx context.Context, title, categoryID string, tags []string) (string, error) {
	data, err := c.do(ctx, request{
		operation: "create_live",
		method:    http.MethodPost,
		path:      "/v1/live/create",
		jsonBody: map[string]interface{}{
			"title":       title,
			"category_id": categoryID,
			"tags":        tags,
		},
	})
	if err != nil {
		return "", err
	}

	var result struct {
		LiveID string `json:"live_id"`
	}
	if err := decode(data, &result); err != nil {
		return "", c.fail("create_live", err)
	}
	return result.LiveID, nil
}

func (c *Client) StartStream(ctx context.Context) (domain.StreamEndpoint, error) {
	data, err := c.do(ctx, request{
		operation: "start_stream",
		method:    http.MethodPost,
		path:      "/v1/live/start",
	})
	if err != nil {
		return domain.StreamEndpoint{}, err
	}

	var ep domain.StreamEndpoint
	if err := decode(data, &ep); err != nil {
		return domain.StreamEndpoint{}, c.fail("start_stream", err)
	}
	return ep, nil
}

func (c *Client) StopStream(ctx context.Context) error {
	_, err := c.do(ctx, request{
		operation: "stop_stream",
		method:    http.MethodPost,
		path:      "/v1/live/stop",
	})
	return err
}

func (c *Client) CheckStreamAlive(ctx context.Context) (bool, error) {
	data, err := c.do(ctx, request{
		operation: "check_stream_alive",
		method:    http.MethodGet,
		path:      "/v1/live/alive",
	})
	if err != nil {
		return false, err
	}

	var result struct {
		Alive bool `json:"alive"`
	}
	if err := decode(data, &result); err != nil {
		return false, c.fail("check_stream_alive", err)
	}
	return result.Alive, nil
}

func (c *Client) SetArchiveEnabled(ctx context.Context, enabled bool) error {
	_, err := c.do(ctx, request{
		operation: "set_archive_enabled",
		method:    http.MethodPost,
		path:      "/v1/live/archive",
		jsonBody:  map[string]bool{"enabled": enabled},
	})
	return err
}

func (c *Client) IssueRTMP(ctx context.Context) (domain.StreamEndpoint, error) {
	return c.issueEndpoint(ctx, "issue_rtmp", "/v1/live/rtmp")
}

func (c *Client) IssueWHIP(ctx context.Context) (domain.StreamEndpoint, error) {
	return c.issueEndpoint(ctx, "issue_whip", "/v1/live/whip")
}

func (c *Client) issueEndpoint(ctx context.Context, operation, path string) (domain.StreamEndpoint, error) {
	data, err := c.do(ctx, request{
		operation: operation,
		method:    http.MethodPost,
		path:      path,
	})
	if err != nil {
		return domain.StreamEndpoint{}, err
	}

	var ep domain.StreamEndpoint
	if err := decode(data, &ep); err != nil {
		return domain.StreamEndpoint{}, c.fail(operation, err)
	}
	return ep, nil
}

// MessagingToken issues the chat token for the embedded panel. The token
// is scoped to the current room; it is the only token allowed to cross the
// local proxy surface.
func (c *Client) MessagingToken(ctx context.Context) (string, error) {
	data, err := c.do(ctx, request{
		operation: "messaging_token",
		method:    http.MethodPost,
		path:      "/v1/im/token",
	})
	if err != nil {
		return "", err
	}

	var result struct {
		Token string `json:"token"`
	}
	if err := decode(data, &result); err != nil {
		return "", c.fail("messaging_token", err)
	}
	if result.Token == "" {
		return "", c.fail("messaging_token",
			apperrors.NewApplicationError(0, "messaging token is empty"))
	}
	return result.Token, nil
}

// GiftCatalog fetches the gift list and caches it in the settings store.
func (c *Client) GiftCatalog(ctx context.Context) (domain.GiftCatalog, error) {
	data, err := c.do(ctx, request{
		operation: "gift_catalog",
		method:    http.MethodGet,
		path:      "/v1/gift/list",
		headers:   c.regionHeaders(),
	})
	if err != nil {
		return domain.GiftCatalog{}, err
	}

	var cat domain.GiftCatalog
	if err := decode(data, &cat); err != nil {
		return domain.GiftCatalog{}, c.fail("gift_catalog", err)
	}

	_ = c.store.SetGiftCatalog(cat)
	return cat, nil
}

func (c *Client) RockZoneViewers(ctx context.Context, count int) ([]domain.RockZoneViewer, error) {
	query := url.Values{}
	if count > 0 {
		query.Set("count", strconv.Itoa(count))
	}

	data, err := c.do(ctx, request{
		operation: "rock_zone_viewers",
		method:    http.MethodGet,
		path:      "/v1/room/rockzone",
		query:     query,
	})
	if err != nil {
		return nil, err
	}

	var result struct {
		Viewers []domain.RockZoneViewer `json:"viewers"`
	}
	if err := decode(data, &result); err != nil {
		return nil, c.fail("rock_zone_viewers", err)
	}
	return result.Viewers, nil
}

func (c *Client) Poke(ctx context.Context, userID string) error {
	_, err := c.do(ctx, request{
		operation: "poke",
		method:    http.MethodPost,
		path:      "/v1/user/poke",
		jsonBody:  map[string]string{"user_id": userID},
	})
	return err
}

func (c *Client) SendCustomEvent(ctx context.Context, eventType string, payload json.RawMessage) error {
	_, err := c.do(ctx, request{
		operation: "send_custom_event",
		method:    http.MethodPost,
		path:      "/v1/room/event",
		jsonBody: map[string]interface{}{
			"type":    eventType,
			"payload": payload,
		},
	})
	return err
}

func (c *Client) Categories(ctx context.Context) ([]domain.Category, error) {
	data, err := c.do(ctx, request{
		operation: "categories",
		method:    http.MethodGet,
		path:      "/v1/live/categories",
		headers:   c.regionHeaders(),
	})
	if err != nil {
		return nil, err
	}

	var result struct {
		Categories []domain.Category `json:"categories"`
	}
	if err := decode(data, &result); err != nil {
		return nil, c.fail("categories", err)
	}
	return result.Categories, nil
}

// Gateway calls the generic gateway endpoint: a uuid nonce plus an action,
// form-encoded, returning the raw result document.
func (c *Client) Gateway(ctx context.Context, action string, params map[string]string) (json.RawMessage, error) {
	form := url.Values{}
	form.Set("nonce", uuid.NewString())
	form.Set("action", action)
	for k, v := range params {
		form.Set(k, v)
	}

	return c.do(ctx, request{
		operation: "gateway",
		method:    http.MethodPost,
		path:      "/v1/gateway",
		formBody:  form,
	})
}

// regionHeaders carries the region/language headers localized endpoints
// expect; empty when no credential is stored.
func (c *Client) regionHeaders() map[string]string {
	region := c.store.Credential().Region
	if region == "" {
		return nil
	}
	return map[string]string{"X-Region": region}
}
