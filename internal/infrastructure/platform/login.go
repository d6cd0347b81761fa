package platform

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"net/http"

	"livedock/internal/core/domain"
	apperrors "livedock/pkg/errors"
	"livedock/pkg/validation"

	"go.uber.org/zap"
)

// loginOuter is the outer login response document. The platform embeds the
// actual result as a JSON document string-encoded inside the envelope, so
// decoding is an explicit two-stage step: outer envelope, then inner
// document.
type loginOuter struct {
	Result string `json:"result"`
}

type loginInner struct {
	Token     string `json:"token"`
	UserID    string `json:"user_id"`
	Nickname  string `json:"nickname"`
	RoomID    string `json:"room_id"`
	Region    string `json:"region"`
	AvatarURL string `json:"avatar_url"`
	Level     int    `json:"level"`
}

// Login authenticates with the platform. The password is hashed before
// transmission and never sent in clear text. On success the credential is
// stored for all subsequent calls in the process.
func (c *Client) Login(ctx context.Context, username, password string) (domain.UserProfile, error) {
	if err := validation.ValidateUsername(username); err != nil {
		return domain.UserProfile{}, c.fail("login", apperrors.NewApplicationError(0, err.Error()))
	}
	if err := validation.ValidatePassword(password); err != nil {
		return domain.UserProfile{}, c.fail("login", apperrors.NewApplicationError(0, err.Error()))
	}

	data, err := c.do(ctx, request{
		operation: "login",
		method:    http.MethodPost,
		path:      "/v1/user/login",
		jsonBody: map[string]string{
			"username":      username,
			"password_hash": hashPassword(password),
		},
		noAuth: true,
	})
	if err != nil {
		return domain.UserProfile{}, err
	}

	var outer loginOuter
	if err := decode(data, &outer); err != nil {
		return domain.UserProfile{}, c.fail("login", err)
	}

	var inner loginInner
	if err := json.Unmarshal([]byte(outer.Result), &inner); err != nil {
		return domain.UserProfile{}, c.fail("login",
			apperrors.NewParseError("malformed login result document", err))
	}

	if inner.Token == "" {
		return domain.UserProfile{}, c.fail("login",
			apperrors.NewApplicationError(0, "login succeeded but no access credential was returned"))
	}

	cred := domain.Credential{
		Token:    inner.Token,
		UserID:   inner.UserID,
		Nickname: inner.Nickname,
		RoomID:   inner.RoomID,
		Region:   inner.Region,
	}
	if err := c.store.SetCredential(cred); err != nil {
		return domain.UserProfile{}, c.fail("login", err)
	}

	c.logger.Info("logged in",
		zap.String("user_id", inner.UserID),
		zap.String("room_id", inner.RoomID),
	)

	return domain.UserProfile{
		UserID:    inner.UserID,
		Nickname:  inner.Nickname,
		AvatarURL: inner.AvatarURL,
		Level:     inner.Level,
		RoomID:    inner.RoomID,
	}, nil
}

// Logout invalidates the session remotely on a best-effort basis and
// always clears the stored credential. A remote failure is logged, not
// surfaced; the local clear is what logs the user out.
func (c *Client) Logout(ctx context.Context) error {
	if c.store.Credential().IsValid() {
		if _, err := c.do(ctx, request{
			operation: "logout",
			method:    http.MethodPost,
			path:      "/v1/user/logout",
			noRenew:   true,
		}); err != nil {
			c.logger.Warn("remote logout failed, clearing local credential anyway", zap.Error(err))
		}
	}
	return c.store.ClearCredential()
}

// hashPassword computes the wire form of the password. This is a wire
// format the login endpoint verifies against, not a storage format;
// nothing password-derived is persisted.
func hashPassword(password string) string {
	sum := md5.Sum([]byte(password))
	return hex.EncodeToString(sum[:])
}
