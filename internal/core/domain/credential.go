package domain

// Credential is the bearer token and identity of an authenticated
// broadcaster session. The zero value is the logged-out state.
type Credential struct {
	Token    string `json:"token"`
	UserID   string `json:"user_id"`
	Nickname string `json:"nickname"`
	RoomID   string `json:"room_id"`
	Region   string `json:"region"`
}

// IsValid reports whether the credential can authenticate a request.
func (c Credential) IsValid() bool {
	return c.Token != ""
}

// Settings is the key/value settings document persisted for the dock.
// The credential lives here; nothing else writes it durably.
type Settings struct {
	Credential   Credential `json:"credential"`
	DeviceID     string     `json:"device_id"`
	DockVisible  bool       `json:"dock_visible"`
	DockLayout   string     `json:"dock_layout"`
	LastEndpoint string     `json:"last_endpoint"`
	LastKey      string     `json:"last_key"`
	UseWHIP      bool       `json:"use_whip"`
}

// UserProfile is the public identity of the authenticated user.
type UserProfile struct {
	UserID    string `json:"user_id"`
	Nickname  string `json:"nickname"`
	AvatarURL string `json:"avatar_url"`
	Level     int    `json:"level"`
	RoomID    string `json:"room_id"`
}
