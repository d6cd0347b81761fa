package domain

// RoomInfo is the broadcaster's room as the platform reports it.
type RoomInfo struct {
	RoomID       string `json:"room_id"`
	Title        string `json:"title"`
	Online       int    `json:"online"`
	Attention    int    `json:"attention"`
	CoverURL     string `json:"cover_url"`
	Announcement string `json:"announcement"`
	Live         bool   `json:"live"`
}

// RockZoneViewer is one entry of the room's rock-zone viewer list.
type RockZoneViewer struct {
	UserID    string `json:"user_id"`
	Nickname  string `json:"nickname"`
	AvatarURL string `json:"avatar_url"`
	Score     int    `json:"score"`
}
