package domain

import "time"

// SessionState is the streaming lifecycle state. Transitions go only
// through the stream lifecycle calls: create, start, stop.
type SessionState int

const (
	StateNotStarted SessionState = iota
	StateLiveCreated
	StateStreaming
)

func (s SessionState) String() string {
	switch s {
	case StateLiveCreated:
		return "live_created"
	case StateStreaming:
		return "streaming"
	default:
		return "not_started"
	}
}

// StreamSession is the single active streaming session of the process.
type StreamSession struct {
	State     SessionState `json:"state"`
	LiveID    string       `json:"live_id"`
	Title     string       `json:"title"`
	RTMPURL   string       `json:"rtmp_url"`
	StreamKey string       `json:"stream_key"`
	WHIPURL   string       `json:"whip_url"`
	WHIPToken string       `json:"whip_token"`
	StartedAt time.Time    `json:"started_at"`
}

// StreamEndpoint is an ingest endpoint issued by the platform.
type StreamEndpoint struct {
	URL   string `json:"url"`
	Key   string `json:"key"`
	Token string `json:"token,omitempty"`
}
