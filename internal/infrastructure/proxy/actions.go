package proxy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"livedock/internal/core/ports"
	"livedock/internal/infrastructure/monitoring"

	"github.com/gin-gonic/gin"
)

// paramError marks a missing or invalid request parameter; its message is
// returned verbatim instead of the client's last-error string.
type paramError struct {
	msg string
}

func (e *paramError) Error() string { return e.msg }

const defaultRockZoneCount = 20

// actionRequest is the JSON envelope the panel posts to /lapi. Parameters
// beyond the action are flat fields; unknown fields are ignored.
type actionRequest struct {
	Action    string          `json:"action"`
	RoomID    string          `json:"room_id"`
	UserID    string          `json:"user_id"`
	EventType string          `json:"event_type"`
	Payload   json.RawMessage `json:"payload"`
	Count     int             `json:"count"`
}

type actionFunc func(ctx context.Context, req actionRequest) (gin.H, error)

// dispatcher maps allow-listed actions to client operations. The map is
// the security boundary: there is no generic pass-through, and nothing
// here can mutate the session lifecycle or read the credential. Every
// dispatchable action is a read-only lookup, a room-scoped token
// issuance, or a low-privilege social write, so a replay from another
// local process cannot escalate beyond what the panel itself may do.
type dispatcher struct {
	client  ports.PlatformClient
	actions map[string]actionFunc
	metrics *monitoring.Collector
}

func newDispatcher(client ports.PlatformClient, metrics *monitoring.Collector) *dispatcher {
	d := &dispatcher{
		client:  client,
		metrics: metrics,
	}
	d.actions = map[string]actionFunc{
		"get_messaging_token": d.getMessagingToken,
		"get_gift_catalog":    d.getGiftCatalog,
		"get_room_info":       d.getRoomInfo,
		"get_rock_zone":       d.getRockZone,
		"poke":                d.poke,
		"send_custom_event":   d.sendCustomEvent,
	}
	return d
}

// handleLAPI implements the action-proxy endpoint. All action-level
// failures answer 200 with success=false so the panel treats every
// response uniformly.
func (s *Server) handleLAPI(c *gin.Context) {
	start := time.Now()

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		s.respondError(c, "", fmt.Sprintf("Invalid JSON: %v", err))
		return
	}

	var req actionRequest
	if err := json.Unmarshal(body, &req); err != nil {
		s.respondError(c, "", fmt.Sprintf("Invalid JSON: %v", err))
		return
	}

	if req.Action == "" {
		s.respondError(c, "", "Missing 'action' parameter")
		return
	}

	handler, ok := s.actions.actions[req.Action]
	if !ok {
		s.respondError(c, req.Action, fmt.Sprintf("Unsupported action: %s", req.Action))
		return
	}

	result, err := handler(c.Request.Context(), req)
	if err != nil {
		var pErr *paramError
		msg := s.actions.client.LastError()
		if errors.As(err, &pErr) || msg == "" {
			msg = err.Error()
		}
		s.respondError(c, req.Action, msg)
		return
	}

	if s.metrics != nil {
		s.metrics.RecordProxyAction(req.Action, true)
		s.metrics.ObserveProxyLatency(time.Since(start).Seconds())
	}
	result["success"] = true
	c.JSON(http.StatusOK, result)
}

func (s *Server) respondError(c *gin.Context, action, message string) {
	if s.metrics != nil && action != "" {
		s.metrics.RecordProxyAction(action, false)
	}
	c.JSON(http.StatusOK, gin.H{
		"success": false,
		"error":   message,
	})
}

func (d *dispatcher) getMessagingToken(ctx context.Context, _ actionRequest) (gin.H, error) {
	token, err := d.client.MessagingToken(ctx)
	if err != nil {
		return nil, err
	}
	return gin.H{"token": token}, nil
}

func (d *dispatcher) getGiftCatalog(ctx context.Context, _ actionRequest) (gin.H, error) {
	cat, err := d.client.GiftCatalog(ctx)
	if err != nil {
		return nil, err
	}
	return gin.H{"version": cat.Version, "gifts": cat.Gifts}, nil
}

func (d *dispatcher) getRoomInfo(ctx context.Context, req actionRequest) (gin.H, error) {
	info, err := d.client.RoomInfo(ctx, req.RoomID)
	if err != nil {
		return nil, err
	}
	return gin.H{"room": info}, nil
}

func (d *dispatcher) getRockZone(ctx context.Context, req actionRequest) (gin.H, error) {
	count := req.Count
	if count <= 0 {
		count = defaultRockZoneCount
	}
	viewers, err := d.client.RockZoneViewers(ctx, count)
	if err != nil {
		return nil, err
	}
	return gin.H{"viewers": viewers}, nil
}

func (d *dispatcher) poke(ctx context.Context, req actionRequest) (gin.H, error) {
	if req.UserID == "" {
		return nil, &paramError{msg: "Missing 'user_id' parameter"}
	}
	if err := d.client.Poke(ctx, req.UserID); err != nil {
		return nil, err
	}
	return gin.H{}, nil
}

func (d *dispatcher) sendCustomEvent(ctx context.Context, req actionRequest) (gin.H, error) {
	if req.EventType == "" {
		return nil, &paramError{msg: "Missing 'event_type' parameter"}
	}
	if err := d.client.SendCustomEvent(ctx, req.EventType, req.Payload); err != nil {
		return nil, err
	}
	return gin.H{}, nil
}
