package proxy

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"livedock/internal/core/domain"
	"livedock/internal/infrastructure/platform"
	"livedock/internal/infrastructure/repositories/memory"
	apperrors "livedock/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func okEnvelope(data string) string {
	return fmt.Sprintf(`{"code":0,"message":"","data":%s}`, data)
}

// newTestServer wires a real platform client against the given upstream
// handler and returns the proxy server plus its backing store. A nil
// upstream means the client has nowhere to go; suitable for tests that
// never reach the network.
func newTestServer(t *testing.T, upstream http.HandlerFunc, loggedIn bool) (*Server, *memory.SettingsStore) {
	t.Helper()

	baseURL := "http://127.0.0.1:1" // unroutable
	if upstream != nil {
		up := httptest.NewServer(upstream)
		t.Cleanup(up.Close)
		baseURL = up.URL
	}

	store := memory.NewSettingsStore()
	if loggedIn {
		require.NoError(t, store.SetCredential(domain.Credential{
			Token:  "secret-bearer-token",
			UserID: "u-1",
			RoomID: "r-1",
		}))
	}

	client := platform.NewClient(baseURL, store, platform.DefaultIdentification("1.0.0-test"), nil, zap.NewNop())

	assetRoot := t.TempDir()
	srv := NewServer("127.0.0.1:0", assetRoot, client, Options{}, zap.NewNop())
	return srv, store
}

func postLAPI(t *testing.T, srv *Server, body string) (int, map[string]interface{}) {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/lapi", strings.NewReader(body))
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &doc), "body: %s", w.Body.String())
	return w.Code, doc
}

func TestPing(t *testing.T) {
	srv, _ := newTestServer(t, nil, false)

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "PONG", w.Body.String())
}

func TestLAPI_InvalidJSON(t *testing.T) {
	srv, _ := newTestServer(t, nil, false)

	status, doc := postLAPI(t, srv, "not json")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, false, doc["success"])
	assert.True(t, strings.HasPrefix(doc["error"].(string), "Invalid JSON: "),
		"got %q", doc["error"])
}

func TestLAPI_MissingAction(t *testing.T) {
	srv, _ := newTestServer(t, nil, false)

	status, doc := postLAPI(t, srv, `{"room_id":"r-1"}`)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, false, doc["success"])
	assert.Equal(t, "Missing 'action' parameter", doc["error"])
}

func TestLAPI_UnsupportedAction(t *testing.T) {
	srv, _ := newTestServer(t, nil, false)

	status, doc := postLAPI(t, srv, `{"action":"start_stream"}`)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, false, doc["success"])
	assert.Equal(t, "Unsupported action: start_stream", doc["error"])
}

func TestLAPI_NotLoggedIn(t *testing.T) {
	srv, _ := newTestServer(t, nil, false)

	status, doc := postLAPI(t, srv, `{"action":"get_messaging_token"}`)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, false, doc["success"])
	assert.Equal(t, "not logged in", doc["error"])
}

func TestLAPI_MessagingToken(t *testing.T) {
	srv, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/im/token", r.URL.Path)
		fmt.Fprint(w, okEnvelope(`{"token":"im-token-abc"}`))
	}, true)

	status, doc := postLAPI(t, srv, `{"action":"get_messaging_token"}`)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, doc["success"])
	assert.Equal(t, "im-token-abc", doc["token"])
}

func TestLAPI_NeverLeaksCredential(t *testing.T) {
	srv, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, okEnvelope(`{"room":{"room_id":"r-1","title":"hello"}}`))
	}, true)

	req := httptest.NewRequest(http.MethodPost, "/lapi", strings.NewReader(`{"action":"get_room_info"}`))
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	assert.NotContains(t, w.Body.String(), "secret-bearer-token")
}

func TestLAPI_ApplicationErrorMessage(t *testing.T) {
	srv, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"code":1002,"message":"room does not exist"}`)
	}, true)

	status, doc := postLAPI(t, srv, `{"action":"get_room_info","room_id":"gone"}`)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, false, doc["success"])
	assert.Equal(t, "[1002] room does not exist", doc["error"])
}

func TestLAPI_PokeRequiresUserID(t *testing.T) {
	srv, _ := newTestServer(t, nil, true)

	status, doc := postLAPI(t, srv, `{"action":"poke"}`)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, false, doc["success"])
	assert.Equal(t, "Missing 'user_id' parameter", doc["error"])
}

func TestLAPI_SendCustomEventRequiresType(t *testing.T) {
	srv, _ := newTestServer(t, nil, true)

	_, doc := postLAPI(t, srv, `{"action":"send_custom_event","payload":{"x":1}}`)
	assert.Equal(t, false, doc["success"])
	assert.Equal(t, "Missing 'event_type' parameter", doc["error"])
}

func TestLAPI_RockZoneDefaultCount(t *testing.T) {
	srv, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "20", r.URL.Query().Get("count"))
		fmt.Fprint(w, okEnvelope(`{"viewers":[{"user_id":"u-2","nickname":"viewer"}]}`))
	}, true)

	_, doc := postLAPI(t, srv, `{"action":"get_rock_zone"}`)
	assert.Equal(t, true, doc["success"])
	viewers := doc["viewers"].([]interface{})
	assert.Len(t, viewers, 1)
}

func TestStatic_MIMEAndIndex(t *testing.T) {
	srv, _ := newTestServer(t, nil, false)

	require.NoError(t, os.WriteFile(filepath.Join(srv.assetRoot, "index.html"), []byte("<html>dock</html>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(srv.assetRoot, "logo.svg"), []byte("<svg/>"), 0o644))

	req := httptest.NewRequest(http.MethodGet, "/logo.svg", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/svg+xml", w.Header().Get("Content-Type"))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	w = httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "<html>dock</html>", w.Body.String())
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
}

func TestStatic_NotFound(t *testing.T) {
	srv, _ := newTestServer(t, nil, false)

	req := httptest.NewRequest(http.MethodGet, "/missing.js", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "404 not found")
}

func TestStatic_TraversalRejected(t *testing.T) {
	srv, _ := newTestServer(t, nil, false)

	req := httptest.NewRequest(http.MethodGet, "/../../etc/passwd", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStartStop(t *testing.T) {
	srv, _ := newTestServer(t, nil, false)

	require.NoError(t, srv.Start())
	port := srv.Port()
	require.NotZero(t, port)

	resp, err := http.Get(fmt.Sprintf("http://127.0.0.1:%d/ping", port))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, srv.Stop())
	require.NoError(t, srv.Stop(), "Stop must be idempotent")
}

func TestStop_WaitsForInFlightRequest(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})

	srv, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		close(entered)
		<-release
		fmt.Fprint(w, okEnvelope(`{"token":"im-token-abc"}`))
	}, true)

	require.NoError(t, srv.Start())
	t.Cleanup(func() { srv.Stop() })

	var requestDone atomic.Bool
	go func() {
		resp, err := http.Post(
			fmt.Sprintf("http://127.0.0.1:%d/lapi", srv.Port()),
			"application/json",
			strings.NewReader(`{"action":"get_messaging_token"}`),
		)
		if err == nil {
			resp.Body.Close()
		}
		requestDone.Store(true)
	}()

	select {
	case <-entered:
	case <-time.After(2 * time.Second):
		t.Fatal("request never reached the upstream")
	}

	stopDone := make(chan struct{})
	go func() {
		assert.NoError(t, srv.Stop())
		close(stopDone)
	}()

	select {
	case <-stopDone:
		t.Fatal("Stop returned while a request was still in flight")
	case <-time.After(100 * time.Millisecond):
	}

	close(release)

	select {
	case <-stopDone:
	case <-time.After(3 * time.Second):
		t.Fatal("Stop did not return after the request finished")
	}
	assert.Eventually(t, requestDone.Load, 2*time.Second, 5*time.Millisecond,
		"the in-flight request must complete, not be cut off")
}

func TestStart_MissingAssetRoot(t *testing.T) {
	store := memory.NewSettingsStore()
	client := platform.NewClient("http://127.0.0.1:1", store, platform.DefaultIdentification("t"), nil, zap.NewNop())
	srv := NewServer("127.0.0.1:0", "/nonexistent/panel/assets", client, Options{}, zap.NewNop())

	err := srv.Start()
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindBind))
}

func TestStart_PortTaken(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	store := memory.NewSettingsStore()
	client := platform.NewClient("http://127.0.0.1:1", store, platform.DefaultIdentification("t"), nil, zap.NewNop())
	srv := NewServer(ln.Addr().String(), t.TempDir(), client, Options{}, zap.NewNop())

	err = srv.Start()
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindBind))
}

func TestLAPI_RateLimited(t *testing.T) {
	store := memory.NewSettingsStore()
	client := platform.NewClient("http://127.0.0.1:1", store, platform.DefaultIdentification("t"), nil, zap.NewNop())
	srv := NewServer("127.0.0.1:0", t.TempDir(), client, Options{
		RateLimitPerSecond: 1,
		RateLimitBurst:     1,
	}, zap.NewNop())

	limited := false
	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodPost, "/lapi", strings.NewReader(`{"action":"unknown"}`))
		req.RemoteAddr = "127.0.0.1:55555"
		w := httptest.NewRecorder()
		srv.Handler().ServeHTTP(w, req)
		if w.Code == http.StatusTooManyRequests {
			limited = true
			break
		}
	}
	assert.True(t, limited, "burst of requests should trip the limiter")
}
