package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"runtime"
	"strings"
	"sync"
	"time"

	"livedock/internal/core/domain"
	"livedock/internal/core/ports"
	"livedock/internal/infrastructure/monitoring"
	apperrors "livedock/pkg/errors"

	"go.uber.org/zap"
)

const (
	defaultTimeoutFloor = 10 * time.Second
	timeoutPerChunk     = time.Second
	timeoutChunkSize    = 64 * 1024
)

// Identification is the fixed header set attached to every request.
type Identification struct {
	ClientVersion string
	OS            string
	OSVersion     string
}

// DefaultIdentification fills the OS fields from the runtime.
func DefaultIdentification(clientVersion string) Identification {
	return Identification{
		ClientVersion: clientVersion,
		OS:            runtime.GOOS,
		OSVersion:     runtime.GOARCH,
	}
}

// Client talks to the streaming platform cloud API. The credential copy
// and the last-error string are the only mutable shared state; both are
// mutex-protected so worker goroutines cannot race on error reporting.
type Client struct {
	baseURL      string
	httpClient   *http.Client
	store        ports.SettingsStore
	ident        Identification
	metrics      *monitoring.Collector // can be nil
	logger       *zap.Logger
	timeoutFloor time.Duration

	mu        sync.Mutex
	lastError string
}

var _ ports.PlatformClient = (*Client)(nil)

// NewClient creates a platform client. metrics can be nil.
func NewClient(
	baseURL string,
	store ports.SettingsStore,
	ident Identification,
	metrics *monitoring.Collector,
	logger *zap.Logger,
) *Client {
	return &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		httpClient:   &http.Client{},
		store:        store,
		ident:        ident,
		metrics:      metrics,
		logger:       logger,
		timeoutFloor: defaultTimeoutFloor,
	}
}

// SetTimeoutFloor overrides the fixed part of the per-request timeout.
// Call during wiring, before the client serves requests; values <= 0 are
// ignored.
func (c *Client) SetTimeoutFloor(d time.Duration) {
	if d > 0 {
		c.timeoutFloor = d
	}
}

// LastError returns the display string for the most recent failure.
func (c *Client) LastError() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastError
}

func (c *Client) setLastError(msg string) {
	c.mu.Lock()
	c.lastError = msg
	c.mu.Unlock()
}

// request is the outbound envelope: what to send and whether a credential
// is required.
type request struct {
	operation string
	method    string
	path      string
	query     url.Values
	jsonBody  interface{}
	formBody  url.Values
	headers   map[string]string
	noAuth    bool
	noRenew   bool
}

// envelope is the inbound shape every endpoint shares. The upstream is
// known to return HTTP 2xx with embedded failure payloads, so Code and the
// nested error document are checked independent of the status line.
type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// do executes a request: fail fast without a credential, send, renew and
// replay exactly once on 401, classify the response. The returned payload
// is the envelope's data document.
func (c *Client) do(ctx context.Context, req request) (json.RawMessage, error) {
	var token string
	if !req.noAuth {
		cred := c.store.Credential()
		if !cred.IsValid() {
			return nil, c.fail(req.operation, &apperrors.AppError{
				Kind:    apperrors.KindApplication,
				Message: domain.ErrNotLoggedIn.Error(),
				Cause:   domain.ErrNotLoggedIn,
			})
		}
		token = cred.Token
	}

	status, body, err := c.send(ctx, req, token)
	if err != nil {
		return nil, c.fail(req.operation, err)
	}

	if status == http.StatusUnauthorized && !req.noAuth && !req.noRenew {
		if c.metrics != nil {
			c.metrics.RecordCredentialRenewal()
		}
		if err := c.RenewCredential(ctx); err != nil {
			return nil, c.fail(req.operation, apperrors.NewApplicationError(0,
				fmt.Sprintf("authorization expired and renewal failed: %s", c.LastError())))
		}

		token = c.store.Credential().Token
		status, body, err = c.send(ctx, req, token)
		if err != nil {
			return nil, c.fail(req.operation, err)
		}
	}

	data, err := c.classify(status, body)
	if err != nil {
		return nil, c.fail(req.operation, err)
	}

	if c.metrics != nil {
		c.metrics.RecordAPIRequest(req.operation, true)
	}
	return data, nil
}

// send performs one HTTP exchange. The timeout is a fixed floor plus an
// allowance proportional to the request body size, so large uploads are
// not cut off by the floor alone.
func (c *Client) send(ctx context.Context, req request, token string) (int, []byte, error) {
	var bodyBytes []byte
	contentType := ""

	switch {
	case req.jsonBody != nil:
		b, err := json.Marshal(req.jsonBody)
		if err != nil {
			return 0, nil, apperrors.NewParseError("cannot encode request body", err)
		}
		bodyBytes = b
		contentType = "application/json"
	case req.formBody != nil:
		bodyBytes = []byte(req.formBody.Encode())
		contentType = "application/x-www-form-urlencoded"
	}

	timeout := c.timeoutFloor + timeoutPerChunk*time.Duration(len(bodyBytes)/timeoutChunkSize)
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	u := c.baseURL + req.path
	if len(req.query) > 0 {
		u += "?" + req.query.Encode()
	}

	httpReq, err := http.NewRequestWithContext(reqCtx, req.method, u, bytes.NewReader(bodyBytes))
	if err != nil {
		return 0, nil, apperrors.NewTransportError("cannot build request", err)
	}

	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}
	httpReq.Header.Set("X-Client-Version", c.ident.ClientVersion)
	httpReq.Header.Set("X-Client-OS", c.ident.OS)
	httpReq.Header.Set("X-Client-OS-Version", c.ident.OSVersion)
	httpReq.Header.Set("X-Device-ID", c.store.Settings().DeviceID)
	for k, v := range req.headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if reqCtx.Err() == context.DeadlineExceeded {
			return 0, nil, apperrors.NewTransportError(
				fmt.Sprintf("request timed out after %s", timeout), err)
		}
		return 0, nil, apperrors.NewTransportError("request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, apperrors.NewTransportError("cannot read response", err)
	}

	return resp.StatusCode, body, nil
}

// classify judges a response by its application-level error markers first,
// independent of the HTTP status line. An HTTP 2xx carrying an error code
// is a failure; a non-2xx without an application payload is a transport
// failure.
func (c *Client) classify(status int, body []byte) (json.RawMessage, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		if status < 200 || status > 299 {
			return nil, apperrors.NewTransportError(
				fmt.Sprintf("unexpected HTTP status %d", status), nil)
		}
		return nil, apperrors.NewParseError("malformed response from API", err)
	}

	if env.Error != nil && env.Error.Code != 0 {
		return nil, apperrors.NewApplicationError(env.Error.Code, env.Error.Message)
	}
	if env.Code != 0 {
		msg := env.Message
		if msg == "" {
			msg = "request rejected"
		}
		return nil, apperrors.NewApplicationError(env.Code, msg)
	}

	if status < 200 || status > 299 {
		return nil, apperrors.NewTransportError(
			fmt.Sprintf("unexpected HTTP status %d", status), nil)
	}

	return env.Data, nil
}

// fail records the failure in metrics and the last-error string.
func (c *Client) fail(operation string, err error) error {
	if c.metrics != nil {
		c.metrics.RecordAPIRequest(operation, false)
	}

	msg := err.Error()
	if appErr := apperrors.GetAppError(err); appErr != nil {
		msg = appErr.Display()
	}
	c.setLastError(msg)

	c.logger.Warn("api operation failed",
		zap.String("operation", operation),
		zap.Error(err),
	)
	return err
}

// decode unmarshals an envelope data document into out.
func decode(data json.RawMessage, out interface{}) error {
	if len(data) == 0 {
		return apperrors.NewParseError("empty response document", nil)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return apperrors.NewParseError("malformed response document", err)
	}
	return nil
}
