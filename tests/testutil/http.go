package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// APIClient sends JSON requests to an in-process handler on behalf of one actor
type APIClient struct {
	Handler http.Handler
	Prefix  string
	ActorID uuid.UUID
}

// NewAPIClient creates a client for handler mounted under /api/v1
func NewAPIClient(handler http.Handler) *APIClient {
	return &APIClient{Handler: handler, Prefix: "/api/v1", ActorID: uuid.New()}
}

// Do sends body as JSON. Capabilities go in X-Actor-Capabilities; with none
// the request is anonymous.
func (c *APIClient) Do(t *testing.T, method, path string, body any, capabilities ...string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err, "Failed to marshal request body")
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, c.Prefix+path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if len(capabilities) > 0 {
		req.Header.Set("X-Actor-ID", c.ActorID.String())
		req.Header.Set("X-Actor-Capabilities", strings.Join(capabilities, ","))
	}

	w := httptest.NewRecorder()
	c.Handler.ServeHTTP(w, req)
	return w
}

// Envelope is the response shape of every ledger endpoint
type Envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string          `json:"code"`
		Message string          `json:"message"`
		Details json.RawMessage `json:"details"`
	} `json:"error"`
	Meta *struct {
		Total      int64 `json:"total"`
		Page       int   `json:"page"`
		PageSize   int   `json:"page_size"`
		TotalPages int   `json:"total_pages"`
	} `json:"meta"`
	RequestID string `json:"request_id"`
}

// DecodeEnvelope parses the recorded body
func DecodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) Envelope {
	t.Helper()
	var env Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}

// DataAs requires a success envelope and decodes its data into T
func DataAs[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	env := DecodeEnvelope(t, w)
	require.True(t, env.Success, w.Body.String())
	var out T
	require.NoError(t, json.Unmarshal(env.Data, &out))
	return out
}

// ErrorCode requires an error envelope and returns its code
func ErrorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	env := DecodeEnvelope(t, w)
	require.NotNil(t, env.Error, w.Body.String())
	return env.Error.Code
}
