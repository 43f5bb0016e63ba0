package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Client drives a gin engine in-process and keeps the cookies it sets,
// the way a browser would between requests.
type Client struct {
	t       *testing.T
	engine  *gin.Engine
	cookies map[string]*http.Cookie
	// Bearer, when set, is sent as the Authorization header
	Bearer string
}

// NewClient creates a client for engine
func NewClient(t *testing.T, engine *gin.Engine) *Client {
	return &Client{t: t, engine: engine, cookies: map[string]*http.Cookie{}}
}

// Cookie returns the current value of a cookie, or ""
func (c *Client) Cookie(name string) string {
	if ck, ok := c.cookies[name]; ok {
		return ck.Value
	}
	return ""
}

// Do sends a request with an optional body and content type
func (c *Client) Do(method, path, contentType string, body io.Reader) *httptest.ResponseRecorder {
	c.t.Helper()

	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.Bearer != "" {
		req.Header.Set("Authorization", "Bearer "+c.Bearer)
	}
	for _, ck := range c.cookies {
		req.AddCookie(ck)
	}

	w := httptest.NewRecorder()
	c.engine.ServeHTTP(w, req)

	for _, ck := range w.Result().Cookies() {
		if ck.MaxAge < 0 || ck.Value == "" {
			delete(c.cookies, ck.Name)
			continue
		}
		c.cookies[ck.Name] = ck
	}
	return w
}

// Get sends a GET request
func (c *Client) Get(path string) *httptest.ResponseRecorder {
	c.t.Helper()
	return c.Do(http.MethodGet, path, "", nil)
}

// JSON sends v encoded as JSON. A nil v sends no body.
func (c *Client) JSON(method, path string, v any) *httptest.ResponseRecorder {
	c.t.Helper()
	if v == nil {
		return c.Do(method, path, "", nil)
	}
	data, err := json.Marshal(v)
	require.NoError(c.t, err, "Failed to marshal request body")
	return c.Do(method, path, "application/json", bytes.NewReader(data))
}

// Form posts URL-encoded form values
func (c *Client) Form(path string, values url.Values) *httptest.ResponseRecorder {
	c.t.Helper()
	return c.Do(http.MethodPost, path, "application/x-www-form-urlencoded", strings.NewReader(values.Encode()))
}

// Envelope is the standard API response shape with a typed payload
type Envelope[T any] struct {
	Success bool `json:"success"`
	Data    T    `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Details []struct {
			Field   string `json:"field"`
			Message string `json:"message"`
		} `json:"details"`
	} `json:"error"`
}

// Decode parses an API response body
func Decode[T any](t *testing.T, w *httptest.ResponseRecorder) Envelope[T] {
	t.Helper()

	var env Envelope[T]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), "Failed to parse response: %s", w.Body.String())
	return env
}

// AssertErrorCode asserts an API error response with the given status and code
func AssertErrorCode(t *testing.T, w *httptest.ResponseRecorder, status int, code string) {
	t.Helper()

	assert.Equal(t, status, w.Code, "Unexpected status code: %s", w.Body.String())
	env := Decode[json.RawMessage](t, w)
	assert.False(t, env.Success)
	if assert.NotNil(t, env.Error, "Expected error object in response") {
		assert.Equal(t, code, env.Error.Code)
	}
}
