package handler

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/lambda-feedback/shimbridge/bridge"
)

// --- Mock engine ---
type MockEngine struct {
	mock.Mock
}

func (m *MockEngine) Start(ctx context.Context) error {
	return nil
}

func (m *MockEngine) Shutdown(ctx context.Context) error {
	return nil
}

func (m *MockEngine) Handle(ctx context.Context, req bridge.RequestDescriptor) ([]byte, error) {
	args := m.Called(ctx, req)
	data, _ := args.Get(0).([]byte)
	return data, args.Error(1)
}

func newHandler(t *testing.T, engine bridge.Engine, auth AuthConfig, config bridge.Config) *BridgeHandler {
	log := zaptest.NewLogger(t)

	b, err := bridge.New(bridge.Params{Config: config, Engine: engine, Log: log})
	require.NoError(t, err)

	return &BridgeHandler{
		invoker:      b,
		builder:      bridge.NewBuilder(config),
		unmarshaller: bridge.NewUnmarshaller(log),
		auth:         auth,
		log:          zap.NewNop(),
	}
}

func envelope(t *testing.T, status int, body string, headers ...bridge.Header) []byte {
	data, err := bridge.MarshalEnvelope(bridge.NewEnvelope(status, body, headers...))
	require.NoError(t, err)
	return data
}

func serve(h http.Handler, req *http.Request) (*http.Response, string) {
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	res := w.Result()
	body, _ := io.ReadAll(res.Body)
	res.Body.Close()

	return res, string(body)
}

// --- Test ---
func TestServeHTTP_Success(t *testing.T) {
	mockEngine := new(MockEngine)

	reqBody := []byte(`{"example": "value"}`)
	req := httptest.NewRequest(http.MethodPost, "/test?x=1", bytes.NewReader(reqBody))
	req.Header.Set("api-key", "secret")

	mockEngine.On("Handle", mock.Anything, mock.MatchedBy(func(r bridge.RequestDescriptor) bool {
		return r.Path == "/test?x=1" &&
			r.Method == http.MethodPost &&
			bytes.Equal(r.Body.Bytes(), reqBody) &&
			r.Headers.Get("api-key") == ""
	})).Return(envelope(t, http.StatusOK, `{"ok":true}`,
		bridge.Header{Name: "Content-Type", Value: "application/json"},
	), nil)

	handler := newHandler(t, mockEngine, AuthConfig{Key: "secret"}, bridge.Config{})

	res, body := serve(handler, req)

	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "application/json", res.Header.Get("Content-Type"))
	assert.Equal(t, "11", res.Header.Get("Content-Length"))
	assert.Equal(t, `{"ok":true}`, body)
	mockEngine.AssertExpectations(t)
}

func TestServeHTTP_NoBody(t *testing.T) {
	mockEngine := new(MockEngine)

	mockEngine.On("Handle", mock.Anything, mock.MatchedBy(func(r bridge.RequestDescriptor) bool {
		return r.Method == http.MethodGet && !r.Body.Present()
	})).Return(envelope(t, http.StatusOK, "hello"), nil)

	handler := newHandler(t, mockEngine, AuthConfig{}, bridge.Config{})

	res, body := serve(handler, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "hello", body)
	mockEngine.AssertExpectations(t)
}

func TestServeHTTP_Unauthorized(t *testing.T) {
	mockEngine := new(MockEngine)

	req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(`{"example": "value"}`))
	req.Header.Set("api-key", "wrong-key") // wrong key

	handler := newHandler(t, mockEngine, AuthConfig{Key: "Secret"}, bridge.Config{})

	res, body := serve(handler, req)

	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
	assert.Contains(t, body, "unauthorized")

	// Ensure engine was not called
	mockEngine.AssertNotCalled(t, "Handle", mock.Anything, mock.Anything)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("connection reset")
}

func TestServeHTTP_TransportError(t *testing.T) {
	mockEngine := new(MockEngine)

	req := httptest.NewRequest(http.MethodPost, "/test", io.MultiReader(strings.NewReader("partial"), failingReader{}))
	req.ContentLength = 100

	handler := newHandler(t, mockEngine, AuthConfig{}, bridge.Config{})

	res, _ := serve(handler, req)

	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	mockEngine.AssertNotCalled(t, "Handle", mock.Anything, mock.Anything)
}

func TestServeHTTP_BodyTooLarge(t *testing.T) {
	mockEngine := new(MockEngine)

	req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader("0123456789"))

	handler := newHandler(t, mockEngine, AuthConfig{}, bridge.Config{MaxBodyBytes: 4})

	res, _ := serve(handler, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, res.StatusCode)
	mockEngine.AssertNotCalled(t, "Handle", mock.Anything, mock.Anything)
}

func TestServeHTTP_EngineError(t *testing.T) {
	mockEngine := new(MockEngine)
	mockEngine.On("Handle", mock.Anything, mock.Anything).Return(nil, errors.New("boom"))

	handler := newHandler(t, mockEngine, AuthConfig{}, bridge.Config{})

	res, body := serve(handler, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, res.StatusCode)
	assert.Equal(t, bridge.InternalErrorBody, body)
}

func TestServeHTTP_MalformedEnvelope(t *testing.T) {
	mockEngine := new(MockEngine)
	mockEngine.On("Handle", mock.Anything, mock.Anything).Return([]byte(`{"status":"ok"}`), nil)

	handler := newHandler(t, mockEngine, AuthConfig{}, bridge.Config{})

	res, body := serve(handler, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, res.StatusCode)
	assert.Equal(t, bridge.InternalErrorBody, body)
}

func TestHealthHandler(t *testing.T) {
	res, body := serve(http.HandlerFunc(HealthHandler), httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, body)
}
