package session

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trackoccupancy/internal/model"
	"trackoccupancy/internal/remote"
	"trackoccupancy/internal/store"
)

// memSettings is an in-memory implementation of store.Settings.
type memSettings struct {
	mu     sync.Mutex
	values map[string]string
	setErr error
}

func newMemSettings() *memSettings {
	return &memSettings{values: make(map[string]string)}
}

func (m *memSettings) Get(ctx context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *memSettings) Set(ctx context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.setErr != nil {
		return m.setErr
	}
	m.values[key] = value
	return nil
}

func (m *memSettings) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

// mockAuth is a mock implementation of the Authenticator interface.
type mockAuth struct {
	LoginFunc func(ctx context.Context, req model.LoginRequest) (*model.LoginResponse, error)
}

func (m *mockAuth) Login(ctx context.Context, req model.LoginRequest) (*model.LoginResponse, error) {
	return m.LoginFunc(ctx, req)
}

func statusAuth(status string) *mockAuth {
	return &mockAuth{LoginFunc: func(ctx context.Context, req model.LoginRequest) (*model.LoginResponse, error) {
		return &model.LoginResponse{Status: status}, nil
	}}
}

func TestSession_InitialStateWithoutToken(t *testing.T) {
	s, err := New(context.Background(), newMemSettings(), statusAuth(StatusOK))
	require.NoError(t, err)
	assert.False(t, s.LoggedIn())
	assert.Empty(t, s.Token())
}

func TestSession_RestoresStoredToken(t *testing.T) {
	settings := newMemSettings()
	settings.values[store.KeyAuthToken] = "logged_in_42"

	s, err := New(context.Background(), settings, statusAuth(StatusOK))
	require.NoError(t, err)
	assert.True(t, s.LoggedIn())
	assert.Equal(t, "logged_in_42", s.Token())
}

func TestSession_Login(t *testing.T) {
	testCases := []struct {
		name          string
		auth          *mockAuth
		expectedErr   string
		expectedLogin bool
	}{
		{
			name:          "Status OK logs in",
			auth:          statusAuth("OK"),
			expectedLogin: true,
		},
		{
			name:        "Status is case-sensitive",
			auth:        statusAuth("ok"),
			expectedErr: "Login failed: ok",
		},
		{
			name:        "Other status",
			auth:        statusAuth("INVALID_CREDENTIALS"),
			expectedErr: "Login failed: INVALID_CREDENTIALS",
		},
		{
			name: "HTTP rejection",
			auth: &mockAuth{LoginFunc: func(ctx context.Context, req model.LoginRequest) (*model.LoginResponse, error) {
				return nil, &remote.APIError{Op: "/v1/login", StatusCode: http.StatusUnauthorized, StatusText: "Unauthorized"}
			}},
			expectedErr: "Login failed: Unauthorized",
		},
		{
			name: "Network failure",
			auth: &mockAuth{LoginFunc: func(ctx context.Context, req model.LoginRequest) (*model.LoginResponse, error) {
				return nil, &remote.NetworkError{Err: errors.New("connection refused")}
			}},
			expectedErr: "Network error: connection refused",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			settings := newMemSettings()
			s, err := New(context.Background(), settings, tc.auth)
			require.NoError(t, err)
			s.now = func() time.Time { return time.UnixMilli(1700000000000) }

			_, err = s.Login(context.Background(), "admin", "secret")
			if tc.expectedErr != "" {
				require.Error(t, err)
				assert.Equal(t, tc.expectedErr, err.Error())
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tc.expectedLogin, s.LoggedIn())

			stored, found, _ := settings.Get(context.Background(), store.KeyAuthToken)
			assert.Equal(t, tc.expectedLogin, found)
			if tc.expectedLogin {
				assert.Equal(t, "logged_in_1700000000000", stored)
				assert.Equal(t, stored, s.Token())
			}
		})
	}
}

func TestSession_LoginPersistFailureKeepsLoggedOut(t *testing.T) {
	settings := newMemSettings()
	settings.setErr = errors.New("disk full")
	s, err := New(context.Background(), settings, statusAuth(StatusOK))
	require.NoError(t, err)

	_, err = s.Login(context.Background(), "admin", "secret")
	assert.Error(t, err)
	assert.False(t, s.LoggedIn())
}

func TestSession_ClearLogsOut(t *testing.T) {
	settings := newMemSettings()
	s, err := New(context.Background(), settings, statusAuth(StatusOK))
	require.NoError(t, err)

	_, err = s.Login(context.Background(), "admin", "secret")
	require.NoError(t, err)
	require.True(t, s.LoggedIn())

	require.NoError(t, s.Clear(context.Background()))
	assert.False(t, s.LoggedIn())
	_, found, _ := settings.Get(context.Background(), store.KeyAuthToken)
	assert.False(t, found)
}

func TestSession_Subscribe(t *testing.T) {
	s, err := New(context.Background(), newMemSettings(), statusAuth(StatusOK))
	require.NoError(t, err)

	states, unsubscribe := s.Subscribe()
	defer unsubscribe()

	assert.False(t, (<-states).LoggedIn, "the current value is delivered immediately")

	_, err = s.Login(context.Background(), "admin", "secret")
	require.NoError(t, err)
	assert.True(t, (<-states).LoggedIn)

	require.NoError(t, s.Clear(context.Background()))
	assert.False(t, (<-states).LoggedIn)
}

func TestSession_SlowSubscriberSeesLatestValue(t *testing.T) {
	s, err := New(context.Background(), newMemSettings(), statusAuth(StatusOK))
	require.NoError(t, err)

	states, unsubscribe := s.Subscribe()

	_, err = s.Login(context.Background(), "admin", "secret")
	require.NoError(t, err)
	require.NoError(t, s.Clear(context.Background()))

	select {
	case state := <-states:
		assert.False(t, state.LoggedIn)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for state")
	}

	unsubscribe()
	unsubscribe()
	_, open := <-states
	assert.False(t, open)
}

func TestSession_Language(t *testing.T) {
	s, err := New(context.Background(), newMemSettings(), statusAuth(StatusOK))
	require.NoError(t, err)
	ctx := context.Background()

	lang, err := s.Language(ctx)
	require.NoError(t, err)
	assert.Equal(t, "en", lang)

	require.NoError(t, s.SetLanguage(ctx, "ru"))
	lang, err = s.Language(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ru", lang)

	err = s.SetLanguage(ctx, "fr")
	assert.ErrorIs(t, err, ErrUnsupportedLanguage)
}
