package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"trackoccupancy/internal/model"
	"trackoccupancy/internal/remote"
	"trackoccupancy/internal/store"
)

// StatusOK is the only login status the backend uses for success. The match is case-sensitive.
const StatusOK = "OK"

// DefaultLanguage is used when no preference has been saved.
const DefaultLanguage = "en"

var (
	// ErrUnsupportedLanguage is returned by SetLanguage for codes other than en/ru.
	ErrUnsupportedLanguage = errors.New("unsupported language")

	supportedLanguages = map[string]bool{"en": true, "ru": true}
)

// LoginError is a login rejected by the backend, either by HTTP status or by body status.
type LoginError struct {
	Reason string
	Err    error
}

func (e *LoginError) Error() string { return "Login failed: " + e.Reason }

func (e *LoginError) Unwrap() error { return e.Err }

// Authenticator is the part of the remote facade the session needs.
type Authenticator interface {
	Login(ctx context.Context, req model.LoginRequest) (*model.LoginResponse, error)
}

// State is the observable session value.
type State struct {
	Token    string
	LoggedIn bool
}

// Session holds the optional local token and publishes its changes.
type Session struct {
	settings store.Settings
	auth     Authenticator
	now      func() time.Time

	mu          sync.Mutex
	token       string
	subscribers map[int]chan State
	nextID      int
}

// New restores the token persisted in settings, if any.
func New(ctx context.Context, settings store.Settings, auth Authenticator) (*Session, error) {
	token, _, err := settings.Get(ctx, store.KeyAuthToken)
	if err != nil {
		return nil, fmt.Errorf("failed to restore session: %w", err)
	}
	return &Session{
		settings:    settings,
		auth:        auth,
		now:         time.Now,
		token:       token,
		subscribers: make(map[int]chan State),
	}, nil
}

// Login submits the credentials and, on an "OK" status, stores a local placeholder token.
// The backend issues no reusable credential, so the token only flags the logged-in state.
func (s *Session) Login(ctx context.Context, login, password string) (*model.LoginResponse, error) {
	log.Printf("Making login API call for user: %s", login)
	resp, err := s.auth.Login(ctx, model.LoginRequest{Login: login, Password: password})
	if err != nil {
		var apiErr *remote.APIError
		if errors.As(err, &apiErr) {
			log.Printf("Login failed with code %d: %s", apiErr.StatusCode, apiErr.StatusText)
			return nil, &LoginError{Reason: apiErr.StatusText, Err: err}
		}
		log.Printf("Login API call failed: %v", err)
		return nil, err
	}

	if resp.Status != StatusOK {
		log.Printf("Login failed with status: %s", resp.Status)
		return nil, &LoginError{Reason: resp.Status}
	}

	token := fmt.Sprintf("logged_in_%d", s.now().UnixMilli())
	if err := s.settings.Set(ctx, store.KeyAuthToken, token); err != nil {
		return nil, err
	}
	s.publish(token)
	log.Printf("Login successful for user: %s", login)
	return resp, nil
}

// Clear erases the token.
func (s *Session) Clear(ctx context.Context) error {
	if err := s.settings.Delete(ctx, store.KeyAuthToken); err != nil {
		return err
	}
	s.publish("")
	return nil
}

// Token returns the current token, or "" when logged out. It satisfies remote.TokenSource.
func (s *Session) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// LoggedIn reports whether a non-empty token is held.
func (s *Session) LoggedIn() bool {
	return s.Token() != ""
}

// State returns the current session value.
func (s *Session) State() State {
	token := s.Token()
	return State{Token: token, LoggedIn: token != ""}
}

// Subscribe returns a channel that immediately receives the current state and then every change.
// Only the latest value is kept for a slow reader. The returned func unsubscribes and closes the channel.
func (s *Session) Subscribe() (<-chan State, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan State, 1)
	ch <- State{Token: s.token, LoggedIn: s.token != ""}
	id := s.nextID
	s.nextID++
	s.subscribers[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.subscribers, id)
			close(ch)
		})
	}
	return ch, cancel
}

func (s *Session) publish(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.token = token
	state := State{Token: token, LoggedIn: token != ""}
	for _, ch := range s.subscribers {
		select {
		case <-ch:
		default:
		}
		ch <- state
	}
}

// Language returns the saved two-letter language code.
func (s *Session) Language(ctx context.Context) (string, error) {
	lang, found, err := s.settings.Get(ctx, store.KeyLanguage)
	if err != nil {
		return "", err
	}
	if !found || lang == "" {
		return DefaultLanguage, nil
	}
	return lang, nil
}

// SetLanguage saves the language preference.
func (s *Session) SetLanguage(ctx context.Context, lang string) error {
	if !supportedLanguages[lang] {
		return fmt.Errorf("%w: %q", ErrUnsupportedLanguage, lang)
	}
	return s.settings.Set(ctx, store.KeyLanguage, lang)
}
