package session

import (
	"context"
	"strings"
	"sync"
	"time"

	apperrors "clinicbook/pkg/errors"
	"clinicbook/pkg/logger"
	"clinicbook/pkg/model"

	"github.com/golang-jwt/jwt/v5"
)

const roleClaim = "role"

// Session is the authenticated context handed to dashboards. It is immutable;
// a new login produces a new Session.
type Session struct {
	token     string
	role      model.Role
	email     string
	createdAt time.Time
}

func New(token string, role model.Role, email string) *Session {
	return &Session{
		token:     token,
		role:      role,
		email:     email,
		createdAt: time.Now(),
	}
}

func (s *Session) Token() string {
	if s == nil {
		return ""
	}
	return s.token
}

// Role is empty whenever the token is.
func (s *Session) Role() model.Role {
	if s == nil || s.token == "" {
		return ""
	}
	return s.role
}

func (s *Session) Email() string {
	if s == nil {
		return ""
	}
	return s.email
}

func (s *Session) Authenticated() bool {
	return s != nil && s.token != ""
}

// Require returns the NoSession error when s is absent.
func Require(s *Session) error {
	if !s.Authenticated() {
		return apperrors.NoSession()
	}
	return nil
}

type Authenticator interface {
	Login(ctx context.Context, email, password string) (*model.Token, error)
}

// Store owns the current session. Authenticate is the only operation that
// creates one; End tears it down and notifies the components that own
// session-scoped state.
type Store struct {
	mu      sync.RWMutex
	auth    Authenticator
	current *Session
	onEnd   []func()
	log     *logger.Logger
}

func NewStore(auth Authenticator, log *logger.Logger) *Store {
	return &Store{
		auth: auth,
		log:  log.Component("session"),
	}
}

// Authenticate logs in and installs the resulting session. The role comes
// from the collaborator's answer; claimedRole is only used when the
// collaborator gives none.
func (s *Store) Authenticate(ctx context.Context, email, password string, claimedRole model.Role) (*Session, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, apperrors.Validation("email and password are required", nil)
	}

	token, err := s.auth.Login(ctx, email, password)
	if err != nil {
		s.log.Warn("Authentication failed", "error", err)
		return nil, err
	}

	role, source := resolveRole(token, claimedRole)
	if source == roleSourceClaimed {
		s.log.Warn("Collaborator did not resolve a role, using the login form hint", "role", role)
	}

	sess := New(token.AccessToken, role, email)

	s.mu.Lock()
	previous := s.current
	s.current = sess
	hooks := append([]func(){}, s.onEnd...)
	s.mu.Unlock()

	if previous != nil {
		for _, fn := range hooks {
			fn()
		}
	}

	s.log.Info("Session started", "role", role, "role_source", source)
	return sess, nil
}

func (s *Store) Current() *Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

func (s *Store) Require() (*Session, error) {
	sess := s.Current()
	if err := Require(sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// OnEnd registers a callback run when the current session is torn down or replaced.
func (s *Store) OnEnd(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onEnd = append(s.onEnd, fn)
}

func (s *Store) End() {
	s.mu.Lock()
	ended := s.current != nil
	s.current = nil
	hooks := append([]func(){}, s.onEnd...)
	s.mu.Unlock()

	if !ended {
		return
	}
	for _, fn := range hooks {
		fn()
	}
	s.log.Info("Session ended")
}

func (s *Store) View() View {
	return Route(s.Current())
}

type roleSource string

const (
	roleSourceResponse roleSource = "response"
	roleSourceToken    roleSource = "token"
	roleSourceClaimed  roleSource = "claimed"
)

func resolveRole(token *model.Token, claimed model.Role) (model.Role, roleSource) {
	if token.Role != "" {
		return model.ParseRole(string(token.Role)), roleSourceResponse
	}
	if role := roleFromToken(token.AccessToken); role != "" {
		return role, roleSourceToken
	}
	return claimed, roleSourceClaimed
}

// roleFromToken reads the role claim without verifying the signature. The
// client has no key; the collaborator verifies the token on every request.
func roleFromToken(raw string) model.Role {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return ""
	}
	role, ok := claims[roleClaim].(string)
	if !ok {
		return ""
	}
	return model.ParseRole(role)
}
