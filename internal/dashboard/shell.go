package dashboard

import (
	"context"
	"sync"

	"clinicbook/internal/events"
	"clinicbook/internal/records"
	"clinicbook/internal/session"
	"clinicbook/pkg/client"
	"clinicbook/pkg/logger"
	"clinicbook/pkg/model"
)

// Dashboard is the role-specific workspace of one session.
type Dashboard interface {
	View() session.View
	// Enter runs the work done once when the dashboard is first shown.
	Enter(ctx context.Context) error
}

type Options struct {
	DefaultDurationMinutes int
}

// Shell owns the session and the dashboard built for it. A dashboard and
// everything it caches is discarded when the session ends or is replaced.
type Shell struct {
	mu        sync.Mutex
	api       *client.Client
	sessions  *session.Store
	records   *records.Service
	publisher events.Publisher
	opts      Options
	current   Dashboard
	log       *logger.Logger
}

func NewShell(api *client.Client, publisher events.Publisher, opts Options, log *logger.Logger) *Shell {
	if publisher == nil {
		publisher = events.Nop{}
	}
	s := &Shell{
		api:       api,
		sessions:  session.NewStore(api.Auth, log),
		records:   records.NewService(api.Auth, api.Doctors, api.Patients, log),
		publisher: publisher,
		opts:      opts,
		log:       log.Component("dashboard"),
	}
	s.sessions.OnEnd(s.drop)
	return s
}

func (s *Shell) drop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current != nil {
		s.log.Debug("Dashboard discarded", "view", s.current.View())
	}
	s.current = nil
}

// Login authenticates and enters the dashboard the session routes to. When
// entering fails the session and dashboard are kept and the error returned.
func (s *Shell) Login(ctx context.Context, email, password string, claimed model.Role) (Dashboard, error) {
	sess, err := s.sessions.Authenticate(ctx, email, password, claimed)
	if err != nil {
		return nil, err
	}

	d := s.build(sess)
	s.mu.Lock()
	s.current = d
	s.mu.Unlock()

	s.log.Info("Dashboard entered", "view", d.View())
	return d, d.Enter(ctx)
}

func (s *Shell) build(sess *session.Session) Dashboard {
	switch session.Route(sess) {
	case session.ViewAdmin:
		return newAdmin(sess, s.api, s.publisher, s.opts, s.log)
	case session.ViewPractitioner:
		return newPractitioner(sess, s.api, s.publisher, s.log)
	case session.ViewPatient:
		return newPatient(sess, s.api, s.publisher, s.opts, s.log)
	default:
		return &Unsupported{sess: sess}
	}
}

// Register creates an account from the login view; no session is needed.
func (s *Shell) Register(ctx context.Context, reg model.Registration) (*model.User, error) {
	return s.records.Register(ctx, reg)
}

func (s *Shell) Logout() {
	s.sessions.End()
}

func (s *Shell) Session() *session.Session {
	return s.sessions.Current()
}

func (s *Shell) View() session.View {
	return s.sessions.View()
}

// Current returns the active dashboard, or nil on the login view.
func (s *Shell) Current() Dashboard {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Unsupported is shown for a session whose role has no dashboard.
type Unsupported struct {
	sess *session.Session
}

func (u *Unsupported) View() session.View { return session.ViewUnsupported }

func (u *Unsupported) Enter(context.Context) error { return nil }

func (u *Unsupported) Role() model.Role { return u.sess.Role() }
