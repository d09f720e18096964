package console

import (
	"bytes"
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"clinicbook/internal/availability"
	bookingerrors "clinicbook/internal/booking/errors"
	"clinicbook/internal/dashboard"
	"clinicbook/internal/fakeapi"
	"clinicbook/internal/session"
	"clinicbook/internal/slots"
	"clinicbook/pkg/client"
	"clinicbook/pkg/config"
	apperrors "clinicbook/pkg/errors"
	"clinicbook/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newConsole(t *testing.T) (*Console, *bytes.Buffer) {
	t.Helper()
	cfg := config.FromEnv()
	cfg.Log = logger.Discard()
	cfg.StubLoginRateLimit = 1000

	application, _ := fakeapi.New(cfg, fakeapi.WithBcryptCost(bcrypt.MinCost))
	srv := httptest.NewServer(application.Handler())
	t.Cleanup(func() {
		srv.Close()
		application.Stop()
	})

	api := client.NewClient(srv.URL, 5*time.Second)
	shell := dashboard.NewShell(api, nil, dashboard.Options{DefaultDurationMinutes: 30}, logger.Discard())
	out := &bytes.Buffer{}
	return New(shell, out, 5*time.Second, logger.Discard()), out
}

func run(t *testing.T, c *Console, lines ...string) {
	t.Helper()
	for _, line := range lines {
		require.NoError(t, c.Execute(context.Background(), line), line)
	}
}

func TestConsole_FullBookingSession(t *testing.T) {
	c, out := newConsole(t)

	run(t, c,
		"register admin@clinic.test adminpass admin",
		"register doc@clinic.test docpass doctor",
		"login doc@clinic.test docpass",
	)
	assert.Equal(t, session.ViewPractitioner, c.shell.View())

	// Availability needs a doctor record, so the admin creates it first.
	run(t, c,
		"logout",
		"login admin@clinic.test adminpass",
		`add-doctor Ana Lima "Family Medicine" doc@clinic.test`,
		"add-patient Pat Doe pat@clinic.test +12125551234",
		"logout",
		"login doc@clinic.test docpass",
		"declare 2024-06-01T09:00 2024-06-01T12:00",
		"logout",
		"login admin@clinic.test adminpass",
		"doctors",
		"practitioner 3",
		"patient 4",
		"date 2024-06-01",
		"duration 30",
	)

	out.Reset()
	run(t, c, "slots")
	assert.Contains(t, out.String(), "1) 09:00-09:30")
	assert.Contains(t, out.String(), "6) 11:30-12:00")

	out.Reset()
	run(t, c, "select 1")
	assert.Contains(t, out.String(), "2024-06-01T09:00 to 2024-06-01T09:30")

	out.Reset()
	run(t, c, "book")
	assert.Contains(t, out.String(), "booked")
}

func TestConsole_CommandsFollowView(t *testing.T) {
	c, _ := newConsole(t)

	err := c.Execute(context.Background(), "slots")
	assert.ErrorIs(t, err, ErrUnavailable)

	err = c.Execute(context.Background(), "fly")
	assert.ErrorIs(t, err, ErrUnknownCommand)

	loginCmds := names(c.engine.Available(session.ViewLogin))
	assert.Contains(t, loginCmds, "login")
	assert.NotContains(t, loginCmds, "book")

	adminCmds := names(c.engine.Available(session.ViewAdmin))
	assert.Contains(t, adminCmds, "add-doctor")
	assert.NotContains(t, adminCmds, "login")

	patientCmds := names(c.engine.Available(session.ViewPatient))
	assert.Contains(t, patientCmds, "book")
	assert.NotContains(t, patientCmds, "add-patient")

	practitionerCmds := names(c.engine.Available(session.ViewPractitioner))
	assert.Contains(t, practitionerCmds, "declare")
	assert.NotContains(t, practitionerCmds, "slots")
}

func TestConsole_MissingArgsShowUsage(t *testing.T) {
	c, _ := newConsole(t)

	err := c.Execute(context.Background(), "login only-email")
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
	assert.Contains(t, Notification(err), "usage: login <email> <password> [role]")
}

func TestConsole_RunPrintsFailuresAndContinues(t *testing.T) {
	c, out := newConsole(t)

	in := strings.NewReader("login nobody@clinic.test wrongpass\nview\nexit\nview\n")
	require.NoError(t, c.Run(context.Background(), in))

	text := out.String()
	assert.Contains(t, text, "! Login or registration failed")
	assert.Contains(t, text, "view: login")
	assert.Equal(t, 1, strings.Count(text, "view: login"), "nothing runs after exit")
}

func TestSplitLine(t *testing.T) {
	tests := []struct {
		line string
		want []string
	}{
		{line: "login a@b.co secret", want: []string{"login", "a@b.co", "secret"}},
		{line: `add-doctor Ana Lima "Family Medicine"`, want: []string{"add-doctor", "Ana", "Lima", "Family Medicine"}},
		{line: "  spaced\t out  ", want: []string{"spaced", "out"}},
		{line: `empty ""`, want: []string{"empty", ""}},
		{line: "", want: nil},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, splitLine(tt.line), tt.line)
	}
}

func TestNotification(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "stale", err: slots.ErrStaleResult, want: "query slots again"},
		{name: "in flight", err: bookingerrors.ErrSubmissionInFlight, want: "already being submitted"},
		{name: "declaration in flight", err: availability.ErrDeclarationInFlight, want: "already being sent"},
		{name: "conflict", err: apperrors.Conflict("slot taken"), want: "Slot no longer available: slot taken"},
		{name: "fetch", err: apperrors.Fetch("could not load doctors", errors.New("refused")), want: "Request failed: could not load doctors"},
		{name: "auth", err: apperrors.Auth("login failed"), want: "Login or registration failed"},
		{name: "no session", err: apperrors.NoSession(), want: "log in again"},
		{name: "validation fields", err: apperrors.Validation("invalid slot query", map[string]any{"Date": "Date is required"}), want: "Date: Date is required"},
		{name: "plain", err: errors.New("boom"), want: "Error: boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Contains(t, Notification(tt.err), tt.want)
		})
	}
}

func names(cmds []*Command) []string {
	out := make([]string, 0, len(cmds))
	for _, c := range cmds {
		out = append(out, c.Name)
	}
	return out
}
