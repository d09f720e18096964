package booking

import (
	"context"
	"errors"
	"sync"
	"testing"

	bookingerrors "clinicbook/internal/booking/errors"
	"clinicbook/internal/events"
	"clinicbook/internal/session"
	"clinicbook/internal/slots"
	apperrors "clinicbook/pkg/errors"
	"clinicbook/pkg/logger"
	"clinicbook/pkg/model"
)

type staticSlots struct {
	slots []model.SlotCandidate
}

func (s staticSlots) AvailableSlots(context.Context, string, model.ID, string, int) ([]model.SlotCandidate, error) {
	return s.slots, nil
}

type fakeReserver struct {
	mu      sync.Mutex
	calls   []model.AppointmentCreate
	err     error
	started chan struct{}
	release chan struct{}
}

func (f *fakeReserver) Create(ctx context.Context, token string, appt model.AppointmentCreate) (*model.Appointment, error) {
	f.mu.Lock()
	f.calls = append(f.calls, appt)
	f.mu.Unlock()
	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.release != nil {
		<-f.release
	}
	if f.err != nil {
		return nil, f.err
	}
	return &model.Appointment{
		ID:        "101",
		PatientID: appt.PatientID,
		DoctorID:  appt.DoctorID,
		StartTime: appt.StartTime,
		EndTime:   appt.EndTime,
		Status:    model.AppointmentScheduled,
	}, nil
}

func (f *fakeReserver) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func newController(r *fakeReserver, pub events.Publisher) *Controller {
	engine := slots.NewEngine(staticSlots{slots: []model.SlotCandidate{
		{Start: "09:00", End: "09:30"},
		{Start: "09:30", End: "10:00"},
	}}, 30, logger.Discard())
	return NewController(r, engine, pub, logger.Discard())
}

func adminSession() *session.Session {
	return session.New("token", model.RoleAdmin, "admin@clinic.test")
}

func fillReady(t *testing.T, c *Controller) {
	t.Helper()
	steps := []error{
		c.SetPatientID("3"),
		c.SetDoctorID("7"),
		c.SetStart("2024-06-01T09:00"),
		c.SetEnd("2024-06-01T09:30"),
	}
	for _, err := range steps {
		if err != nil {
			t.Fatalf("edit failed: %v", err)
		}
	}
}

func TestController_StateTransitions(t *testing.T) {
	c := newController(&fakeReserver{}, nil)

	if c.State() != StateEmpty {
		t.Fatalf("expected empty, got %s", c.State())
	}

	_ = c.SetPatientID("3")
	if c.State() != StatePartiallyFilled {
		t.Errorf("expected partially filled after patient, got %s", c.State())
	}

	_ = c.SetDoctorID("7")
	_ = c.SetStart("2024-06-01T10:00")
	_ = c.SetEnd("2024-06-01T09:30")
	if c.State() != StatePartiallyFilled {
		t.Errorf("end before start must not be ready, got %s", c.State())
	}

	_ = c.SetEnd("2024-06-01T10:30")
	if c.State() != StateReady {
		t.Errorf("expected ready, got %s", c.State())
	}
}

func TestSubmit_RejectedUnlessReady(t *testing.T) {
	tests := []struct {
		name  string
		draft model.BookingDraft
	}{
		{"empty", model.BookingDraft{}},
		{"missing patient", model.BookingDraft{DoctorID: "7", StartTime: "2024-06-01T09:00", EndTime: "2024-06-01T09:30"}},
		{"missing doctor", model.BookingDraft{PatientID: "3", StartTime: "2024-06-01T09:00", EndTime: "2024-06-01T09:30"}},
		{"missing start", model.BookingDraft{PatientID: "3", DoctorID: "7", EndTime: "2024-06-01T09:30"}},
		{"missing end", model.BookingDraft{PatientID: "3", DoctorID: "7", StartTime: "2024-06-01T09:00"}},
		{"start equals end", model.BookingDraft{PatientID: "3", DoctorID: "7", StartTime: "2024-06-01T09:00", EndTime: "2024-06-01T09:00"}},
		{"start after end", model.BookingDraft{PatientID: "3", DoctorID: "7", StartTime: "2024-06-01T11:00", EndTime: "2024-06-01T09:00"}},
		{"seconds within one minute", model.BookingDraft{PatientID: "3", DoctorID: "7", StartTime: "2024-06-01T09:00:10", EndTime: "2024-06-01T09:00:50"}},
		{"offset start", model.BookingDraft{PatientID: "3", DoctorID: "7", StartTime: "2024-06-01T10:00:00+02:00", EndTime: "2024-06-01T11:00"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &fakeReserver{}
			c := newController(r, nil)
			_ = c.SetPatientID(tt.draft.PatientID)
			_ = c.SetDoctorID(tt.draft.DoctorID)
			_ = c.SetStart(tt.draft.StartTime)
			_ = c.SetEnd(tt.draft.EndTime)

			_, err := c.Submit(context.Background(), adminSession())
			if !apperrors.IsValidation(err) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if r.callCount() != 0 {
				t.Errorf("no request should be sent, got %d", r.callCount())
			}
		})
	}
}

func TestSubmit_Success(t *testing.T) {
	r := &fakeReserver{}
	rec := &events.Recorder{}
	c := newController(r, rec)
	fillReady(t, c)

	appt, err := c.Submit(context.Background(), adminSession())
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if appt.ID != "101" {
		t.Errorf("unexpected appointment %+v", appt)
	}
	if c.State() != StateEmpty {
		t.Errorf("draft should be cleared, state %s", c.State())
	}
	if outcome, _ := c.LastOutcome(); outcome != OutcomeSubmitted {
		t.Errorf("expected submitted outcome, got %q", outcome)
	}
	if types := rec.Types(); len(types) != 1 || types[0] != events.TypeAppointmentBooked {
		t.Errorf("expected one booked event, got %v", types)
	}
	if got := r.calls[0]; got.StartTime != "2024-06-01T09:00" || got.DoctorID != "7" {
		t.Errorf("unexpected request body %+v", got)
	}
}

func TestSubmit_ConflictPreservesDraft(t *testing.T) {
	r := &fakeReserver{err: apperrors.Conflict("doctor is not available at this time")}
	rec := &events.Recorder{}
	c := newController(r, rec)
	fillReady(t, c)
	before := c.Draft()

	_, err := c.Submit(context.Background(), adminSession())
	if !apperrors.IsConflict(err) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if c.Draft() != before {
		t.Errorf("draft should be preserved, got %+v", c.Draft())
	}
	if c.State() != StateReady {
		t.Errorf("expected ready after failure, got %s", c.State())
	}
	if outcome, lastErr := c.LastOutcome(); outcome != OutcomeFailed || lastErr == nil {
		t.Errorf("expected failed outcome, got %q %v", outcome, lastErr)
	}
	if types := rec.Types(); len(types) != 1 || types[0] != events.TypeAppointmentConflict {
		t.Errorf("expected one conflict event, got %v", types)
	}
}

func TestSubmit_PublishFailureDoesNotChangeOutcome(t *testing.T) {
	rec := &events.Recorder{Err: errors.New("broker down")}
	c := newController(&fakeReserver{}, rec)
	fillReady(t, c)

	if _, err := c.Submit(context.Background(), adminSession()); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
}

func TestSubmit_SecondCallWhileInFlight(t *testing.T) {
	r := &fakeReserver{started: make(chan struct{}), release: make(chan struct{})}
	c := newController(r, nil)
	fillReady(t, c)

	done := make(chan error, 1)
	go func() {
		_, err := c.Submit(context.Background(), adminSession())
		done <- err
	}()
	<-r.started

	if c.State() != StateSubmitting {
		t.Errorf("expected submitting, got %s", c.State())
	}
	if _, err := c.Submit(context.Background(), adminSession()); !errors.Is(err, bookingerrors.ErrSubmissionInFlight) {
		t.Errorf("expected ErrSubmissionInFlight, got %v", err)
	}
	if err := c.SetStart("2024-06-01T11:00"); !errors.Is(err, bookingerrors.ErrSubmissionInFlight) {
		t.Errorf("edits should be rejected while submitting, got %v", err)
	}

	close(r.release)
	if err := <-done; err != nil {
		t.Fatalf("first Submit() error = %v", err)
	}
	if r.callCount() != 1 {
		t.Errorf("expected exactly one request, got %d", r.callCount())
	}
}

func TestSubmit_RequiresSession(t *testing.T) {
	r := &fakeReserver{}
	c := newController(r, nil)
	fillReady(t, c)

	if _, err := c.Submit(context.Background(), nil); !apperrors.IsNoSession(err) {
		t.Fatalf("expected no-session error, got %v", err)
	}
	if r.callCount() != 0 {
		t.Errorf("no request should be sent")
	}
}

func TestSelectSlot_BindsBothTimestampsToDate(t *testing.T) {
	c := newController(&fakeReserver{}, nil)
	_ = c.SetDoctorID("7")
	_ = c.SetDate("2024-06-01")

	if _, err := c.QuerySlots(context.Background(), adminSession()); err != nil {
		t.Fatalf("QuerySlots() error = %v", err)
	}
	if _, err := c.SelectSlot(0); err != nil {
		t.Fatalf("SelectSlot() error = %v", err)
	}

	d := c.Draft()
	if d.StartTime != "2024-06-01T09:00" || d.EndTime != "2024-06-01T09:30" {
		t.Errorf("unexpected draft times %s - %s", d.StartTime, d.EndTime)
	}
}

func TestParameterChange_KeepsManualTimes(t *testing.T) {
	c := newController(&fakeReserver{}, nil)
	_ = c.SetDoctorID("7")
	_ = c.SetDate("2024-06-01")
	if _, err := c.QuerySlots(context.Background(), adminSession()); err != nil {
		t.Fatalf("QuerySlots() error = %v", err)
	}
	_ = c.SetStart("2024-06-01T14:00")
	_ = c.SetEnd("2024-06-01T14:30")

	_ = c.SetDoctorID("8")

	if len(c.Slots().Slots()) != 0 {
		t.Errorf("doctor change must clear displayed slots")
	}
	d := c.Draft()
	if d.StartTime != "2024-06-01T14:00" || d.EndTime != "2024-06-01T14:30" {
		t.Errorf("manual times must survive a doctor change, got %+v", d)
	}
	if _, err := c.SelectSlot(0); !apperrors.IsValidation(err) {
		t.Errorf("selection from an invalidated list should fail, got %v", err)
	}
}

func TestReset(t *testing.T) {
	c := newController(&fakeReserver{}, nil)
	fillReady(t, c)
	c.Reset()

	if c.State() != StateEmpty {
		t.Errorf("expected empty after reset, got %s", c.State())
	}
	if c.Slots().Params().DoctorID != "" {
		t.Errorf("slot parameters should be reset")
	}
}

func TestSubmit_IdempotencyKeyReusedUntilEdit(t *testing.T) {
	r := &fakeReserver{err: apperrors.Fetch("failed to schedule appointment", errors.New("timeout"))}
	c := newController(r, nil)
	fillReady(t, c)

	_, _ = c.Submit(context.Background(), adminSession())
	_, _ = c.Submit(context.Background(), adminSession())
	_ = c.SetEnd("2024-06-01T10:00")
	_, _ = c.Submit(context.Background(), adminSession())

	if len(r.calls) != 3 {
		t.Fatalf("expected 3 requests, got %d", len(r.calls))
	}
	if r.calls[0].IdempotencyKey == "" || r.calls[0].IdempotencyKey != r.calls[1].IdempotencyKey {
		t.Errorf("retry of an unchanged draft should reuse the key: %q %q", r.calls[0].IdempotencyKey, r.calls[1].IdempotencyKey)
	}
	if r.calls[2].IdempotencyKey == r.calls[1].IdempotencyKey {
		t.Errorf("an edited draft needs a new key")
	}
}

func TestSubmit_EventsCarryAttemptKey(t *testing.T) {
	r := &fakeReserver{err: apperrors.Conflict("slot taken")}
	rec := &events.Recorder{}
	c := newController(r, rec)
	fillReady(t, c)

	_, _ = c.Submit(context.Background(), adminSession())
	r.err = nil
	if _, err := c.Submit(context.Background(), adminSession()); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	got := rec.Events()
	if len(got) != 2 {
		t.Fatalf("expected conflict and booked events, got %v", rec.Types())
	}
	key := r.calls[0].IdempotencyKey
	for _, e := range got {
		if e.CorrelationID != key {
			t.Errorf("%s correlation = %q, want attempt key %q", e.Type, e.CorrelationID, key)
		}
	}
}
