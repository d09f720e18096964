package booking

import (
	"context"
	"errors"
	"strings"
	"sync"

	bookingerrors "clinicbook/internal/booking/errors"
	"clinicbook/internal/booking/validator"
	"clinicbook/internal/events"
	"clinicbook/internal/session"
	"clinicbook/internal/slots"
	apperrors "clinicbook/pkg/errors"
	"clinicbook/pkg/logger"
	"clinicbook/pkg/model"
	"clinicbook/pkg/validation"

	"github.com/google/uuid"
)

type State string

const (
	StateEmpty           State = "empty"
	StatePartiallyFilled State = "partially_filled"
	StateReady           State = "ready"
	StateSubmitting      State = "submitting"
)

// Outcome records how the last submission attempt ended.
type Outcome string

const (
	OutcomeNone      Outcome = ""
	OutcomeSubmitted Outcome = "submitted"
	OutcomeFailed    Outcome = "failed"
)

// Reserver places a reservation. *client.AppointmentClient satisfies it.
type Reserver interface {
	Create(ctx context.Context, token string, appt model.AppointmentCreate) (*model.Appointment, error)
}

// Controller owns the booking draft and sequences it into a reservation.
// Lock order is Controller, then slots.Engine.
type Controller struct {
	mu          sync.Mutex
	draft       model.BookingDraft
	submitting  bool
	lastOutcome Outcome
	lastErr     error
	attemptKey  string

	reserver  Reserver
	slots     *slots.Engine
	validator *validator.DraftValidator
	publisher events.Publisher
	log       *logger.Logger
}

func NewController(reserver Reserver, engine *slots.Engine, publisher events.Publisher, log *logger.Logger) *Controller {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &Controller{
		reserver:  reserver,
		slots:     engine,
		validator: validator.NewDraftValidator(log),
		publisher: publisher,
		log:       log.Component("booking"),
	}
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked()
}

func (c *Controller) stateLocked() State {
	switch {
	case c.submitting:
		return StateSubmitting
	case c.draft.IsEmpty():
		return StateEmpty
	case c.validator.Validate(&c.draft) == nil:
		return StateReady
	default:
		return StatePartiallyFilled
	}
}

func (c *Controller) Draft() model.BookingDraft {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft
}

// LastOutcome returns the result of the most recent submission and its error, if any.
func (c *Controller) LastOutcome() (Outcome, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastOutcome, c.lastErr
}

// Slots exposes the engine the controller keeps in step with the draft.
func (c *Controller) Slots() *slots.Engine {
	return c.slots
}

func (c *Controller) edit(mutate func()) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.submitting {
		return bookingerrors.ErrSubmissionInFlight
	}
	mutate()
	c.attemptKey = ""
	return nil
}

func (c *Controller) SetPatientID(id model.ID) error {
	return c.edit(func() { c.draft.PatientID = model.ID(strings.TrimSpace(id.String())) })
}

// SetDoctorID also retargets the slot query; the displayed slots are dropped
// but manually entered times are kept.
func (c *Controller) SetDoctorID(id model.ID) error {
	id = model.ID(strings.TrimSpace(id.String()))
	return c.edit(func() {
		c.draft.DoctorID = id
		c.slots.SetDoctor(id)
	})
}

func (c *Controller) SetDate(date string) error {
	return c.edit(func() { c.slots.SetDate(strings.TrimSpace(date)) })
}

func (c *Controller) SetDuration(minutes int) error {
	return c.edit(func() { c.slots.SetDuration(minutes) })
}

func (c *Controller) SetStart(raw string) error {
	return c.edit(func() { c.draft.StartTime = strings.TrimSpace(raw) })
}

func (c *Controller) SetEnd(raw string) error {
	return c.edit(func() { c.draft.EndTime = strings.TrimSpace(raw) })
}

// QuerySlots runs the slot query for the current doctor, date and duration.
func (c *Controller) QuerySlots(ctx context.Context, sess *session.Session) ([]model.SlotCandidate, error) {
	return c.slots.Query(ctx, sess)
}

// SelectSlot writes both timestamps of the indexed candidate in one step.
func (c *Controller) SelectSlot(index int) (model.SlotCandidate, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.submitting {
		return model.SlotCandidate{}, bookingerrors.ErrSubmissionInFlight
	}

	slot, start, end, err := c.slots.Select(index)
	if err != nil {
		return model.SlotCandidate{}, err
	}
	c.draft.StartTime, c.draft.EndTime = start, end
	c.attemptKey = ""
	c.log.Debug("Slot selected", "slot", slot.String(), "start_time", start, "end_time", end)
	return slot, nil
}

// Submit reserves the draft. Only a Ready draft is sent; a call made while a
// previous one is in flight returns ErrSubmissionInFlight without a request.
// Success clears the draft, failure keeps it for a retry. Retries of an
// unchanged draft reuse its idempotency key.
func (c *Controller) Submit(ctx context.Context, sess *session.Session) (*model.Appointment, error) {
	if err := session.Require(sess); err != nil {
		return nil, err
	}

	c.mu.Lock()
	if c.submitting {
		c.mu.Unlock()
		c.log.Debug("Submission ignored, previous one still in flight")
		return nil, bookingerrors.ErrSubmissionInFlight
	}
	draft := c.draft
	if err := c.validator.Validate(&draft); err != nil {
		c.mu.Unlock()
		return nil, draftError(err)
	}
	if c.attemptKey == "" {
		c.attemptKey = uuid.NewString()
	}
	req := draft.ToCreate()
	req.IdempotencyKey = c.attemptKey
	c.submitting = true
	c.mu.Unlock()

	c.log.Info("Submitting reservation",
		"doctor_id", draft.DoctorID,
		"patient_id", draft.PatientID,
		"start_time", draft.StartTime,
		"end_time", draft.EndTime,
	)

	appt, err := c.reserver.Create(ctx, sess.Token(), req)

	c.mu.Lock()
	c.submitting = false
	if err != nil {
		c.lastOutcome, c.lastErr = OutcomeFailed, err
		c.mu.Unlock()

		if apperrors.IsConflict(err) {
			c.log.Warn("Reservation rejected, slot taken", "doctor_id", draft.DoctorID, "start_time", draft.StartTime)
			c.publish(ctx, events.New(events.TypeAppointmentConflict, draft.DoctorID.String(), draftData(draft)).
				WithCorrelationID(req.IdempotencyKey))
		} else {
			c.log.Error("Reservation failed", "doctor_id", draft.DoctorID, "error", err)
		}
		return nil, err
	}
	c.draft = model.BookingDraft{}
	c.attemptKey = ""
	c.lastOutcome, c.lastErr = OutcomeSubmitted, nil
	c.slots.Invalidate()
	c.mu.Unlock()

	c.log.Info("Reservation confirmed", "appointment_id", appt.ID, "doctor_id", appt.DoctorID)

	data := draftData(draft)
	data["appointment_id"] = appt.ID.String()
	c.publish(ctx, events.New(events.TypeAppointmentBooked, draft.DoctorID.String(), data).
		WithCorrelationID(req.IdempotencyKey))

	return appt, nil
}

// Reset discards the draft and slot state, e.g. when the session ends.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.draft = model.BookingDraft{}
	c.attemptKey = ""
	c.lastOutcome, c.lastErr = OutcomeNone, nil
	c.slots.Reset()
}

func (c *Controller) publish(ctx context.Context, event events.Event) {
	if err := c.publisher.Publish(ctx, event); err != nil {
		c.log.Warn("Failed to publish booking event", "type", event.Type, "error", err)
	}
}

func draftData(d model.BookingDraft) map[string]any {
	return map[string]any{
		"doctor_id":  d.DoctorID.String(),
		"patient_id": d.PatientID.String(),
		"start_time": d.StartTime,
		"end_time":   d.EndTime,
	}
}

func draftError(err error) error {
	var verrs validation.ValidationErrors
	if errors.As(err, &verrs) {
		return apperrors.Validation(bookingerrors.ErrDraftNotReady.Error(), verrs.Fields())
	}
	return apperrors.ValidationCause(bookingerrors.ErrDraftNotReady.Error(), err)
}
