package slots

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"clinicbook/internal/session"
	apperrors "clinicbook/pkg/errors"
	"clinicbook/pkg/logger"
	"clinicbook/pkg/model"
	"clinicbook/pkg/validation"
)

// ErrStaleResult is returned when the parameters changed while a query was in
// flight. The response is discarded, never applied.
var ErrStaleResult = errors.New("slot query superseded by newer parameters")

// Source computes free intervals for a practitioner. *client.DoctorClient satisfies it.
type Source interface {
	AvailableSlots(ctx context.Context, token string, doctorID model.ID, date string, durationMinutes int) ([]model.SlotCandidate, error)
}

// Params is the tuple every slot set is computed under.
type Params struct {
	DoctorID        model.ID `validate:"required"`
	Date            string   `validate:"required,datetime=2006-01-02"`
	DurationMinutes int      `validate:"gt=0,max=480"`
}

func (p Params) String() string {
	return fmt.Sprintf("doctor=%s date=%s duration=%dm", p.DoctorID, p.Date, p.DurationMinutes)
}

// Engine holds the current query parameters and the single slot set derived
// from them. Every parameter change bumps the generation and drops the set.
type Engine struct {
	mu         sync.Mutex
	source     Source
	validator  *validation.Validator
	log        *logger.Logger
	params     Params
	generation uint64
	slots      []model.SlotCandidate
}

func NewEngine(source Source, defaultDuration int, log *logger.Logger) *Engine {
	return &Engine{
		source:    source,
		validator: validation.New(log),
		log:       log.Component("slots"),
		params:    Params{DurationMinutes: defaultDuration},
	}
}

func (e *Engine) SetDoctor(id model.ID) {
	e.update(func(p *Params) { p.DoctorID = id })
}

func (e *Engine) SetDate(date string) {
	e.update(func(p *Params) { p.Date = date })
}

func (e *Engine) SetDuration(minutes int) {
	e.update(func(p *Params) { p.DurationMinutes = minutes })
}

func (e *Engine) update(mutate func(*Params)) {
	e.mu.Lock()
	defer e.mu.Unlock()

	next := e.params
	mutate(&next)
	if next == e.params {
		return
	}
	e.params = next
	e.invalidateLocked()
}

// invalidateLocked supersedes any in-flight query and clears the displayed set.
func (e *Engine) invalidateLocked() {
	e.generation++
	if len(e.slots) > 0 {
		e.log.Debug("Slot set invalidated", "generation", e.generation, "params", e.params.String())
	}
	e.slots = nil
}

// Invalidate drops the current set, e.g. after a booking consumed one of its slots.
func (e *Engine) Invalidate() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.invalidateLocked()
}

func (e *Engine) Params() Params {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.params
}

func (e *Engine) Generation() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.generation
}

// Slots returns a copy of the displayed set; empty after any invalidation.
func (e *Engine) Slots() []model.SlotCandidate {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]model.SlotCandidate(nil), e.slots...)
}

// Query re-runs the query with the current parameters.
func (e *Engine) Query(ctx context.Context, sess *session.Session) ([]model.SlotCandidate, error) {
	return e.QuerySlots(ctx, sess, e.Params())
}

// QuerySlots validates p locally, installs it as the current tuple and fetches
// candidates. The previous set is cleared at issue time; a failure leaves it
// cleared. If the tuple changes before the response arrives the result is
// dropped and ErrStaleResult returned.
func (e *Engine) QuerySlots(ctx context.Context, sess *session.Session, p Params) ([]model.SlotCandidate, error) {
	if err := session.Require(sess); err != nil {
		return nil, err
	}
	if err := e.validator.Struct(p); err != nil {
		return nil, validationError(err)
	}

	e.mu.Lock()
	e.params = p
	e.invalidateLocked()
	tag := e.generation
	e.mu.Unlock()

	e.log.Info("Querying slots", "doctor_id", p.DoctorID, "date", p.Date, "duration_minutes", p.DurationMinutes, "generation", tag)

	candidates, err := e.source.AvailableSlots(ctx, sess.Token(), p.DoctorID, p.Date, p.DurationMinutes)

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.generation != tag {
		e.log.Info("Discarding stale slot response", "issued_generation", tag, "current_generation", e.generation)
		return nil, ErrStaleResult
	}
	if err != nil {
		e.log.Warn("Slot query failed", "doctor_id", p.DoctorID, "date", p.Date, "error", err)
		return nil, err
	}

	e.slots = e.accept(candidates, p)
	e.log.Info("Slots received", "count", len(e.slots), "generation", tag)
	return append([]model.SlotCandidate(nil), e.slots...), nil
}

// accept keeps only well-formed candidates of the requested duration.
func (e *Engine) accept(candidates []model.SlotCandidate, p Params) []model.SlotCandidate {
	want := model.MinutesDuration(p.DurationMinutes)
	accepted := make([]model.SlotCandidate, 0, len(candidates))
	for _, c := range candidates {
		if _, _, err := c.Bind(p.Date); err != nil {
			e.log.Warn("Dropping malformed slot candidate", "slot", c.String(), "error", err)
			continue
		}
		if c.Duration() != want {
			e.log.Warn("Dropping slot candidate with unexpected duration", "slot", c.String(), "duration", c.Duration())
			continue
		}
		accepted = append(accepted, c)
	}
	return accepted
}

// Select binds the candidate at index to the date the set was computed for
// and returns both timestamps together.
func (e *Engine) Select(index int) (model.SlotCandidate, string, string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.slots) == 0 {
		return model.SlotCandidate{}, "", "", apperrors.Validation("no slots available; query slots first", nil)
	}
	if index < 0 || index >= len(e.slots) {
		return model.SlotCandidate{}, "", "", apperrors.Validation(
			fmt.Sprintf("slot %d does not exist; choose 1-%d", index+1, len(e.slots)), nil)
	}

	slot := e.slots[index]
	start, end, err := slot.Bind(e.params.Date)
	if err != nil {
		return model.SlotCandidate{}, "", "", apperrors.ValidationCause("slot cannot be bound to the selected date", err)
	}
	return slot, start, end, nil
}

// Reset returns the engine to its initial state, keeping the duration.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.params = Params{DurationMinutes: e.params.DurationMinutes}
	e.invalidateLocked()
}

func validationError(err error) error {
	var verrs validation.ValidationErrors
	if errors.As(err, &verrs) {
		return apperrors.Validation("invalid slot query", verrs.Fields())
	}
	return apperrors.ValidationCause("invalid slot query", err)
}
