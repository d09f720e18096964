package availability

import (
	"context"
	"errors"
	"strings"
	"sync"

	"clinicbook/internal/events"
	"clinicbook/internal/session"
	apperrors "clinicbook/pkg/errors"
	"clinicbook/pkg/logger"
	"clinicbook/pkg/model"
	"clinicbook/pkg/validation"
)

// ErrDeclarationInFlight is returned by Declare and the setters while a
// declaration request is outstanding.
var ErrDeclarationInFlight = errors.New("availability declaration already in flight")

type Declarer interface {
	Create(ctx context.Context, token string, window model.AvailabilityCreate) (*model.Availability, error)
}

// Form is the practitioner's availability declaration. Declared windows are
// not kept locally; the form resets after each successful declaration.
type Form struct {
	mu        sync.Mutex
	window    model.AvailabilityCreate
	declaring bool
	api       Declarer
	validator *validation.Validator
	publisher events.Publisher
	log       *logger.Logger
}

func NewForm(api Declarer, publisher events.Publisher, log *logger.Logger) *Form {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &Form{
		api:       api,
		validator: validation.New(log),
		publisher: publisher,
		log:       log.Component("availability"),
	}
}

func (f *Form) SetStart(raw string) error {
	return f.edit(func(w *model.AvailabilityCreate) { w.StartTime = strings.TrimSpace(raw) })
}

func (f *Form) SetEnd(raw string) error {
	return f.edit(func(w *model.AvailabilityCreate) { w.EndTime = strings.TrimSpace(raw) })
}

// edit applies mutate unless a declaration is outstanding.
func (f *Form) edit(mutate func(*model.AvailabilityCreate)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.declaring {
		return ErrDeclarationInFlight
	}
	mutate(&f.window)
	return nil
}

// Declaring reports whether a declaration request is outstanding.
func (f *Form) Declaring() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.declaring
}

func (f *Form) Window() model.AvailabilityCreate {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.window
}

func (f *Form) Reset() error {
	return f.edit(func(w *model.AvailabilityCreate) { *w = model.AvailabilityCreate{} })
}

func (f *Form) Validate(window model.AvailabilityCreate) error {
	if err := f.validator.Struct(window); err != nil {
		var verrs validation.ValidationErrors
		if errors.As(err, &verrs) {
			return apperrors.Validation("invalid availability window", verrs.Fields())
		}
		return apperrors.ValidationCause("invalid availability window", err)
	}

	start, _ := model.ParseTimestamp(window.StartTime)
	end, _ := model.ParseTimestamp(window.EndTime)
	if !end.After(start) {
		return apperrors.Validation("invalid availability window",
			validation.Single("EndTime", "end_time must be after start_time").Fields())
	}
	return nil
}

// Declare sends the current window. The form is frozen until the request
// returns; a second call meanwhile gets ErrDeclarationInFlight.
func (f *Form) Declare(ctx context.Context, sess *session.Session) (*model.Availability, error) {
	if err := session.Require(sess); err != nil {
		return nil, err
	}

	f.mu.Lock()
	if f.declaring {
		f.mu.Unlock()
		return nil, ErrDeclarationInFlight
	}
	window := f.window
	if err := f.Validate(window); err != nil {
		f.mu.Unlock()
		return nil, err
	}
	f.declaring = true
	f.mu.Unlock()

	window = window.Normalized()
	created, err := f.api.Create(ctx, sess.Token(), window)

	f.mu.Lock()
	f.declaring = false
	if err == nil {
		f.window = model.AvailabilityCreate{}
	}
	f.mu.Unlock()

	if err != nil {
		f.log.Warn("Availability declaration failed", "start_time", window.StartTime, "end_time", window.EndTime, "error", err)
		return nil, err
	}

	f.log.Info("Availability declared", "start_time", window.StartTime, "end_time", window.EndTime)

	key := created.DoctorID.String()
	if key == "" {
		key = sess.Email()
	}
	event := events.New(events.TypeAvailabilityDeclared, key, map[string]any{
		"availability_id": created.ID.String(),
		"doctor_id":       created.DoctorID.String(),
		"start_time":      window.StartTime,
		"end_time":        window.EndTime,
	})
	if err := f.publisher.Publish(ctx, event); err != nil {
		f.log.Warn("Failed to publish availability event", "error", err)
	}

	return created, nil
}
