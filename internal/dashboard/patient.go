package dashboard

import (
	"context"
	"strings"

	"clinicbook/internal/booking"
	"clinicbook/internal/directory"
	"clinicbook/internal/events"
	"clinicbook/internal/session"
	"clinicbook/internal/slots"
	"clinicbook/pkg/client"
	apperrors "clinicbook/pkg/errors"
	"clinicbook/pkg/logger"
	"clinicbook/pkg/model"
)

// Patient books appointments for the patient record linked to the session.
type Patient struct {
	sess      *session.Session
	Directory *directory.Cache
	Booking   *booking.Controller
	self      model.Patient
	log       *logger.Logger
}

func newPatient(sess *session.Session, api *client.Client, publisher events.Publisher, opts Options, log *logger.Logger) *Patient {
	engine := slots.NewEngine(api.Doctors, opts.DefaultDurationMinutes, log)
	return &Patient{
		sess:      sess,
		Directory: directory.NewCache(api.Doctors, api.Patients, log),
		Booking:   booking.NewController(api.Appointments, engine, publisher, log),
		log:       log.Component("patient_dashboard"),
	}
}

func (p *Patient) View() session.View { return session.ViewPatient }

// Enter loads the doctors and the caller's own patient record, and fixes the
// draft's patient to it.
func (p *Patient) Enter(ctx context.Context) error {
	snap, err := p.Directory.Activate(ctx, p.sess)
	if err != nil {
		return err
	}

	for _, record := range snap.Patients {
		if strings.EqualFold(record.Email(), p.sess.Email()) {
			p.self = record
			return p.Booking.SetPatientID(record.ID)
		}
	}
	// A lone record with no linked email is taken as the caller's own.
	if len(snap.Patients) == 1 && snap.Patients[0].Email() == "" {
		p.self = snap.Patients[0]
		return p.Booking.SetPatientID(p.self.ID)
	}
	p.log.Warn("No patient record linked to this account")
	return apperrors.NotFound("patient record for " + p.sess.Email())
}

func (p *Patient) Self() model.Patient { return p.self }

func (p *Patient) QuerySlots(ctx context.Context) ([]model.SlotCandidate, error) {
	return p.Booking.QuerySlots(ctx, p.sess)
}

// Submit books for the caller; the patient id is restored after each success.
func (p *Patient) Submit(ctx context.Context) (*model.Appointment, error) {
	appt, err := p.Booking.Submit(ctx, p.sess)
	if err == nil && !p.self.ID.IsZero() {
		_ = p.Booking.SetPatientID(p.self.ID)
	}
	return appt, err
}
