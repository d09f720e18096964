package dashboard

import (
	"context"

	"clinicbook/internal/booking"
	"clinicbook/internal/directory"
	"clinicbook/internal/events"
	"clinicbook/internal/records"
	"clinicbook/internal/session"
	"clinicbook/internal/slots"
	"clinicbook/pkg/client"
	"clinicbook/pkg/logger"
	"clinicbook/pkg/model"
)

// Admin manages records and books appointments for any patient.
type Admin struct {
	sess      *session.Session
	Directory *directory.Cache
	Booking   *booking.Controller
	records   *records.Service
}

func newAdmin(sess *session.Session, api *client.Client, publisher events.Publisher, opts Options, log *logger.Logger) *Admin {
	dir := directory.NewCache(api.Doctors, api.Patients, log)
	recs := records.NewService(api.Auth, api.Doctors, api.Patients, log)
	recs.OnCreate(dir.MarkStale)

	engine := slots.NewEngine(api.Doctors, opts.DefaultDurationMinutes, log)
	return &Admin{
		sess:      sess,
		Directory: dir,
		Booking:   booking.NewController(api.Appointments, engine, publisher, log),
		records:   recs,
	}
}

func (a *Admin) View() session.View { return session.ViewAdmin }

// Enter loads the directory once for this session.
func (a *Admin) Enter(ctx context.Context) error {
	_, err := a.Directory.Activate(ctx, a.sess)
	return err
}

func (a *Admin) Refresh(ctx context.Context) (directory.Snapshot, error) {
	return a.Directory.Refresh(ctx, a.sess)
}

func (a *Admin) CreateDoctor(ctx context.Context, in model.DoctorCreate) (*model.Doctor, error) {
	return a.records.CreateDoctor(ctx, a.sess, in)
}

func (a *Admin) CreatePatient(ctx context.Context, in model.PatientCreate) (*model.Patient, error) {
	return a.records.CreatePatient(ctx, a.sess, in)
}

func (a *Admin) QuerySlots(ctx context.Context) ([]model.SlotCandidate, error) {
	return a.Booking.QuerySlots(ctx, a.sess)
}

func (a *Admin) Submit(ctx context.Context) (*model.Appointment, error) {
	return a.Booking.Submit(ctx, a.sess)
}
