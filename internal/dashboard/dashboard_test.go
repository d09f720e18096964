package dashboard

import (
	"context"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"clinicbook/internal/booking"
	"clinicbook/internal/events"
	"clinicbook/internal/fakeapi"
	"clinicbook/internal/session"
	"clinicbook/pkg/client"
	"clinicbook/pkg/config"
	apperrors "clinicbook/pkg/errors"
	"clinicbook/pkg/logger"
	"clinicbook/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type clinic struct {
	api       *client.Client
	doctorID  model.ID
	patientID model.ID
}

func newClinic(t *testing.T) *clinic {
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

	c := &clinic{api: client.NewClient(srv.URL, 5*time.Second)}
	ctx := context.Background()
	for _, reg := range []model.Registration{
		{Email: "admin@clinic.test", Password: "adminpass", Role: model.RoleAdmin},
		{Email: "admin2@clinic.test", Password: "adminpass", Role: model.RoleAdmin},
		{Email: "doc@clinic.test", Password: "docpass", Role: model.RoleDoctor},
		{Email: "pat@clinic.test", Password: "patpass", Role: model.RolePatient},
	} {
		_, err := c.api.Auth.Register(ctx, reg)
		require.NoError(t, err)
	}
	return c
}

func (c *clinic) shell(rec *events.Recorder) *Shell {
	var pub events.Publisher = events.Nop{}
	if rec != nil {
		pub = rec
	}
	return NewShell(c.api, pub, Options{DefaultDurationMinutes: 30}, logger.Discard())
}

// seed creates the doctor and patient records and declares 09:00-12:00.
func (c *clinic) seed(t *testing.T) {
	t.Helper()
	ctx := context.Background()

	sh := c.shell(nil)
	d, err := sh.Login(ctx, "admin@clinic.test", "adminpass", "")
	require.NoError(t, err)
	admin := d.(*Admin)

	doctor, err := admin.CreateDoctor(ctx, model.DoctorCreate{FirstName: "ana", LastName: "Lima", Specialization: "Cardiology", Email: "doc@clinic.test"})
	require.NoError(t, err)
	patient, err := admin.CreatePatient(ctx, model.PatientCreate{FirstName: "Pat", LastName: "Doe", Email: "pat@clinic.test", Phone: "+1 212 555 1234"})
	require.NoError(t, err)
	c.doctorID, c.patientID = doctor.ID, patient.ID
	assert.True(t, admin.Directory.Snapshot().Stale, "creating records marks the directory stale")

	doc := c.shell(nil)
	pd, err := doc.Login(ctx, "doc@clinic.test", "docpass", "")
	require.NoError(t, err)
	practitioner, ok := pd.(*Practitioner)
	require.True(t, ok, "doctor should route to the practitioner dashboard, got %T", pd)

	require.NoError(t, practitioner.Availability.SetStart("2024-06-01T09:00"))
	require.NoError(t, practitioner.Availability.SetEnd("2024-06-01T12:00"))
	_, err = practitioner.Declare(ctx)
	require.NoError(t, err)
	assert.True(t, practitioner.Availability.Window().IsEmpty())
}

func adminDashboard(t *testing.T, c *clinic, email string, rec *events.Recorder) *Admin {
	t.Helper()
	d, err := c.shell(rec).Login(context.Background(), email, "adminpass", "")
	require.NoError(t, err)
	admin, ok := d.(*Admin)
	require.True(t, ok)
	return admin
}

func TestScenario_SlotsSpanDeclaredWindow(t *testing.T) {
	c := newClinic(t)
	c.seed(t)
	ctx := context.Background()

	admin := adminDashboard(t, c, "admin@clinic.test", nil)
	snap := admin.Directory.Snapshot()
	require.Len(t, snap.Doctors, 1)
	require.Len(t, snap.Patients, 1)
	assert.Equal(t, "+12125551234", snap.Patients[0].Phone)

	require.NoError(t, admin.Booking.SetDoctorID(c.doctorID))
	require.NoError(t, admin.Booking.SetDate("2024-06-01"))
	require.NoError(t, admin.Booking.SetDuration(30))

	slots, err := admin.QuerySlots(ctx)
	require.NoError(t, err)
	require.Len(t, slots, 6)
	assert.Equal(t, "09:00", slots[0].Start)
	assert.Equal(t, "12:00", slots[len(slots)-1].End)
	for i, slot := range slots {
		assert.Equal(t, 30*time.Minute, slot.Duration())
		if i > 0 {
			assert.Equal(t, slots[i-1].End, slot.Start, "no gaps or overlaps")
		}
	}
}

func TestScenario_SelectSlotAndBook(t *testing.T) {
	c := newClinic(t)
	c.seed(t)
	ctx := context.Background()
	rec := &events.Recorder{}

	admin := adminDashboard(t, c, "admin@clinic.test", rec)
	require.NoError(t, admin.Booking.SetPatientID(c.patientID))
	require.NoError(t, admin.Booking.SetDoctorID(c.doctorID))
	require.NoError(t, admin.Booking.SetDate("2024-06-01"))
	_, err := admin.QuerySlots(ctx)
	require.NoError(t, err)

	slot, err := admin.Booking.SelectSlot(0)
	require.NoError(t, err)
	assert.Equal(t, model.SlotCandidate{Start: "09:00", End: "09:30"}, slot)

	draft := admin.Booking.Draft()
	assert.Equal(t, "2024-06-01T09:00", draft.StartTime)
	assert.Equal(t, "2024-06-01T09:30", draft.EndTime)
	assert.Equal(t, booking.StateReady, admin.Booking.State())

	appt, err := admin.Submit(ctx)
	require.NoError(t, err)
	assert.Equal(t, c.doctorID, appt.DoctorID)
	assert.Equal(t, booking.StateEmpty, admin.Booking.State())
	assert.Empty(t, admin.Booking.Slots().Slots(), "booked slot set must be re-queried")
	assert.Equal(t, []string{events.TypeAppointmentBooked}, rec.Types())

	slots, err := admin.QuerySlots(ctx)
	require.NoError(t, err)
	assert.Len(t, slots, 5)
}

func TestScenario_ConcurrentAdminsOnlyOneBooks(t *testing.T) {
	c := newClinic(t)
	c.seed(t)
	ctx := context.Background()

	admins := []*Admin{
		adminDashboard(t, c, "admin@clinic.test", nil),
		adminDashboard(t, c, "admin2@clinic.test", nil),
	}
	for _, a := range admins {
		require.NoError(t, a.Booking.SetPatientID(c.patientID))
		require.NoError(t, a.Booking.SetDoctorID(c.doctorID))
		require.NoError(t, a.Booking.SetDate("2024-06-01"))
		_, err := a.QuerySlots(ctx)
		require.NoError(t, err)
		_, err = a.Booking.SelectSlot(2)
		require.NoError(t, err)
	}

	errs := make([]error, len(admins))
	var wg sync.WaitGroup
	for i, a := range admins {
		wg.Add(1)
		go func(i int, a *Admin) {
			defer wg.Done()
			_, errs[i] = a.Submit(ctx)
		}(i, a)
	}
	wg.Wait()

	var ok, conflicts int
	for i, err := range errs {
		switch {
		case err == nil:
			ok++
		case apperrors.IsConflict(err):
			conflicts++
			draft := admins[i].Booking.Draft()
			assert.Equal(t, "2024-06-01T10:00", draft.StartTime, "losing draft must stay filled")
			assert.Equal(t, booking.StateReady, admins[i].Booking.State())
			outcome, lastErr := admins[i].Booking.LastOutcome()
			assert.Equal(t, booking.OutcomeFailed, outcome)
			assert.Error(t, lastErr)
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, conflicts)
}

func TestPatientDashboard_BooksForSelf(t *testing.T) {
	c := newClinic(t)
	c.seed(t)
	ctx := context.Background()

	d, err := c.shell(nil).Login(ctx, "pat@clinic.test", "patpass", model.RoleAdmin)
	require.NoError(t, err)
	patient, ok := d.(*Patient)
	require.True(t, ok, "the collaborator's role wins over the claimed one, got %T", d)
	assert.Equal(t, c.patientID, patient.Self().ID)
	assert.Equal(t, c.patientID, patient.Booking.Draft().PatientID)

	require.NoError(t, patient.Booking.SetDoctorID(c.doctorID))
	require.NoError(t, patient.Booking.SetDate("2024-06-01"))
	_, err = patient.QuerySlots(ctx)
	require.NoError(t, err)
	_, err = patient.Booking.SelectSlot(1)
	require.NoError(t, err)

	appt, err := patient.Submit(ctx)
	require.NoError(t, err)
	assert.Equal(t, c.patientID, appt.PatientID)
	assert.Equal(t, c.patientID, patient.Booking.Draft().PatientID, "patient id is kept for the next booking")
}

func TestShell_LogoutDiscardsDashboard(t *testing.T) {
	c := newClinic(t)
	sh := c.shell(nil)
	ctx := context.Background()

	assert.Equal(t, session.ViewLogin, sh.View())
	assert.Nil(t, sh.Current())

	_, err := sh.Login(ctx, "admin@clinic.test", "adminpass", "")
	require.NoError(t, err)
	assert.Equal(t, session.ViewAdmin, sh.View())
	require.NotNil(t, sh.Current())

	sh.Logout()
	assert.Equal(t, session.ViewLogin, sh.View())
	assert.Nil(t, sh.Current())
	assert.Nil(t, sh.Session())
}

func TestShell_FailedLoginKeepsLoginView(t *testing.T) {
	c := newClinic(t)
	sh := c.shell(nil)

	_, err := sh.Login(context.Background(), "admin@clinic.test", "wrong", model.RoleAdmin)
	assert.True(t, apperrors.IsAuth(err))
	assert.Equal(t, session.ViewLogin, sh.View())
}

func TestShell_UnknownRoleIsUnsupported(t *testing.T) {
	c := newClinic(t)
	sh := c.shell(nil)

	d := sh.build(session.New("token", model.Role("nurse"), "n@clinic.test"))
	assert.Equal(t, session.ViewUnsupported, d.View())
	assert.NoError(t, d.Enter(context.Background()))
}

func TestShell_Register(t *testing.T) {
	c := newClinic(t)
	sh := c.shell(nil)

	user, err := sh.Register(context.Background(), model.Registration{Email: "New@Clinic.Test", Password: "secret1", Role: model.RolePatient})
	require.NoError(t, err)
	assert.Equal(t, "new@clinic.test", user.Email)

	_, err = sh.Register(context.Background(), model.Registration{Email: "bad", Password: "secret1", Role: model.RolePatient})
	assert.True(t, apperrors.IsValidation(err))
}
