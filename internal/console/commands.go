package console

import (
	"strings"

	"clinicbook/internal/booking"
	"clinicbook/internal/dashboard"
	"clinicbook/internal/directory"
	"clinicbook/internal/session"
	apperrors "clinicbook/pkg/errors"
	"clinicbook/pkg/model"
)

var (
	loginView   = []session.View{session.ViewLogin}
	signedIn    = []session.View{session.ViewAdmin, session.ViewPractitioner, session.ViewPatient, session.ViewUnsupported}
	bookingView = []session.View{session.ViewAdmin, session.ViewPatient}
	adminView   = []session.View{session.ViewAdmin}
	formViews   = []session.View{session.ViewAdmin, session.ViewPatient, session.ViewPractitioner}
)

// commands returns the full command set; help is bound to the engine that
// ends up holding it.
func commands(help func(c *Context) error) []*Command {
	return []*Command{
		{Name: "help", Usage: "help", Summary: "list the commands of this view", Run: help},
		{Name: "view", Usage: "view", Summary: "show the current view and session", Run: runView},
		{Name: "login", Usage: "login <email> <password> [role]", Summary: "sign in", Views: loginView, MinArgs: 2, Run: runLogin},
		{Name: "register", Usage: "register <email> <password> <role>", Summary: "create an account", Views: loginView, MinArgs: 3, Run: runRegister},
		{Name: "logout", Usage: "logout", Summary: "end the session", Views: signedIn, Run: runLogout},

		{Name: "doctors", Usage: "doctors [refresh]", Summary: "list doctors", Views: bookingView, Run: runDoctors},
		{Name: "patients", Usage: "patients [refresh]", Summary: "list patients", Views: bookingView, Run: runPatients},
		{Name: "add-doctor", Usage: `add-doctor <first> <last> <specialization> [email]`, Summary: "create a doctor record", Views: adminView, MinArgs: 3, Run: runAddDoctor},
		{Name: "add-patient", Usage: `add-patient <first> <last> <email> [phone] [insurance]`, Summary: "create a patient record", Views: adminView, MinArgs: 3, Run: runAddPatient},

		{Name: "practitioner", Usage: "practitioner <doctor-id>", Summary: "choose the doctor to book", Views: bookingView, MinArgs: 1, Run: runPractitioner},
		{Name: "patient", Usage: "patient <patient-id>", Summary: "choose the patient to book for", Views: adminView, MinArgs: 1, Run: runPatient},
		{Name: "date", Usage: "date <YYYY-MM-DD>", Summary: "set the day to query", Views: bookingView, MinArgs: 1, Run: runDate},
		{Name: "duration", Usage: "duration <minutes>", Summary: "set the appointment length", Views: bookingView, MinArgs: 1, Run: runDuration},
		{Name: "slots", Usage: "slots", Summary: "query free slots", Views: bookingView, Run: runSlots},
		{Name: "select", Usage: "select <n>", Summary: "pick slot n from the last list", Views: bookingView, MinArgs: 1, Run: runSelect},
		{Name: "start", Usage: "start <YYYY-MM-DDTHH:MM>", Summary: "set the start time by hand", Views: formViews, MinArgs: 1, Run: runStart},
		{Name: "end", Usage: "end <YYYY-MM-DDTHH:MM>", Summary: "set the end time by hand", Views: formViews, MinArgs: 1, Run: runEnd},
		{Name: "draft", Usage: "draft", Summary: "show the form being filled", Views: formViews, Run: runDraft},
		{Name: "book", Usage: "book", Summary: "submit the reservation", Views: bookingView, Run: runBook},
		{Name: "declare", Usage: "declare [start] [end]", Summary: "declare an availability window", Views: []session.View{session.ViewPractitioner}, Run: runDeclare},
	}
}

func bookingOf(d dashboard.Dashboard) (*booking.Controller, *directory.Cache, error) {
	switch v := d.(type) {
	case *dashboard.Admin:
		return v.Booking, v.Directory, nil
	case *dashboard.Patient:
		return v.Booking, v.Directory, nil
	}
	return nil, nil, apperrors.NoSession()
}

func runView(c *Context) error {
	sess := c.Shell.Session()
	if !sess.Authenticated() {
		c.Printf("view: %s\n", c.Shell.View())
		return nil
	}
	c.Printf("view: %s (%s, %s)\n", c.Shell.View(), sess.Email(), sess.Role())
	return nil
}

func runLogin(c *Context) error {
	d, err := c.Shell.Login(c.Ctx, c.Arg(0), c.Arg(1), model.ParseRole(c.Arg(2)))
	if d != nil {
		c.Printf("Signed in, view: %s\n", d.View())
	}
	if err != nil {
		return err
	}
	if u, ok := d.(*dashboard.Unsupported); ok {
		c.Printf("Role %q has no dashboard.\n", u.Role())
	}
	return nil
}

func runRegister(c *Context) error {
	user, err := c.Shell.Register(c.Ctx, model.Registration{
		Email:    c.Arg(0),
		Password: c.Arg(1),
		Role:     model.ParseRole(c.Arg(2)),
	})
	if err != nil {
		return err
	}
	c.Printf("Registered %s, you can log in now.\n", user.Email)
	return nil
}

func runLogout(c *Context) error {
	c.Shell.Logout()
	c.Printf("Signed out.\n")
	return nil
}

// needsRefresh is true on request, after a local create, or when the
// directory never loaded.
func needsRefresh(c *Context, snap directory.Snapshot) bool {
	return c.Arg(0) == "refresh" || snap.Stale || snap.RefreshedAt.IsZero()
}

func directorySnapshot(c *Context) (directory.Snapshot, error) {
	d := c.Shell.Current()
	switch v := d.(type) {
	case *dashboard.Admin:
		if needsRefresh(c, v.Directory.Snapshot()) {
			return v.Refresh(c.Ctx)
		}
		return v.Directory.Snapshot(), nil
	case *dashboard.Patient:
		if needsRefresh(c, v.Directory.Snapshot()) {
			return v.Directory.Refresh(c.Ctx, c.Shell.Session())
		}
		return v.Directory.Snapshot(), nil
	}
	return directory.Snapshot{}, apperrors.NoSession()
}

func runDoctors(c *Context) error {
	snap, err := directorySnapshot(c)
	if err != nil {
		return err
	}
	if len(snap.Doctors) == 0 {
		c.Printf("No doctors.\n")
	}
	for _, d := range snap.Doctors {
		c.Printf("%5s  %-30s %s\n", d.ID, d.FullName(), d.Specialization)
	}
	return nil
}

func runPatients(c *Context) error {
	snap, err := directorySnapshot(c)
	if err != nil {
		return err
	}
	if len(snap.Patients) == 0 {
		c.Printf("No patients.\n")
	}
	for _, p := range snap.Patients {
		c.Printf("%5s  %-30s %s\n", p.ID, p.FullName(), p.Email())
	}
	return nil
}

func runAddDoctor(c *Context) error {
	admin, ok := c.Shell.Current().(*dashboard.Admin)
	if !ok {
		return apperrors.NoSession()
	}
	doctor, err := admin.CreateDoctor(c.Ctx, model.DoctorCreate{
		FirstName:      c.Arg(0),
		LastName:       c.Arg(1),
		Specialization: c.Arg(2),
		Email:          c.Arg(3),
	})
	if err != nil {
		return err
	}
	c.Printf("Doctor %s created: %s\n", doctor.ID, doctor.FullName())
	return nil
}

func runAddPatient(c *Context) error {
	admin, ok := c.Shell.Current().(*dashboard.Admin)
	if !ok {
		return apperrors.NoSession()
	}
	patient, err := admin.CreatePatient(c.Ctx, model.PatientCreate{
		FirstName: c.Arg(0),
		LastName:  c.Arg(1),
		Email:     c.Arg(2),
		Phone:     c.Arg(3),
		Insurance: c.Arg(4),
	})
	if err != nil {
		return err
	}
	c.Printf("Patient %s created: %s\n", patient.ID, patient.FullName())
	return nil
}

func runPractitioner(c *Context) error {
	ctrl, dir, err := bookingOf(c.Shell.Current())
	if err != nil {
		return err
	}
	id := model.ID(strings.TrimSpace(c.Arg(0)))
	if err := ctrl.SetDoctorID(id); err != nil {
		return err
	}
	if d, ok := dir.Doctor(id); ok {
		c.Printf("Doctor: %s\n", d.FullName())
	}
	return nil
}

func runPatient(c *Context) error {
	ctrl, dir, err := bookingOf(c.Shell.Current())
	if err != nil {
		return err
	}
	id := model.ID(strings.TrimSpace(c.Arg(0)))
	if err := ctrl.SetPatientID(id); err != nil {
		return err
	}
	if p, ok := dir.Patient(id); ok {
		c.Printf("Patient: %s\n", p.FullName())
	}
	return nil
}

func runDate(c *Context) error {
	ctrl, _, err := bookingOf(c.Shell.Current())
	if err != nil {
		return err
	}
	return ctrl.SetDate(strings.TrimSpace(c.Arg(0)))
}

func runDuration(c *Context) error {
	ctrl, _, err := bookingOf(c.Shell.Current())
	if err != nil {
		return err
	}
	minutes, err := parsePositive("duration", c.Arg(0))
	if err != nil {
		return err
	}
	return ctrl.SetDuration(minutes)
}

func runSlots(c *Context) error {
	ctrl, _, err := bookingOf(c.Shell.Current())
	if err != nil {
		return err
	}
	list, err := ctrl.QuerySlots(c.Ctx, c.Shell.Session())
	if err != nil {
		return err
	}
	if len(list) == 0 {
		c.Printf("No free slots for %s.\n", ctrl.Slots().Params())
		return nil
	}
	for i, slot := range list {
		c.Printf("%3d) %s\n", i+1, slot)
	}
	return nil
}

func runSelect(c *Context) error {
	ctrl, _, err := bookingOf(c.Shell.Current())
	if err != nil {
		return err
	}
	n, err := parsePositive("slot number", c.Arg(0))
	if err != nil {
		return err
	}
	slot, err := ctrl.SelectSlot(n - 1)
	if err != nil {
		return err
	}
	draft := ctrl.Draft()
	c.Printf("Selected %s: %s to %s\n", slot, draft.StartTime, draft.EndTime)
	return nil
}

func runStart(c *Context) error {
	return setTime(c, true)
}

func runEnd(c *Context) error {
	return setTime(c, false)
}

func setTime(c *Context, start bool) error {
	raw := strings.TrimSpace(c.Arg(0))
	if p, ok := c.Shell.Current().(*dashboard.Practitioner); ok {
		if start {
			return p.Availability.SetStart(raw)
		}
		return p.Availability.SetEnd(raw)
	}
	ctrl, _, err := bookingOf(c.Shell.Current())
	if err != nil {
		return err
	}
	if start {
		return ctrl.SetStart(raw)
	}
	return ctrl.SetEnd(raw)
}

func runDraft(c *Context) error {
	if p, ok := c.Shell.Current().(*dashboard.Practitioner); ok {
		w := p.Availability.Window()
		c.Printf("availability  start=%q end=%q\n", w.StartTime, w.EndTime)
		return nil
	}
	ctrl, _, err := bookingOf(c.Shell.Current())
	if err != nil {
		return err
	}
	d := ctrl.Draft()
	c.Printf("appointment  patient=%q doctor=%q start=%q end=%q state=%s\n",
		d.PatientID, d.DoctorID, d.StartTime, d.EndTime, ctrl.State())
	c.Printf("slot query   %s\n", ctrl.Slots().Params())
	if outcome, lastErr := ctrl.LastOutcome(); outcome == booking.OutcomeFailed && lastErr != nil {
		c.Printf("last attempt failed: %s\n", Notification(lastErr))
	}
	return nil
}

func runBook(c *Context) error {
	var (
		appt *model.Appointment
		err  error
	)
	switch v := c.Shell.Current().(type) {
	case *dashboard.Admin:
		appt, err = v.Submit(c.Ctx)
	case *dashboard.Patient:
		appt, err = v.Submit(c.Ctx)
	default:
		err = apperrors.NoSession()
	}
	if err != nil {
		return err
	}
	c.Printf("Appointment %s booked: %s to %s\n", appt.ID, appt.StartTime, appt.EndTime)
	return nil
}

func runDeclare(c *Context) error {
	p, ok := c.Shell.Current().(*dashboard.Practitioner)
	if !ok {
		return apperrors.NoSession()
	}
	if len(c.Args) >= 2 {
		if err := p.Availability.SetStart(c.Arg(0)); err != nil {
			return err
		}
		if err := p.Availability.SetEnd(c.Arg(1)); err != nil {
			return err
		}
	}
	a, err := p.Declare(c.Ctx)
	if err != nil {
		return err
	}
	c.Printf("Availability %s declared: %s to %s\n", a.ID, a.StartTime, a.EndTime)
	return nil
}
