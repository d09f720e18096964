package fakeapi

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	apperrors "clinicbook/pkg/errors"
	"clinicbook/pkg/model"

	"golang.org/x/crypto/bcrypt"
)

const notAvailable = "Doctor not available at that time."

type account struct {
	id    model.ID
	email string
	hash  []byte
	role  model.Role
}

// Store is the collaborator's in-memory state. Every mutation runs under one
// lock, so the overlap check and the insert of a reservation are atomic.
type Store struct {
	mu             sync.RWMutex
	seq            int
	bcryptCost     int
	accounts       map[string]*account
	doctors        []model.Doctor
	patients       []model.Patient
	availabilities []model.Availability
	appointments   []model.Appointment
}

func NewStore(bcryptCost int) *Store {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Store{
		bcryptCost: bcryptCost,
		accounts:   make(map[string]*account),
	}
}

func (s *Store) nextID() model.ID {
	s.seq++
	return model.ID(strconv.Itoa(s.seq))
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *Store) Register(reg model.Registration) (model.User, error) {
	email := normalizeEmail(reg.Email)
	hash, err := bcrypt.GenerateFromPassword([]byte(reg.Password), s.bcryptCost)
	if err != nil {
		return model.User{}, apperrors.Internal("failed to hash password", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.accounts[email]; exists {
		return model.User{}, apperrors.Conflict("Email already registered")
	}
	acc := &account{id: s.nextID(), email: email, hash: hash, role: reg.Role}
	s.accounts[email] = acc
	return model.User{ID: acc.id, Email: acc.email, Role: acc.role}, nil
}

// Authenticate never says which of email or password was wrong.
func (s *Store) Authenticate(email, password string) (model.User, error) {
	s.mu.RLock()
	acc, ok := s.accounts[normalizeEmail(email)]
	s.mu.RUnlock()

	if !ok || bcrypt.CompareHashAndPassword(acc.hash, []byte(password)) != nil {
		return model.User{}, apperrors.Unauthorized("Incorrect username or password")
	}
	return model.User{ID: acc.id, Email: acc.email, Role: acc.role}, nil
}

func (s *Store) User(email string) (model.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	acc, ok := s.accounts[normalizeEmail(email)]
	if !ok {
		return model.User{}, false
	}
	return model.User{ID: acc.id, Email: acc.email, Role: acc.role}, true
}

func (s *Store) userRefLocked(email string) *model.UserRef {
	email = normalizeEmail(email)
	if email == "" {
		return nil
	}
	ref := &model.UserRef{Email: email}
	if acc, ok := s.accounts[email]; ok {
		ref.ID = acc.id
	}
	return ref
}

func (s *Store) CreateDoctor(in model.DoctorCreate) model.Doctor {
	s.mu.Lock()
	defer s.mu.Unlock()

	doctor := model.Doctor{
		ID:             s.nextID(),
		FirstName:      in.FirstName,
		LastName:       in.LastName,
		Specialization: in.Specialization,
		User:           s.userRefLocked(in.Email),
	}
	s.doctors = append(s.doctors, doctor)
	return doctor
}

func (s *Store) CreatePatient(in model.PatientCreate) model.Patient {
	s.mu.Lock()
	defer s.mu.Unlock()

	patient := model.Patient{
		ID:        s.nextID(),
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Phone:     in.Phone,
		Insurance: in.Insurance,
		User:      s.userRefLocked(in.Email),
	}
	s.patients = append(s.patients, patient)
	return patient
}

func (s *Store) Doctors() []model.Doctor {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.Doctor(nil), s.doctors...)
}

// Patients returns every patient, or only those linked to email when it is set.
func (s *Store) Patients(email string) []model.Patient {
	s.mu.RLock()
	defer s.mu.RUnlock()

	email = normalizeEmail(email)
	patients := make([]model.Patient, 0, len(s.patients))
	for _, p := range s.patients {
		if email == "" || p.Email() == email {
			patients = append(patients, p)
		}
	}
	return patients
}

func (s *Store) DoctorByEmail(email string) (model.Doctor, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	email = normalizeEmail(email)
	for _, d := range s.doctors {
		if d.Email() == email {
			return d, true
		}
	}
	return model.Doctor{}, false
}

func (s *Store) hasDoctorLocked(id model.ID) bool {
	for _, d := range s.doctors {
		if d.ID == id {
			return true
		}
	}
	return false
}

func (s *Store) hasPatientLocked(id model.ID) bool {
	for _, p := range s.patients {
		if p.ID == id {
			return true
		}
	}
	return false
}

func (s *Store) DeclareAvailability(doctorID model.ID, in model.AvailabilityCreate) (model.Availability, error) {
	start, end, err := parseRange(in.StartTime, in.EndTime)
	if err != nil {
		return model.Availability{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.hasDoctorLocked(doctorID) {
		return model.Availability{}, apperrors.NotFound("doctor")
	}
	window := model.Availability{
		ID:        s.nextID(),
		DoctorID:  doctorID,
		StartTime: model.FormatTimestamp(start),
		EndTime:   model.FormatTimestamp(end),
	}
	s.availabilities = append(s.availabilities, window)
	return window, nil
}

type interval struct {
	start, end time.Time
}

func (i interval) overlaps(o interval) bool {
	return i.start.Before(o.end) && o.start.Before(i.end)
}

func (i interval) contains(o interval) bool {
	return !o.start.Before(i.start) && !o.end.After(i.end)
}

func (s *Store) windowsLocked(doctorID model.ID) []interval {
	var windows []interval
	for _, a := range s.availabilities {
		if a.DoctorID != doctorID {
			continue
		}
		start, end, err := parseRange(a.StartTime, a.EndTime)
		if err == nil {
			windows = append(windows, interval{start, end})
		}
	}
	return windows
}

func (s *Store) bookedLocked(doctorID model.ID) []interval {
	var booked []interval
	for _, a := range s.appointments {
		if a.DoctorID != doctorID || a.Status != model.AppointmentScheduled {
			continue
		}
		start, end, err := parseRange(a.StartTime, a.EndTime)
		if err == nil {
			booked = append(booked, interval{start, end})
		}
	}
	return booked
}

// AvailableSlots steps each declared window on date by the duration and keeps
// the candidates that fit inside the window, end before midnight and do not
// overlap a scheduled appointment.
func (s *Store) AvailableSlots(doctorID model.ID, date string, durationMinutes int) ([]model.SlotCandidate, error) {
	day, err := model.ParseDate(date)
	if err != nil {
		return nil, apperrors.InvalidInput(err.Error())
	}
	if durationMinutes <= 0 {
		return nil, apperrors.InvalidInput("duration_minutes must be positive")
	}
	step := model.MinutesDuration(durationMinutes)
	dayRange := interval{day, day.Add(24 * time.Hour)}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.hasDoctorLocked(doctorID) {
		return nil, apperrors.NotFound("doctor")
	}
	booked := s.bookedLocked(doctorID)

	seen := make(map[time.Time]bool)
	var starts []time.Time
	for _, w := range s.windowsLocked(doctorID) {
		if !w.overlaps(dayRange) {
			continue
		}
		for cursor := w.start; !cursor.Add(step).After(w.end); cursor = cursor.Add(step) {
			candidate := interval{cursor, cursor.Add(step)}
			if cursor.Before(dayRange.start) || !candidate.end.Before(dayRange.end) {
				continue
			}
			if seen[cursor] || overlapsAny(candidate, booked) {
				continue
			}
			seen[cursor] = true
			starts = append(starts, cursor)
		}
	}

	sort.Slice(starts, func(i, j int) bool { return starts[i].Before(starts[j]) })

	slots := make([]model.SlotCandidate, 0, len(starts))
	for _, start := range starts {
		slots = append(slots, model.SlotCandidate{
			Start: model.FormatClock(start.Sub(day)),
			End:   model.FormatClock(start.Add(step).Sub(day)),
		})
	}
	return slots, nil
}

// Book reserves the interval. It must lie inside a declared window and must not
// overlap another scheduled appointment of the same doctor.
func (s *Store) Book(in model.AppointmentCreate) (model.Appointment, error) {
	start, end, err := parseRange(in.StartTime, in.EndTime)
	if err != nil {
		return model.Appointment{}, err
	}
	requested := interval{start, end}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.hasDoctorLocked(in.DoctorID) {
		return model.Appointment{}, apperrors.NotFound("doctor")
	}
	if !s.hasPatientLocked(in.PatientID) {
		return model.Appointment{}, apperrors.NotFound("patient")
	}
	if !containedByAny(requested, s.windowsLocked(in.DoctorID)) {
		return model.Appointment{}, apperrors.InvalidInput(notAvailable)
	}
	if overlapsAny(requested, s.bookedLocked(in.DoctorID)) {
		return model.Appointment{}, apperrors.Conflict(notAvailable)
	}

	appt := model.Appointment{
		ID:        s.nextID(),
		PatientID: in.PatientID,
		DoctorID:  in.DoctorID,
		StartTime: model.FormatTimestamp(start),
		EndTime:   model.FormatTimestamp(end),
		Status:    model.AppointmentScheduled,
	}
	s.appointments = append(s.appointments, appt)
	return appt, nil
}

func (s *Store) Appointments() []model.Appointment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.Appointment(nil), s.appointments...)
}

func parseRange(rawStart, rawEnd string) (time.Time, time.Time, error) {
	start, err := model.ParseTimestamp(rawStart)
	if err != nil {
		return time.Time{}, time.Time{}, apperrors.InvalidInput(fmt.Sprintf("start_time: %v", err))
	}
	end, err := model.ParseTimestamp(rawEnd)
	if err != nil {
		return time.Time{}, time.Time{}, apperrors.InvalidInput(fmt.Sprintf("end_time: %v", err))
	}
	if !end.After(start) {
		return time.Time{}, time.Time{}, apperrors.InvalidInput("end_time must be after start_time")
	}
	return start, end, nil
}

func overlapsAny(candidate interval, others []interval) bool {
	for _, o := range others {
		if candidate.overlaps(o) {
			return true
		}
	}
	return false
}

func containedByAny(candidate interval, windows []interval) bool {
	for _, w := range windows {
		if w.contains(candidate) {
			return true
		}
	}
	return false
}
