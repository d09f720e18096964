package records

import (
	"context"
	"errors"
	"strings"

	"clinicbook/internal/session"
	apperrors "clinicbook/pkg/errors"
	"clinicbook/pkg/logger"
	"clinicbook/pkg/model"
	"clinicbook/pkg/sanitizer"
	"clinicbook/pkg/validation"
)

type Registrar interface {
	Register(ctx context.Context, reg model.Registration) (*model.User, error)
}

type DoctorCreator interface {
	Create(ctx context.Context, token string, doctor model.DoctorCreate) (*model.Doctor, error)
}

type PatientCreator interface {
	Create(ctx context.Context, token string, patient model.PatientCreate) (*model.Patient, error)
}

// Service backs the plain create-record forms. Input is sanitized and
// validated locally; nothing is sent when validation fails.
type Service struct {
	registrar Registrar
	doctors   DoctorCreator
	patients  PatientCreator
	validator *validation.Validator
	onCreate  func()
	log       *logger.Logger
}

func NewService(registrar Registrar, doctors DoctorCreator, patients PatientCreator, log *logger.Logger) *Service {
	return &Service{
		registrar: registrar,
		doctors:   doctors,
		patients:  patients,
		validator: validation.New(log),
		onCreate:  func() {},
		log:       log.Component("records"),
	}
}

// OnCreate registers a hook run after a doctor or patient is created.
func (s *Service) OnCreate(fn func()) {
	s.onCreate = fn
}

func (s *Service) Register(ctx context.Context, reg model.Registration) (*model.User, error) {
	reg.Email = sanitizer.NormalizeEmail(reg.Email)
	reg.Role = model.ParseRole(string(reg.Role))
	if err := s.validate("invalid registration", reg); err != nil {
		return nil, err
	}

	user, err := s.registrar.Register(ctx, reg)
	if err != nil {
		s.log.Warn("Registration failed", "role", reg.Role, "error", err)
		return nil, err
	}
	s.log.Info("User registered", "role", reg.Role)
	return user, nil
}

func (s *Service) CreateDoctor(ctx context.Context, sess *session.Session, doctor model.DoctorCreate) (*model.Doctor, error) {
	if err := session.Require(sess); err != nil {
		return nil, err
	}
	doctor.FirstName = sanitizer.NormalizeName(doctor.FirstName)
	doctor.LastName = sanitizer.NormalizeName(doctor.LastName)
	doctor.Specialization = sanitizer.CollapseSpace(doctor.Specialization)
	doctor.Email = sanitizer.NormalizeEmail(doctor.Email)
	if err := s.validate("invalid doctor", doctor); err != nil {
		return nil, err
	}

	created, err := s.doctors.Create(ctx, sess.Token(), doctor)
	if err != nil {
		s.log.Warn("Doctor creation failed", "error", err)
		return nil, err
	}
	s.log.Info("Doctor created", "doctor_id", created.ID)
	s.onCreate()
	return created, nil
}

func (s *Service) CreatePatient(ctx context.Context, sess *session.Session, patient model.PatientCreate) (*model.Patient, error) {
	if err := session.Require(sess); err != nil {
		return nil, err
	}
	patient.FirstName = sanitizer.NormalizeName(patient.FirstName)
	patient.LastName = sanitizer.NormalizeName(patient.LastName)
	patient.Email = sanitizer.NormalizeEmail(patient.Email)
	patient.Phone = normalizePhone(patient.Phone)
	patient.Insurance = sanitizer.NormalizeInsurance(patient.Insurance)
	if err := s.validate("invalid patient", patient); err != nil {
		return nil, err
	}

	created, err := s.patients.Create(ctx, sess.Token(), patient)
	if err != nil {
		s.log.Warn("Patient creation failed", "error", err)
		return nil, err
	}
	s.log.Info("Patient created", "patient_id", created.ID)
	s.onCreate()
	return created, nil
}

func (s *Service) validate(message string, v any) error {
	if err := s.validator.Struct(v); err != nil {
		var verrs validation.ValidationErrors
		if errors.As(err, &verrs) {
			return apperrors.Validation(message, verrs.Fields())
		}
		return apperrors.ValidationCause(message, err)
	}
	return nil
}

// normalizePhone keeps unparseable input as typed so validation reports it.
func normalizePhone(raw string) string {
	if phone := sanitizer.NormalizePhone(raw); phone != "" {
		return phone
	}
	return strings.TrimSpace(raw)
}
