package fakeapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"strings"

	apperrors "clinicbook/pkg/errors"
	httputil "clinicbook/pkg/http"
	"clinicbook/pkg/logger"
	"clinicbook/pkg/middleware"
	"clinicbook/pkg/model"
	"clinicbook/pkg/validation"

	"github.com/julienschmidt/httprouter"
)

type principalKey struct{}

// Handler serves the clinic collaborator API on top of Store.
type Handler struct {
	store     *Store
	tokens    *TokenIssuer
	validator *validation.Validator
	log       *logger.Logger
}

func NewHandler(store *Store, tokens *TokenIssuer, log *logger.Logger) *Handler {
	return &Handler{
		store:     store,
		tokens:    tokens,
		validator: validation.New(log),
		log:       log,
	}
}

func (h *Handler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/login", h.Login)
	router.POST("/register", h.Register)

	router.GET("/doctors", h.authorize(h.ListDoctors))
	router.POST("/doctors", h.authorize(h.CreateDoctor, model.RoleAdmin))
	router.GET("/doctors/:id/available-slots", h.authorize(h.AvailableSlots))

	router.GET("/patients", h.authorize(h.ListPatients))
	router.POST("/patients", h.authorize(h.CreatePatient, model.RoleAdmin))

	router.POST("/appointments", h.authorize(h.CreateAppointment, model.RoleAdmin, model.RolePatient))
	router.POST("/availabilities", h.authorize(h.CreateAvailability, model.RoleDoctor))
}

// authorize verifies the bearer token and, when roles are given, that the
// account holds one of them.
func (h *Handler) authorize(next httprouter.Handle, roles ...model.Role) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || raw == "" {
			h.writeError(w, "authorize", apperrors.Unauthorized("Not authenticated"))
			return
		}
		claims, err := h.tokens.Parse(raw)
		if err != nil {
			h.writeError(w, "authorize", err)
			return
		}
		user, ok := h.store.User(claims.Subject)
		if !ok {
			h.writeError(w, "authorize", apperrors.Unauthorized("User not found"))
			return
		}
		if len(roles) > 0 && !slices.Contains(roles, user.Role) {
			h.writeError(w, "authorize", apperrors.Forbidden(fmt.Sprintf("Access restricted to: %s", joinRoles(roles))))
			return
		}

		ctx := context.WithValue(r.Context(), principalKey{}, user)
		next(w, r.WithContext(ctx), ps)
	}
}

func principal(r *http.Request) model.User {
	user, _ := r.Context().Value(principalKey{}).(model.User)
	return user
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if err := r.ParseForm(); err != nil {
		h.writeError(w, "Login", apperrors.InvalidInput("invalid form body"))
		return
	}

	user, err := h.store.Authenticate(r.PostForm.Get("username"), r.PostForm.Get("password"))
	if err != nil {
		h.log.Warn("Login rejected", "request_id", middleware.RequestIDFromContext(r.Context()))
		h.writeError(w, "Login", err)
		return
	}

	token, err := h.tokens.Issue(user)
	if err != nil {
		h.writeError(w, "Login", err)
		return
	}

	h.write(w, "Login", http.StatusOK, model.Token{
		AccessToken: token,
		TokenType:   "bearer",
		Role:        user.Role,
	})
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var reg model.Registration
	if err := httputil.DecodeJSON(r, &reg); err != nil {
		h.writeError(w, "Register", err)
		return
	}
	if err := h.validate(reg); err != nil {
		h.writeError(w, "Register", err)
		return
	}

	user, err := h.store.Register(reg)
	if err != nil {
		h.writeError(w, "Register", err)
		return
	}
	h.log.Info("Account registered", "user_id", user.ID, "role", user.Role)
	h.write(w, "Register", http.StatusCreated, user)
}

func (h *Handler) ListDoctors(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	h.write(w, "ListDoctors", http.StatusOK, h.store.Doctors())
}

func (h *Handler) CreateDoctor(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var in model.DoctorCreate
	if err := httputil.DecodeJSON(r, &in); err != nil {
		h.writeError(w, "CreateDoctor", err)
		return
	}
	if err := h.validate(in); err != nil {
		h.writeError(w, "CreateDoctor", err)
		return
	}
	h.write(w, "CreateDoctor", http.StatusCreated, h.store.CreateDoctor(in))
}

// ListPatients shows a patient only their own record.
func (h *Handler) ListPatients(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	filter := ""
	if user := principal(r); user.Role == model.RolePatient {
		filter = user.Email
	}
	h.write(w, "ListPatients", http.StatusOK, h.store.Patients(filter))
}

func (h *Handler) CreatePatient(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var in model.PatientCreate
	if err := httputil.DecodeJSON(r, &in); err != nil {
		h.writeError(w, "CreatePatient", err)
		return
	}
	if err := h.validate(in); err != nil {
		h.writeError(w, "CreatePatient", err)
		return
	}
	h.write(w, "CreatePatient", http.StatusCreated, h.store.CreatePatient(in))
}

func (h *Handler) AvailableSlots(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	query := r.URL.Query()

	duration, err := strconv.Atoi(query.Get("duration_minutes"))
	if err != nil {
		h.writeError(w, "AvailableSlots", apperrors.InvalidInput("invalid duration_minutes parameter: "+query.Get("duration_minutes")))
		return
	}

	slots, err := h.store.AvailableSlots(model.ID(ps.ByName("id")), query.Get("date"), duration)
	if err != nil {
		h.writeError(w, "AvailableSlots", err)
		return
	}
	h.write(w, "AvailableSlots", http.StatusOK, slots)
}

func (h *Handler) CreateAppointment(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var in model.AppointmentCreate
	if err := httputil.DecodeJSON(r, &in); err != nil {
		h.writeError(w, "CreateAppointment", err)
		return
	}

	if user := principal(r); user.Role == model.RolePatient && !h.ownsPatient(user, in.PatientID) {
		h.writeError(w, "CreateAppointment", apperrors.Forbidden("Patients may only book for themselves"))
		return
	}

	appt, err := h.store.Book(in)
	if err != nil {
		if apperrors.IsConflict(err) {
			h.log.Info("Reservation conflict", "doctor_id", in.DoctorID, "start_time", in.StartTime)
		}
		h.writeError(w, "CreateAppointment", err)
		return
	}
	h.log.Info("Appointment scheduled", "appointment_id", appt.ID, "doctor_id", appt.DoctorID)
	h.write(w, "CreateAppointment", http.StatusCreated, appt)
}

func (h *Handler) ownsPatient(user model.User, id model.ID) bool {
	for _, p := range h.store.Patients(user.Email) {
		if p.ID == id {
			return true
		}
	}
	return false
}

// CreateAvailability records a window for the doctor profile linked to the caller.
func (h *Handler) CreateAvailability(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var in model.AvailabilityCreate
	if err := httputil.DecodeJSON(r, &in); err != nil {
		h.writeError(w, "CreateAvailability", err)
		return
	}

	doctor, ok := h.store.DoctorByEmail(principal(r).Email)
	if !ok {
		h.writeError(w, "CreateAvailability", apperrors.Forbidden("No doctor profile linked to this account"))
		return
	}

	window, err := h.store.DeclareAvailability(doctor.ID, in)
	if err != nil {
		h.writeError(w, "CreateAvailability", err)
		return
	}
	h.write(w, "CreateAvailability", http.StatusCreated, window)
}

func (h *Handler) validate(v any) error {
	if err := h.validator.Struct(v); err != nil {
		var verrs validation.ValidationErrors
		if errors.As(err, &verrs) {
			return apperrors.Validation("Validation failed", verrs.Fields())
		}
		return apperrors.InvalidInput(err.Error())
	}
	return nil
}

func (h *Handler) write(w http.ResponseWriter, handler string, status int, data any) {
	if err := httputil.WriteJSON(w, status, data); err != nil {
		h.log.Error("failed to write JSON response", "handler", handler, "operation", "WriteJSON", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func joinRoles(roles []model.Role) string {
	names := make([]string, len(roles))
	for i, r := range roles {
		names[i] = r.String()
	}
	return strings.Join(names, ", ")
}
