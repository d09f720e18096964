package session

import "clinicbook/pkg/model"

type View string

const (
	ViewLogin        View = "login"
	ViewAdmin        View = "admin_dashboard"
	ViewPractitioner View = "practitioner_dashboard"
	ViewPatient      View = "patient_dashboard"
	ViewUnsupported  View = "unsupported"
)

// Route maps a session to the view it may see. A missing token always wins.
func Route(s *Session) View {
	if !s.Authenticated() {
		return ViewLogin
	}
	switch s.Role() {
	case model.RoleAdmin:
		return ViewAdmin
	case model.RoleDoctor:
		return ViewPractitioner
	case model.RolePatient:
		return ViewPatient
	default:
		return ViewUnsupported
	}
}
