package model

type Patient struct {
	ID        ID       `json:"id"`
	FirstName string   `json:"first_name"`
	LastName  string   `json:"last_name"`
	Phone     string   `json:"phone,omitempty"`
	Insurance string   `json:"insurance,omitempty"`
	User      *UserRef `json:"user,omitempty"`
}

func (p Patient) Email() string {
	if p.User == nil {
		return ""
	}
	return p.User.Email
}

func (p Patient) FullName() string {
	return joinName(p.FirstName, p.LastName)
}

type PatientCreate struct {
	FirstName string `json:"first_name" validate:"required,min=1,max=100"`
	LastName  string `json:"last_name" validate:"required,min=1,max=100"`
	Email     string `json:"email" validate:"required,email"`
	Phone     string `json:"phone,omitempty" validate:"omitempty,e164"`
	Insurance string `json:"insurance,omitempty" validate:"omitempty,max=100"`
	Password  string `json:"password,omitempty" validate:"omitempty,min=6,max=128"`
}
