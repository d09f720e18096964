package model

type Doctor struct {
	ID             ID       `json:"id"`
	FirstName      string   `json:"first_name"`
	LastName       string   `json:"last_name"`
	Specialization string   `json:"specialization"`
	User           *UserRef `json:"user,omitempty"`
}

func (d Doctor) Email() string {
	if d.User == nil {
		return ""
	}
	return d.User.Email
}

func (d Doctor) FullName() string {
	return joinName(d.FirstName, d.LastName)
}

type DoctorCreate struct {
	FirstName      string `json:"first_name" validate:"required,min=1,max=100"`
	LastName       string `json:"last_name" validate:"required,min=1,max=100"`
	Specialization string `json:"specialization" validate:"required,min=2,max=100"`
	Email          string `json:"email,omitempty" validate:"omitempty,email"`
	Password       string `json:"password,omitempty" validate:"omitempty,min=6,max=128"`
}

func joinName(first, last string) string {
	switch {
	case first == "":
		return last
	case last == "":
		return first
	}
	return first + " " + last
}
