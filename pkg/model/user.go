package model

type User struct {
	ID    ID     `json:"id,omitempty"`
	Email string `json:"email"`
	Role  Role   `json:"role,omitempty"`
}

// UserRef is the nested user sub-object embedded in doctor and patient records.
type UserRef struct {
	ID    ID     `json:"id,omitempty"`
	Email string `json:"email"`
}

type Registration struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=128"`
	Role     Role   `json:"role" validate:"required,oneof=admin doctor patient"`
}

// Token is the login response. Role is only present when the collaborator
// resolves it from the authenticated identity.
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type,omitempty"`
	Role        Role   `json:"role,omitempty"`
}
