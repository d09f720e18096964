package model

type AppointmentStatus string

const (
	AppointmentScheduled AppointmentStatus = "scheduled"
	AppointmentCompleted AppointmentStatus = "completed"
	AppointmentCanceled  AppointmentStatus = "canceled"
)

type Appointment struct {
	ID        ID                `json:"id"`
	PatientID ID                `json:"patient_id"`
	DoctorID  ID                `json:"doctor_id"`
	StartTime string            `json:"start_time"`
	EndTime   string            `json:"end_time"`
	Status    AppointmentStatus `json:"status,omitempty"`
}

// AppointmentCreate is the reservation request body. IdempotencyKey travels
// as a header, not in the body.
type AppointmentCreate struct {
	PatientID      ID     `json:"patient_id"`
	DoctorID       ID     `json:"doctor_id"`
	StartTime      string `json:"start_time"`
	EndTime        string `json:"end_time"`
	IdempotencyKey string `json:"-"`
}
