package model

import "strings"

// BookingDraft is the appointment under construction.
type BookingDraft struct {
	PatientID ID     `json:"patient_id" validate:"required"`
	DoctorID  ID     `json:"doctor_id" validate:"required"`
	StartTime string `json:"start_time" validate:"required,timestamp"`
	EndTime   string `json:"end_time" validate:"required,timestamp"`
}

func (d BookingDraft) IsEmpty() bool {
	return d.PatientID.IsZero() && d.DoctorID.IsZero() &&
		strings.TrimSpace(d.StartTime) == "" && strings.TrimSpace(d.EndTime) == ""
}

// ToCreate builds the reservation body with normalized timestamps.
func (d BookingDraft) ToCreate() AppointmentCreate {
	return AppointmentCreate{
		PatientID: d.PatientID,
		DoctorID:  d.DoctorID,
		StartTime: normalizeTimestamp(d.StartTime),
		EndTime:   normalizeTimestamp(d.EndTime),
	}
}

func normalizeTimestamp(raw string) string {
	t, err := ParseTimestamp(raw)
	if err != nil {
		return raw
	}
	return FormatTimestamp(t)
}
