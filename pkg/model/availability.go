package model

type Availability struct {
	ID        ID     `json:"id,omitempty"`
	DoctorID  ID     `json:"doctor_id,omitempty"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

type AvailabilityCreate struct {
	StartTime string `json:"start_time" validate:"required,timestamp"`
	EndTime   string `json:"end_time" validate:"required,timestamp"`
}

func (a AvailabilityCreate) IsEmpty() bool {
	return a.StartTime == "" && a.EndTime == ""
}

// Normalized returns the window with both timestamps in YYYY-MM-DDTHH:MM form.
func (a AvailabilityCreate) Normalized() AvailabilityCreate {
	return AvailabilityCreate{
		StartTime: normalizeTimestamp(a.StartTime),
		EndTime:   normalizeTimestamp(a.EndTime),
	}
}
