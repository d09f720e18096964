package model

import (
	"encoding/json"
	"testing"
)

func TestID_MarshalJSON(t *testing.T) {
	tests := []struct {
		id   ID
		want string
	}{
		{id: "42", want: `42`},
		{id: " 7 ", want: `7`},
		{id: "abc-1", want: `"abc-1"`},
		{id: "", want: `""`},
	}

	for _, tt := range tests {
		got, err := json.Marshal(tt.id)
		if err != nil {
			t.Fatalf("Marshal(%q) error = %v", tt.id, err)
		}
		if string(got) != tt.want {
			t.Errorf("Marshal(%q) = %s, want %s", tt.id, got, tt.want)
		}
	}
}

func TestID_UnmarshalJSON(t *testing.T) {
	var appt Appointment
	body := `{"id": 3, "patient_id": "12", "doctor_id": 5, "start_time": "2024-06-01T09:00", "end_time": "2024-06-01T09:30", "status": "scheduled"}`
	if err := json.Unmarshal([]byte(body), &appt); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if appt.ID != "3" || appt.PatientID != "12" || appt.DoctorID != "5" {
		t.Errorf("unexpected ids: %+v", appt)
	}

	var bad ID
	if err := json.Unmarshal([]byte(`true`), &bad); err == nil {
		t.Errorf("expected error for boolean id")
	}
}

func TestRole_Valid(t *testing.T) {
	for _, r := range Roles {
		if !r.Valid() {
			t.Errorf("%s should be valid", r)
		}
	}
	if ParseRole(" Admin ") != RoleAdmin {
		t.Errorf("ParseRole should normalize case and whitespace")
	}
	if Role("nurse").Valid() {
		t.Errorf("nurse should not be a valid role")
	}
}
