package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	apperrors "clinicbook/pkg/errors"
	"clinicbook/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, 2*time.Second)
}

func TestLogin_PostsFormCredentials(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/login", r.URL.Path)
		assert.Equal(t, contentTypeForm, r.Header.Get(HeaderContentType))
		assert.NotEmpty(t, r.Header.Get(HeaderRequestID))
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "admin@example.com", r.PostForm.Get("username"))
		assert.Equal(t, "adminpass", r.PostForm.Get("password"))
		_ = json.NewEncoder(w).Encode(map[string]string{"access_token": "tok", "token_type": "bearer", "role": "admin"})
	})

	token, err := c.Auth.Login(context.Background(), "admin@example.com", "adminpass")
	require.NoError(t, err)
	assert.Equal(t, "tok", token.AccessToken)
	assert.Equal(t, model.RoleAdmin, token.Role)
}

func TestLogin_RejectionIsGenericAuthError(t *testing.T) {
	for _, status := range []int{http.StatusBadRequest, http.StatusUnauthorized, http.StatusUnprocessableEntity} {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"detail":"Incorrect username or password"}`))
		})

		_, err := c.Auth.Login(context.Background(), "nobody@example.com", "x")
		require.Error(t, err)
		assert.True(t, apperrors.IsAuth(err), "status %d should map to AuthError, got %v", status, err)
		assert.Equal(t, "login failed", apperrors.AsAppError(err).Message)
	}
}

func TestLogin_ServerErrorIsFetchError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := c.Auth.Login(context.Background(), "a@b.co", "x")
	assert.True(t, apperrors.IsFetch(err))
}

func TestLogin_TransportErrorIsFetchError(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", 200*time.Millisecond)

	_, err := c.Auth.Login(context.Background(), "a@b.co", "x")
	assert.True(t, apperrors.IsFetch(err))
}

func TestAuthenticatedCallsCarryBearer(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret-token", r.Header.Get(HeaderAuthorization))
		switch r.URL.Path {
		case "/doctors":
			_, _ = w.Write([]byte(`[{"id": 1, "first_name": "Ada", "last_name": "Byron", "specialization": "cardiology", "user": {"email": "ada@example.com"}}]`))
		case "/patients":
			_, _ = w.Write([]byte(`[{"id": 2, "first_name": "John", "last_name": "Doe", "phone": "+15551234567", "user": {"email": "john@example.com"}}]`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	doctors, err := c.Doctors.List(context.Background(), "secret-token")
	require.NoError(t, err)
	require.Len(t, doctors, 1)
	assert.Equal(t, model.ID("1"), doctors[0].ID)
	assert.Equal(t, "ada@example.com", doctors[0].Email())

	patients, err := c.Patients.List(context.Background(), "secret-token")
	require.NoError(t, err)
	require.Len(t, patients, 1)
	assert.Equal(t, "John Doe", patients[0].FullName())
}

func TestAvailableSlots_QueryParameters(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/doctors/7/available-slots", r.URL.Path)
		assert.Equal(t, "2024-06-01", r.URL.Query().Get("date"))
		assert.Equal(t, "30", r.URL.Query().Get("duration_minutes"))
		_, _ = w.Write([]byte(`[{"start": "09:00", "end": "09:30"}, {"start": "09:30", "end": "10:00"}]`))
	})

	slots, err := c.Doctors.AvailableSlots(context.Background(), "tok", "7", "2024-06-01", 30)
	require.NoError(t, err)
	assert.Equal(t, []model.SlotCandidate{{Start: "09:00", End: "09:30"}, {Start: "09:30", End: "10:00"}}, slots)
}

func TestAppointmentCreate_ErrorMapping(t *testing.T) {
	tests := []struct {
		name         string
		status       int
		body         string
		wantConflict bool
		wantFetch    bool
	}{
		{name: "409", status: http.StatusConflict, body: `{"detail":"slot taken"}`, wantConflict: true},
		{name: "400 not available", status: http.StatusBadRequest, body: `{"detail":"Doctor not available at that time."}`, wantConflict: true},
		{name: "400 other", status: http.StatusBadRequest, body: `{"detail":"bad patient"}`, wantFetch: true},
		{name: "500", status: http.StatusInternalServerError, body: `oops`, wantFetch: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := c.Appointments.Create(context.Background(), "tok", model.AppointmentCreate{
				PatientID: "1", DoctorID: "2", StartTime: "2024-06-01T09:00", EndTime: "2024-06-01T09:30",
			})
			require.Error(t, err)
			assert.Equal(t, tt.wantConflict, apperrors.IsConflict(err))
			assert.Equal(t, tt.wantFetch, apperrors.IsFetch(err))
		})
	}
}

func TestAppointmentCreate_SendsNumericIDs(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, float64(1), body["patient_id"])
		assert.Equal(t, float64(2), body["doctor_id"])
		assert.Equal(t, "2024-06-01T09:00", body["start_time"])
		_, _ = w.Write([]byte(`{"id": 10, "patient_id": 1, "doctor_id": 2, "start_time": "2024-06-01T09:00", "end_time": "2024-06-01T09:30", "status": "scheduled"}`))
	})

	appt, err := c.Appointments.Create(context.Background(), "tok", model.AppointmentCreate{
		PatientID: "1", DoctorID: "2", StartTime: "2024-06-01T09:00", EndTime: "2024-06-01T09:30",
	})
	require.NoError(t, err)
	assert.Equal(t, model.ID("10"), appt.ID)
	assert.Equal(t, model.AppointmentScheduled, appt.Status)
}

func TestDecode_MalformedBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{not json`))
	})

	_, err := c.Doctors.List(context.Background(), "tok")
	assert.True(t, apperrors.IsFetch(err))
}

func TestGetErrorMessage(t *testing.T) {
	tests := []struct {
		body string
		want string
	}{
		{body: `{"detail":"Doctor not available at that time."}`, want: "Doctor not available at that time."},
		{body: `{"message":"bad input","code":"INVALID_INPUT"}`, want: "bad input"},
		{body: `{"error":"boom"}`, want: "boom"},
		{body: `plain text`, want: "plain text"},
	}

	for _, tt := range tests {
		got := GetErrorMessage(&Response{Body: []byte(tt.body)})
		assert.Equal(t, tt.want, got)
	}
}
