package client

import (
	"context"
	"net/http"
	"strings"

	apperrors "clinicbook/pkg/errors"
	"clinicbook/pkg/model"
)

type AppointmentClient struct {
	httpClient *HttpClient
}

// Create submits a reservation. A 409, or a 400 whose reason says the doctor
// is not available, is reported as a ConflictError.
func (c *AppointmentClient) Create(ctx context.Context, token string, appt model.AppointmentCreate) (*model.Appointment, error) {
	resp, err := c.httpClient.POST(ctx, "/appointments", appt, WithBearer(token), WithIdempotencyKey(appt.IdempotencyKey))
	if err != nil {
		return nil, transportError("schedule appointment", err)
	}
	if isConflict(resp) {
		msg := GetErrorMessage(resp)
		if msg == "" {
			msg = "slot is no longer available"
		}
		return nil, apperrors.Conflict(msg)
	}

	var created model.Appointment
	if err := decode("schedule appointment", resp, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func isConflict(resp *Response) bool {
	switch resp.StatusCode {
	case http.StatusConflict:
		return true
	case http.StatusBadRequest:
		return strings.Contains(strings.ToLower(GetErrorMessage(resp)), "not available")
	}
	return false
}
