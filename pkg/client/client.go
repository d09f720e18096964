package client

import (
	"fmt"
	"time"

	apperrors "clinicbook/pkg/errors"
)

// Client groups the typed clients for every collaborator resource. All of
// them share one HttpClient.
type Client struct {
	HTTP           *HttpClient
	Auth           *AuthClient
	Doctors        *DoctorClient
	Patients       *PatientClient
	Appointments   *AppointmentClient
	Availabilities *AvailabilityClient
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	httpClient := NewHttpClient(baseURL, timeout)
	return &Client{
		HTTP:           httpClient,
		Auth:           &AuthClient{httpClient: httpClient},
		Doctors:        &DoctorClient{httpClient: httpClient},
		Patients:       &PatientClient{httpClient: httpClient},
		Appointments:   &AppointmentClient{httpClient: httpClient},
		Availabilities: &AvailabilityClient{httpClient: httpClient},
	}
}

func transportError(action string, err error) error {
	return apperrors.Fetch(fmt.Sprintf("failed to %s", action), err)
}

func statusError(action string, resp *Response) error {
	appErr := apperrors.FetchStatus(fmt.Sprintf("failed to %s", action), resp.StatusCode)
	if msg := GetErrorMessage(resp); msg != "" {
		appErr.Details["reason"] = msg
	}
	return appErr
}

// decode maps a non-2xx response to a FetchError and otherwise unmarshals the body.
func decode(action string, resp *Response, target any) error {
	if !resp.IsSuccess() {
		return statusError(action, resp)
	}
	if target == nil || len(resp.Body) == 0 {
		return nil
	}
	if err := resp.DecodeJSON(target); err != nil {
		return apperrors.Fetch(fmt.Sprintf("failed to %s: malformed response", action), err)
	}
	return nil
}
