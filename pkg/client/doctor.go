package client

import (
	"context"
	"net/url"
	"strconv"

	"clinicbook/pkg/model"
)

type DoctorClient struct {
	httpClient *HttpClient
}

func (c *DoctorClient) List(ctx context.Context, token string) ([]model.Doctor, error) {
	resp, err := c.httpClient.GET(ctx, "/doctors", WithBearer(token))
	if err != nil {
		return nil, transportError("list doctors", err)
	}
	var doctors []model.Doctor
	if err := decode("list doctors", resp, &doctors); err != nil {
		return nil, err
	}
	return doctors, nil
}

func (c *DoctorClient) Create(ctx context.Context, token string, doctor model.DoctorCreate) (*model.Doctor, error) {
	resp, err := c.httpClient.POST(ctx, "/doctors", doctor, WithBearer(token))
	if err != nil {
		return nil, transportError("create doctor", err)
	}
	var created model.Doctor
	if err := decode("create doctor", resp, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// AvailableSlots fetches the free intervals of the requested duration on date.
func (c *DoctorClient) AvailableSlots(ctx context.Context, token string, doctorID model.ID, date string, durationMinutes int) ([]model.SlotCandidate, error) {
	q := url.Values{}
	q.Set("date", date)
	q.Set("duration_minutes", strconv.Itoa(durationMinutes))

	path := "/doctors/" + url.PathEscape(doctorID.String()) + "/available-slots?" + q.Encode()
	resp, err := c.httpClient.GET(ctx, path, WithBearer(token))
	if err != nil {
		return nil, transportError("fetch available slots", err)
	}
	var slots []model.SlotCandidate
	if err := decode("fetch available slots", resp, &slots); err != nil {
		return nil, err
	}
	return slots, nil
}
