package client

import (
	"context"

	"clinicbook/pkg/model"
)

type AvailabilityClient struct {
	httpClient *HttpClient
}

func (c *AvailabilityClient) Create(ctx context.Context, token string, window model.AvailabilityCreate) (*model.Availability, error) {
	resp, err := c.httpClient.POST(ctx, "/availabilities", window, WithBearer(token))
	if err != nil {
		return nil, transportError("declare availability", err)
	}
	var created model.Availability
	if err := decode("declare availability", resp, &created); err != nil {
		return nil, err
	}
	return &created, nil
}
