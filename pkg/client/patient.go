package client

import (
	"context"

	"clinicbook/pkg/model"
)

type PatientClient struct {
	httpClient *HttpClient
}

func (c *PatientClient) List(ctx context.Context, token string) ([]model.Patient, error) {
	resp, err := c.httpClient.GET(ctx, "/patients", WithBearer(token))
	if err != nil {
		return nil, transportError("list patients", err)
	}
	var patients []model.Patient
	if err := decode("list patients", resp, &patients); err != nil {
		return nil, err
	}
	return patients, nil
}

func (c *PatientClient) Create(ctx context.Context, token string, patient model.PatientCreate) (*model.Patient, error) {
	resp, err := c.httpClient.POST(ctx, "/patients", patient, WithBearer(token))
	if err != nil {
		return nil, transportError("create patient", err)
	}
	var created model.Patient
	if err := decode("create patient", resp, &created); err != nil {
		return nil, err
	}
	return &created, nil
}
