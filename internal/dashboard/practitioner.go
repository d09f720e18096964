package dashboard

import (
	"context"

	"clinicbook/internal/availability"
	"clinicbook/internal/events"
	"clinicbook/internal/session"
	"clinicbook/pkg/client"
	"clinicbook/pkg/logger"
	"clinicbook/pkg/model"
)

// Practitioner declares availability windows.
type Practitioner struct {
	sess         *session.Session
	Availability *availability.Form
}

func newPractitioner(sess *session.Session, api *client.Client, publisher events.Publisher, log *logger.Logger) *Practitioner {
	return &Practitioner{
		sess:         sess,
		Availability: availability.NewForm(api.Availabilities, publisher, log),
	}
}

func (p *Practitioner) View() session.View { return session.ViewPractitioner }

func (p *Practitioner) Enter(context.Context) error { return nil }

func (p *Practitioner) Declare(ctx context.Context) (*model.Availability, error) {
	return p.Availability.Declare(ctx, p.sess)
}
