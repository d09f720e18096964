package fakeapi

import (
	"clinicbook/pkg/app"
	"clinicbook/pkg/config"

	"golang.org/x/crypto/bcrypt"
)

type options struct {
	bcryptCost int
}

type Option func(*options)

// WithBcryptCost lowers the hashing cost, for tests.
func WithBcryptCost(cost int) Option {
	return func(o *options) { o.bcryptCost = cost }
}

// New assembles the reference collaborator: store, token issuer, handler and
// the application shell around them.
func New(cfg *config.Config, opts ...Option) (*app.Application, *Store) {
	o := options{bcryptCost: bcrypt.DefaultCost}
	for _, opt := range opts {
		opt(&o)
	}

	store := NewStore(o.bcryptCost)
	tokens := NewTokenIssuer(cfg.StubJWTSecret, cfg.StubTokenTTL)
	handler := NewHandler(store, tokens, cfg.Log.Component("fakeapi"))

	application := app.NewApplication()
	application.SetApp(cfg, handler)
	return application, store
}
