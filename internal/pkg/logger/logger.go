package logger

import (
	"go.uber.org/zap"
)

// New creates a zap logger configured for the given environment.
// "development" gets the human-readable console encoder; anything else
// gets production JSON output.
func New(env string) (*zap.Logger, error) {
	if env == "development" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// NewNamed creates an environment-appropriate logger named after the
// service, so every entry carries the service identity.
func NewNamed(env, service string) (*zap.Logger, error) {
	log, err := New(env)
	if err != nil {
		return nil, err
	}
	return log.Named(service), nil
}
