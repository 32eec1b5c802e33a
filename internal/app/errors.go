package service

import "errors"

var (
	// ErrNoModel is returned by Start when neither a model path nor a model URL is configured.
	ErrNoModel = errors.New("no classifier configured")
	// ErrNotStarted is returned when assessing before Start succeeded.
	ErrNotStarted = errors.New("service not started")
)
