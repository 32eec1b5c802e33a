package model

import "errors"

// Sentinel errors for artifact decoding.
var (
	ErrUnknownKind      = errors.New("unknown model kind")
	ErrFeatureMismatch  = errors.New("feature list does not match inputs")
	ErrInvalidLogistic  = errors.New("invalid logistic model")
	ErrInvalidTree      = errors.New("invalid decision tree")
	ErrUnexpectedStatus = errors.New("unexpected status from model server")
	ErrMalformedReply   = errors.New("malformed reply from model server")
)
