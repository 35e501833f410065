package client

import "errors"

// Sentinel errors for client construction and calls.
var (
	// ErrNilInvoker is returned when a client is built without an invoker.
	ErrNilInvoker = errors.New("client: invoker is required")

	// ErrNoModels is returned when a client is built without models.
	ErrNoModels = errors.New("client: at least one model is required")

	// ErrNilConfig is returned when NewFromConfig is given a nil config.
	ErrNilConfig = errors.New("client: config is required")

	// ErrNoMessages is returned when a chat request carries no messages.
	ErrNoMessages = errors.New("client: request has no messages")
)
