package core

import "errors"

// ErrClientClosed is returned by Client.Next once the client is unregistered
// and its outbox is drained.
var ErrClientClosed = errors.New("client closed")

// ErrHubStopped is returned when the hub loop is no longer running.
var ErrHubStopped = errors.New("hub stopped")
