package utils

import "github.com/google/uuid"

// NewID returns a fresh connection identifier. Every connection gets a new
// one, so it is never stable across reconnects.
func NewID() string {
	return uuid.NewString()
}
