package server

import "github.com/google/uuid"

// newRequestID mints an opaque request identifier, stable across retries
// of the same logical attempt per §3's "id" field.
func newRequestID() string {
	return uuid.New().String()
}
