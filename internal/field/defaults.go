package field

import (
	"time"

	"github.com/google/uuid"
)

// NewUUID is a DefaultFunc producing a random (version 4) UUID.
func NewUUID() any {
	return uuid.NewString()
}

// NewUUIDv7 is a DefaultFunc producing a time-ordered (version 7) UUID,
// which keeps primary key inserts roughly sequential.
func NewUUIDv7() any {
	return uuid.Must(uuid.NewV7()).String()
}

// Now is a DefaultFunc/OnUpdateFunc producing the current UTC time.
func Now() any {
	return time.Now().UTC()
}
