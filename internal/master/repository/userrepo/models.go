package userrepo

import (
	"errors"

	"github.com/google/uuid"
)

var (
	ErrNotFound      = errors.New("user not found")
	ErrAlreadyExists = errors.New("user already exists")
)

// Filter narrows GetUsers down to a single identity. Zero value means
// a full listing.
type Filter struct {
	UUID  *uuid.UUID
	Email string
}
