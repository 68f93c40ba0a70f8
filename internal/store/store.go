package store

import (
	"errors"

	"github.com/i474232898/coffee-machine/internal/coffee"
)

// ErrUnknownBackend is returned by Open for an unsupported backend name.
var ErrUnknownBackend = errors.New("unknown store backend")

// Store is a coffee.RequestStore holding resources that must be released.
type Store interface {
	coffee.RequestStore
	Close() error
}
