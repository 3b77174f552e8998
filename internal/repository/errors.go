// Package repository implements the persistence gateway: parameterized SQL
// over database/sql plus the transaction boundary used by the complaint
// lifecycle.  Sentinel errors defined here let handlers distinguish failure
// scenarios without inspecting driver error strings themselves.
package repository

import (
	"errors"
	"strings"
)

// ErrNotFound is returned when a requested row does not exist.  Handlers
// translate it into HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrDuplicateUser is returned when a registration collides with an
// existing email or university id.  Handlers translate it into 409.
var ErrDuplicateUser = errors.New("email or university id already registered")

// ErrDuplicateTicket is returned when a generated ticket number lost the
// race against a concurrent creation in the same year.  The caller retries
// with a fresh sequence number.
var ErrDuplicateTicket = errors.New("ticket number already exists")

// isDuplicateKey detects the MySQL duplicate-entry error (1062) without
// depending on the driver's error type.
func isDuplicateKey(err error) bool {
	return err != nil && strings.Contains(err.Error(), "1062")
}
