// Package store holds the data access layer. Every function takes the request context
// and returns sentinel errors that callers match with errors.Is.
package store

import (
	"errors"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"gorm.io/gorm"
)

var (
	// ErrNotFound means the row is absent, or is not owned by the caller.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate means a unique key already holds the value.
	ErrDuplicate = errors.New("duplicate key")
	// ErrUnknownUser means the acting user id matches no account.
	ErrUnknownUser = errors.New("unknown user")
)

// gorm.Raw rewrites '?' into each dialect's bind variables, so squirrel keeps the default format.
var builder = sq.StatementBuilder.PlaceholderFormat(sq.Question)

func isDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") || strings.Contains(msg, "unique constraint")
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
