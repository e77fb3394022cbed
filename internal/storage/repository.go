// Package storage persists session state as one serialized blob per user.
// Two backends are provided: a local SQLite file (default) and Postgres for
// hosted deployments.
package storage

import (
	"context"
	"errors"

	"github.com/YisroelArnson/AI-PERSONAL-TRAINER-sub003/internal/models"
)

// ErrNoSession is returned when no state has been persisted for the user.
var ErrNoSession = errors.New("no session persisted")

// Repository loads and saves a user's session state.
type Repository interface {
	LoadSession(ctx context.Context, userID int) (models.SessionState, error)
	SaveSession(ctx context.Context, userID int, state models.SessionState) error
	Close() error
}
