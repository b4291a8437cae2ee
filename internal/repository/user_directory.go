package repository

import (
	"context"

	"github.com/google/uuid"
)

// UserDirectory resolves display names for response assembly. It is never
// consulted for any admission decision.
type UserDirectory interface {
	Nicknames(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error)
}
