package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const nicknameCacheTTL = 10 * time.Minute

// cachedUserDirectory fronts a UserDirectory with a read-through StateStore
// cache. Nicknames are display-only, so brief staleness is acceptable.
type cachedUserDirectory struct {
	inner UserDirectory
	cache StateStore
}

func NewCachedUserDirectory(inner UserDirectory, cache StateStore) UserDirectory {
	return &cachedUserDirectory{inner: inner, cache: cache}
}

func nicknameKey(id uuid.UUID) string {
	return "nickname:" + id.String()
}

func (d *cachedUserDirectory) Nicknames(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error) {
	result := make(map[uuid.UUID]string, len(ids))
	var missing []uuid.UUID

	for _, id := range ids {
		val, err := d.cache.Get(ctx, nicknameKey(id))
		if err != nil || val == nil {
			missing = append(missing, id)
			continue
		}
		result[id] = string(val)
	}
	if len(missing) == 0 {
		return result, nil
	}

	fetched, err := d.inner.Nicknames(ctx, missing)
	if err != nil {
		return nil, err
	}
	for id, nickname := range fetched {
		result[id] = nickname
		// Best effort; a failed cache write only costs a later re-fetch.
		_ = d.cache.Set(ctx, nicknameKey(id), []byte(nickname), nicknameCacheTTL)
	}
	return result, nil
}
