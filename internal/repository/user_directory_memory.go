package repository

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// memoryUserDirectory serves nicknames from a seeded map.
type memoryUserDirectory struct {
	mu        sync.RWMutex
	nicknames map[uuid.UUID]string
}

func NewMemoryUserDirectory() *memoryUserDirectory {
	return &memoryUserDirectory{nicknames: make(map[uuid.UUID]string)}
}

// SetNickname seeds or replaces one entry.
func (d *memoryUserDirectory) SetNickname(id uuid.UUID, nickname string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nicknames[id] = nickname
}

func (d *memoryUserDirectory) Nicknames(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	result := make(map[uuid.UUID]string, len(ids))
	for _, id := range ids {
		if nickname, ok := d.nicknames[id]; ok {
			result[id] = nickname
		}
	}
	return result, nil
}

var _ UserDirectory = (*memoryUserDirectory)(nil)
