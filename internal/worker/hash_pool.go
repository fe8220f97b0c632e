package worker

import (
	"context"
	"runtime"

	"golang.org/x/sync/semaphore"

	"github.com/spec-kit/auth-service/internal/domain"
)

// Hasher is the CPU-bound credential primitive run inside the pool.
type Hasher interface {
	Hash(plaintext string) (domain.Credential, error)
	Verify(plaintext string, credential domain.Credential) (bool, error)
}

// HashPool caps how many hash computations run at once so that bcrypt
// cannot starve request handling. Waiting for a slot honors ctx; a
// computation that has started always runs to completion.
type HashPool struct {
	hasher Hasher
	slots  *semaphore.Weighted
}

// NewHashPool allows up to size concurrent computations; size <= 0 uses NumCPU.
func NewHashPool(hasher Hasher, size int) *HashPool {
	if size <= 0 {
		size = runtime.NumCPU()
	}
	return &HashPool{hasher: hasher, slots: semaphore.NewWeighted(int64(size))}
}

// Hash runs hasher.Hash once a slot is free.
func (p *HashPool) Hash(ctx context.Context, plaintext string) (domain.Credential, error) {
	if err := p.slots.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer p.slots.Release(1)
	return p.hasher.Hash(plaintext)
}

// Verify runs hasher.Verify once a slot is free.
func (p *HashPool) Verify(ctx context.Context, plaintext string, credential domain.Credential) (bool, error) {
	if err := p.slots.Acquire(ctx, 1); err != nil {
		return false, err
	}
	defer p.slots.Release(1)
	return p.hasher.Verify(plaintext, credential)
}
