package jersey

import (
	"context"
	"errors"
	"fmt"

	"github.com/posa/jerseyapp/internal/model"
	"github.com/posa/jerseyapp/internal/storage"
)

// Pool is the inclusive range of jersey numbers handed out
type Pool struct {
	Min int
	Max int
}

// DefaultPool returns the 1..99 range
func DefaultPool() Pool {
	return Pool{Min: 1, Max: 99}
}

// Contains reports whether n is a valid jersey number in the pool
func (p Pool) Contains(n int) bool {
	return n >= p.Min && n <= p.Max
}

// Allocator picks jersey numbers for new players.
// It scans storage on every call and is not safe against concurrent writers;
// callers run it inside a storage unit of work.
type Allocator struct {
	pool Pool
}

// New creates an Allocator over pool
func New(pool Pool) *Allocator {
	return &Allocator{pool: pool}
}

// Pool returns the allocator's number range
func (a *Allocator) Pool() Pool {
	return a.pool
}

// Allocate returns the lowest number in the pool not worn by a player
// registered in division. When every number is taken it returns the top of the pool.
func (a *Allocator) Allocate(ctx context.Context, store storage.Storage, division string) (int, error) {
	taken, err := a.Taken(ctx, store, division)
	if err != nil {
		return 0, err
	}
	for n := a.pool.Min; n <= a.pool.Max; n++ {
		if !taken[n] {
			return n, nil
		}
	}
	return a.pool.Max, nil
}

// Taken returns the set of jersey numbers held by players registered in division
func (a *Allocator) Taken(ctx context.Context, store storage.Storage, division string) (map[int]bool, error) {
	regs, err := store.ListRegistrationsByDivision(ctx, division)
	if err != nil {
		return nil, fmt.Errorf("list registrations for %s: %w", division, err)
	}

	taken := make(map[int]bool, len(regs))
	seen := make(map[model.PlayerID]bool, len(regs))
	for _, reg := range regs {
		if seen[reg.PlayerID] {
			continue
		}
		seen[reg.PlayerID] = true

		player, err := store.GetPlayer(ctx, reg.PlayerID)
		if err != nil {
			if errors.Is(err, model.ErrPlayerNotFound) {
				continue
			}
			return nil, fmt.Errorf("load player %s: %w", reg.PlayerID, err)
		}
		if player.HasJersey() {
			taken[player.Jersey()] = true
		}
	}
	return taken, nil
}
