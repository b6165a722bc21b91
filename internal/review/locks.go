package review

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"paddock/internal/entity"
)

const (
	lockRetryDelay = 50 * time.Millisecond
	lockTimeout    = 30 * time.Second
)

// typeLocks serializes review transitions per entity type, both inside this
// process and across reviewer processes sharing the data directory.
type typeLocks struct {
	dir string

	mu    sync.Mutex
	local map[entity.Type]*sync.Mutex
}

func newTypeLocks(dir string) *typeLocks {
	return &typeLocks{dir: dir, local: make(map[entity.Type]*sync.Mutex)}
}

func (l *typeLocks) mutex(typ entity.Type) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.local[typ]
	if !ok {
		m = &sync.Mutex{}
		l.local[typ] = m
	}
	return m
}

// acquire blocks until typ is held and returns the release function.
func (l *typeLocks) acquire(ctx context.Context, typ entity.Type) (func(), error) {
	local := l.mutex(typ)
	local.Lock()

	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		local.Unlock()
		return nil, fmt.Errorf("create lock dir: %w", err)
	}
	path := filepath.Join(l.dir, fmt.Sprintf("review-%s.lock", typ))
	fileLock := flock.New(path)

	lockCtx, cancel := context.WithTimeout(ctx, lockTimeout)
	defer cancel()
	ok, err := fileLock.TryLockContext(lockCtx, lockRetryDelay)
	if err != nil || !ok {
		local.Unlock()
		if err == nil {
			err = lockCtx.Err()
		}
		return nil, fmt.Errorf("acquire review lock %s: %w", path, err)
	}
	return func() {
		_ = fileLock.Unlock()
		local.Unlock()
	}, nil
}
