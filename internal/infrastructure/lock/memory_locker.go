package lock

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/tu-usuario/lotes-pos/internal/domain"
)

// MemoryLocker serialización por clave en memoria (un solo nodo). Cada clave
// es un semáforo de capacidad 1; la espera está acotada y al agotarse la
// operación falla con ErrBusy en vez de bloquearse indefinidamente.
type MemoryLocker struct {
	mu      sync.Mutex
	keys    map[string]*semaphore
	maxWait time.Duration
}

// semaphore lleva la cuenta de tomadores y esperadores de una clave; cuando
// refs llega a 0 la entrada se poda del mapa, que así no crece sin límite con
// cada (producto, ubicación) jamás bloqueado.
type semaphore struct {
	ch   chan struct{}
	refs int
}

// NewMemoryLocker construye el locker. maxWait <= 0 usa 3s.
func NewMemoryLocker(maxWait time.Duration) *MemoryLocker {
	if maxWait <= 0 {
		maxWait = 3 * time.Second
	}
	return &MemoryLocker{keys: make(map[string]*semaphore), maxWait: maxWait}
}

func (l *MemoryLocker) ref(keys []string) []*semaphore {
	l.mu.Lock()
	defer l.mu.Unlock()
	sems := make([]*semaphore, len(keys))
	for i, key := range keys {
		s, ok := l.keys[key]
		if !ok {
			s = &semaphore{ch: make(chan struct{}, 1)}
			l.keys[key] = s
		}
		s.refs++
		sems[i] = s
	}
	return sems
}

func (l *MemoryLocker) unref(keys []string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, key := range keys {
		s := l.keys[key]
		s.refs--
		if s.refs == 0 {
			delete(l.keys, key)
		}
	}
}

// Acquire toma todas las claves en orden lexicográfico con espera acotada.
// Si alguna no se consigue, libera las ya tomadas y devuelve ErrBusy.
func (l *MemoryLocker) Acquire(ctx context.Context, keys ...string) (func(), error) {
	sorted := append([]string(nil), keys...)
	sort.Strings(sorted)

	deadline := time.NewTimer(l.maxWait)
	defer deadline.Stop()

	sems := l.ref(sorted)
	acquired := 0
	rollback := func() {
		for i := acquired - 1; i >= 0; i-- {
			<-sems[i].ch
		}
		l.unref(sorted)
	}

	for _, s := range sems {
		select {
		case s.ch <- struct{}{}:
			acquired++
		case <-deadline.C:
			rollback()
			return nil, domain.ErrBusy
		case <-ctx.Done():
			rollback()
			return nil, ctx.Err()
		}
	}

	var once sync.Once
	return func() { once.Do(rollback) }, nil
}
