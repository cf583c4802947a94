package journal

import (
	"context"
	"sync"

	"github.com/OpenZilia/parsemap-test-harness/servicedef"
)

// Memory is a Journal held in process memory.
type Memory struct {
	entries map[servicedef.EntityRef]Entry
	lock    sync.Mutex
}

func NewMemory() *Memory {
	return &Memory{entries: make(map[servicedef.EntityRef]Entry)}
}

func (m *Memory) Record(_ context.Context, entry Entry) error {
	m.lock.Lock()
	m.entries[entry.Point] = entry
	m.lock.Unlock()
	return nil
}

func (m *Memory) Entries(context.Context) ([]Entry, error) {
	m.lock.Lock()
	ret := make([]Entry, 0, len(m.entries))
	for _, e := range m.entries {
		ret = append(ret, e)
	}
	m.lock.Unlock()
	return sortEntries(ret), nil
}

func (m *Memory) Forget(_ context.Context, point servicedef.EntityRef) error {
	m.lock.Lock()
	delete(m.entries, point)
	m.lock.Unlock()
	return nil
}

func (m *Memory) DSN() string { return "memory:" }

func (m *Memory) Close() error { return nil }
