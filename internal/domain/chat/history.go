package chat

import (
	"context"
	"sync"
)

// HistorySize is how many exchanges are kept per patient.
const HistorySize = 3

// HistoryStore keeps the last HistorySize exchanges per patient, oldest
// first.
type HistoryStore interface {
	Push(ctx context.Context, patientID string, e Exchange) error
	Recent(ctx context.Context, patientID string) ([]Exchange, error)
}

type ring struct {
	mu      sync.Mutex
	entries []Exchange
}

// MemoryHistory is a process-local HistoryStore. Each patient's ring has its
// own lock, so pushes for one patient never wait on another.
type MemoryHistory struct {
	mu    sync.RWMutex
	size  int
	rings map[string]*ring
}

func NewMemoryHistory() *MemoryHistory {
	return &MemoryHistory{size: HistorySize, rings: make(map[string]*ring)}
}

func (h *MemoryHistory) ring(patientID string, create bool) *ring {
	h.mu.RLock()
	r, ok := h.rings[patientID]
	h.mu.RUnlock()
	if ok || !create {
		return r
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if r, ok = h.rings[patientID]; !ok {
		r = &ring{entries: make([]Exchange, 0, h.size)}
		h.rings[patientID] = r
	}
	return r
}

func (h *MemoryHistory) Push(_ context.Context, patientID string, e Exchange) error {
	r := h.ring(patientID, true)
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.entries) == h.size {
		copy(r.entries, r.entries[1:])
		r.entries = r.entries[:h.size-1]
	}
	r.entries = append(r.entries, e)
	return nil
}

// Recent returns a copy of the ring.
func (h *MemoryHistory) Recent(_ context.Context, patientID string) ([]Exchange, error) {
	r := h.ring(patientID, false)
	if r == nil {
		return nil, nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Exchange, len(r.entries))
	copy(out, r.entries)
	return out, nil
}

func (h *MemoryHistory) Ping(context.Context) error { return nil }

func (h *MemoryHistory) Close() error { return nil }
