package poller

import (
	"sync"
	"time"
)

// Snapshot is the externally visible poll state.
type Snapshot struct {
	Running       bool      `json:"running"`
	Instruments   int       `json:"instruments"`
	Cycles        int64     `json:"cycles"`
	Failures      int64     `json:"failures"`
	LastCycleAt   time.Time `json:"last_cycle_at,omitzero"`
	LastSuccessAt time.Time `json:"last_success_at,omitzero"`
	LastError     string    `json:"last_error,omitempty"`
	LastQuotes    int       `json:"last_quotes"`
	LastDelivered int       `json:"last_delivered"`
	CachedCloses  int       `json:"cached_closes"`
}

// Status records cycle outcomes for health reporting. Safe for concurrent use.
type Status struct {
	mu sync.RWMutex
	s  Snapshot
}

func (st *Status) setRunning(v bool) {
	st.mu.Lock()
	st.s.Running = v
	st.mu.Unlock()
}

func (st *Status) setInstruments(n int) {
	st.mu.Lock()
	st.s.Instruments = n
	st.mu.Unlock()
}

func (st *Status) failure(at time.Time, err error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.s.Cycles++
	st.s.Failures++
	st.s.LastCycleAt = at
	st.s.LastError = err.Error()
}

func (st *Status) success(at time.Time, quotes, delivered, cached int) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.s.Cycles++
	st.s.LastCycleAt = at
	st.s.LastSuccessAt = at
	st.s.LastError = ""
	st.s.LastQuotes = quotes
	st.s.LastDelivered = delivered
	st.s.CachedCloses = cached
}

func (st *Status) Snapshot() Snapshot {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.s
}
