package perf

import (
	"math"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultRingSize is the default capacity of the ring buffer.
const DefaultRingSize = 4096

// Kind tells which layer produced an Entry.
type Kind uint8

const (
	KindRequest Kind = iota // inbound HTTP request
	KindQuery               // local sqlite query
	KindBackend             // outbound call to the trainer backend
)

// String returns the label used in the /api/perf report.
func (k Kind) String() string {
	switch k {
	case KindRequest:
		return "request"
	case KindQuery:
		return "query"
	case KindBackend:
		return "backend"
	}
	return "unknown"
}

// Entry is one timing sample.
type Entry struct {
	Kind       Kind
	Op         string // "GET /schedule", "QueryRowContext", "POST /sessions"
	StatusCode int    // 0 for queries
	DurationMs float64
	At         time.Time
}

// Recorder accepts timing samples. *Collector implements it; nil-safe callers check for nil.
type Recorder interface {
	Record(e Entry)
}

// Collector keeps the most recent entries in a ring. Aggregation happens on read.
type Collector struct {
	mu    sync.Mutex
	ring  []Entry
	next  int
	total atomic.Int64
}

var _ Recorder = (*Collector)(nil)

// NewCollector creates a collector holding up to size entries.
// PRE: none (size <= 0 falls back to DefaultRingSize)
// POST: returns an empty collector
func NewCollector(size int) *Collector {
	if size <= 0 {
		size = DefaultRingSize
	}
	return &Collector{ring: make([]Entry, size)}
}

// Record stores e, overwriting the oldest entry when the ring is full.
func (c *Collector) Record(e Entry) {
	c.mu.Lock()
	c.ring[c.next] = e
	c.next = (c.next + 1) % len(c.ring)
	c.mu.Unlock()
	c.total.Add(1)
}

// TotalRecorded returns how many entries were ever recorded.
func (c *Collector) TotalRecorded() int64 {
	return c.total.Load()
}

// OpStat aggregates samples for one operation.
type OpStat struct {
	Op      string  `json:"op"`
	Count   int     `json:"count"`
	AvgMs   float64 `json:"avg_ms"`
	MaxMs   float64 `json:"max_ms"`
	Errors  int     `json:"errors"` // samples with status >= 500
	totalMs float64
}

// LayerStat holds percentiles and the slowest operations of one Kind.
type LayerStat struct {
	Count   int      `json:"count"`
	P50Ms   float64  `json:"p50_ms"`
	P95Ms   float64  `json:"p95_ms"`
	P99Ms   float64  `json:"p99_ms"`
	Slowest []OpStat `json:"slowest"`
}

// Snapshot is the aggregated view served at /api/perf.
type Snapshot struct {
	TotalRecorded int64     `json:"total_recorded"`
	Since         time.Time `json:"since"`
	Requests      LayerStat `json:"requests"`
	Queries       LayerStat `json:"queries"`
	Backend       LayerStat `json:"backend"`
}

// Snapshot aggregates entries recorded at or after since, keeping topN slowest ops per layer.
// PRE: topN > 0
// POST: percentiles are zero for layers without samples
func (c *Collector) Snapshot(since time.Time, topN int) Snapshot {
	c.mu.Lock()
	buf := make([]Entry, len(c.ring))
	copy(buf, c.ring)
	c.mu.Unlock()

	byKind := map[Kind][]Entry{}
	for _, e := range buf {
		if e.At.IsZero() || e.At.Before(since) {
			continue
		}
		byKind[e.Kind] = append(byKind[e.Kind], e)
	}

	return Snapshot{
		TotalRecorded: c.TotalRecorded(),
		Since:         since,
		Requests:      aggregate(byKind[KindRequest], topN),
		Queries:       aggregate(byKind[KindQuery], topN),
		Backend:       aggregate(byKind[KindBackend], topN),
	}
}

func aggregate(entries []Entry, topN int) LayerStat {
	if len(entries) == 0 {
		return LayerStat{Slowest: []OpStat{}}
	}
	durations := make([]float64, 0, len(entries))
	ops := make(map[string]*OpStat)
	for _, e := range entries {
		durations = append(durations, e.DurationMs)
		s, ok := ops[e.Op]
		if !ok {
			s = &OpStat{Op: e.Op}
			ops[e.Op] = s
		}
		s.Count++
		s.totalMs += e.DurationMs
		s.MaxMs = math.Max(s.MaxMs, e.DurationMs)
		if e.StatusCode >= 500 {
			s.Errors++
		}
	}
	sort.Float64s(durations)

	list := make([]OpStat, 0, len(ops))
	for _, s := range ops {
		s.AvgMs = s.totalMs / float64(s.Count)
		list = append(list, *s)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].AvgMs != list[j].AvgMs {
			return list[i].AvgMs > list[j].AvgMs
		}
		return list[i].Op < list[j].Op
	})
	if len(list) > topN {
		list = list[:topN]
	}

	return LayerStat{
		Count:   len(entries),
		P50Ms:   percentile(durations, 50),
		P95Ms:   percentile(durations, 95),
		P99Ms:   percentile(durations, 99),
		Slowest: list,
	}
}

// percentile interpolates the p-th percentile of a sorted slice.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := (p / 100) * float64(len(sorted)-1)
	lo, hi := int(math.Floor(idx)), int(math.Ceil(idx))
	if lo == hi {
		return sorted[lo]
	}
	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}
