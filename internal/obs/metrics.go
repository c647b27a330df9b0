package obs

import (
	"sort"
	"strings"
	"sync"
)

// Label is a key/value pair attached to measurements.
type Label struct {
	Key   string
	Value string
}

// Meter is a very small interface for emitting counters/histograms.
// Implementations may no-op or bridge to a metrics system.
type Meter interface {
	Counter(name string, value float64, labels ...Label)
	Histogram(name string, value float64, labels ...Label)
}

// NopMeter is a Meter that discards all measurements.
type NopMeter struct{}

func (NopMeter) Counter(name string, value float64, labels ...Label)   {}
func (NopMeter) Histogram(name string, value float64, labels ...Label) {}

// MemMeter keeps counter totals and histogram observation counts in
// memory. Series are keyed by name plus sorted labels, e.g.
// `staticd.requests{method=GET,status=200}`. Safe for concurrent use.
type MemMeter struct {
	mu       sync.Mutex
	counters map[string]float64
	samples  map[string][]float64
}

func NewMemMeter() *MemMeter {
	return &MemMeter{
		counters: make(map[string]float64),
		samples:  make(map[string][]float64),
	}
}

func (m *MemMeter) Counter(name string, value float64, labels ...Label) {
	k := SeriesKey(name, labels...)
	m.mu.Lock()
	m.counters[k] += value
	m.mu.Unlock()
}

func (m *MemMeter) Histogram(name string, value float64, labels ...Label) {
	k := SeriesKey(name, labels...)
	m.mu.Lock()
	m.samples[k] = append(m.samples[k], value)
	m.mu.Unlock()
}

// CounterValue returns the running total of one counter series.
func (m *MemMeter) CounterValue(name string, labels ...Label) float64 {
	k := SeriesKey(name, labels...)
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counters[k]
}

// Observations returns how many histogram samples a series holds.
func (m *MemMeter) Observations(name string, labels ...Label) int {
	k := SeriesKey(name, labels...)
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.samples[k])
}

// Counters returns a copy of all counter series, keyed as SeriesKey does.
func (m *MemMeter) Counters() map[string]float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]float64, len(m.counters))
	for k, v := range m.counters {
		out[k] = v
	}
	return out
}

// SeriesKey renders name{k=v,...} with labels sorted by key.
func SeriesKey(name string, labels ...Label) string {
	if len(labels) == 0 {
		return name
	}
	ls := make([]Label, len(labels))
	copy(ls, labels)
	sort.Slice(ls, func(i, j int) bool { return ls[i].Key < ls[j].Key })
	var sb strings.Builder
	sb.WriteString(name)
	sb.WriteByte('{')
	for i, l := range ls {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(l.Key)
		sb.WriteByte('=')
		sb.WriteString(l.Value)
	}
	sb.WriteByte('}')
	return sb.String()
}
