package shortcode

import (
	"sync"
	"time"

	"github.com/goliatone/go-snippet/pkg/interfaces"
)

// NoOpMetrics returns a metrics recorder that drops every observation.
func NoOpMetrics() interfaces.ShortcodeMetrics {
	return noopMetrics{}
}

type noopMetrics struct{}

func (noopMetrics) ObserveRenderDuration(string, time.Duration) {}

func (noopMetrics) IncrementRenderError(string) {}

// CountingMetrics keeps per-shortcode render counters in memory.
type CountingMetrics struct {
	mu       sync.Mutex
	renders  map[string]int
	errors   map[string]int
	duration map[string]time.Duration
}

// NewCountingMetrics returns an empty recorder.
func NewCountingMetrics() *CountingMetrics {
	return &CountingMetrics{
		renders:  map[string]int{},
		errors:   map[string]int{},
		duration: map[string]time.Duration{},
	}
}

func (m *CountingMetrics) ObserveRenderDuration(shortcode string, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.renders[shortcode]++
	m.duration[shortcode] += duration
}

func (m *CountingMetrics) IncrementRenderError(shortcode string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[shortcode]++
}

// Snapshot reports renders, failures and cumulative time for shortcode.
func (m *CountingMetrics) Snapshot(shortcode string) (renders, failures int, total time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.renders[shortcode], m.errors[shortcode], m.duration[shortcode]
}

var _ interfaces.ShortcodeMetrics = (*CountingMetrics)(nil)
