package power

import "sync"

// DefaultHistorySize is the number of charge samples kept for the console
// sparkline. At the default 1s interval this is two minutes.
const DefaultHistorySize = 120

// History keeps the most recent charge readings in a ring buffer.
// It is safe for concurrent use.
type History struct {
	mu    sync.RWMutex
	data  []float64
	head  int
	count int
}

// NewHistory creates a History holding up to size samples.
func NewHistory(size int) *History {
	if size <= 0 {
		size = DefaultHistorySize
	}
	return &History{data: make([]float64, size)}
}

// Push records a sample's charge.
func (h *History) Push(s Sample) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.data[h.head] = float64(s.Charge)
	h.head = (h.head + 1) % len(h.data)
	if h.count < len(h.data) {
		h.count++
	}
}

// Last returns up to n charge values, oldest first.
func (h *History) Last(n int) []float64 {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if n <= 0 || h.count == 0 {
		return nil
	}
	if n > h.count {
		n = h.count
	}

	size := len(h.data)
	start := (h.head - n + size) % size
	out := make([]float64, n)
	for i := range out {
		out[i] = h.data[(start+i)%size]
	}
	return out
}

// Len returns how many samples are held.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.count
}
