package reindex

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// ProgressTracker reports the position of a bulk maintenance job on a
// single rewritten terminal line. Safe for concurrent use.
type ProgressTracker struct {
	mu         sync.Mutex
	writer     io.Writer
	total      int
	current    int
	interval   int
	reportedAt int
	startedAt  time.Time
	running    bool
}

// NewProgressTracker creates a tracker that writes to writer, reporting
// once per interval processed items out of total.
func NewProgressTracker(writer io.Writer, total, interval int) *ProgressTracker {
	return &ProgressTracker{
		writer:   writer,
		total:    total,
		interval: interval,
	}
}

// Start resets the tracker and begins timing.
func (p *ProgressTracker) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.startedAt = time.Now()
	p.running = true
	p.current = 0
	p.reportedAt = 0
}

// Update moves the position to current, reporting when a full interval has
// passed since the last report. Positions beyond total clamp to total.
func (p *ProgressTracker) Update(current int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return
	}
	p.current = min(current, p.total)
	if p.current-p.reportedAt >= p.interval {
		p.emit()
		p.reportedAt = p.current
	}
}

// Finish reports the final position and terminates the progress line.
func (p *ProgressTracker) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return
	}
	p.current = p.total
	p.emit()
	fmt.Fprintln(p.writer)
}

// Elapsed returns the time since Start.
func (p *ProgressTracker) Elapsed() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return 0
	}
	return time.Since(p.startedAt)
}

// emit writes one progress line. Callers hold the lock.
func (p *ProgressTracker) emit() {
	elapsed := time.Since(p.startedAt).Seconds()
	rate := 0.0
	if elapsed > 0 {
		rate = float64(p.current) / elapsed
	}
	pct := 0.0
	if p.total > 0 {
		pct = 100 * float64(p.current) / float64(p.total)
	}
	fmt.Fprintf(p.writer, "\rProgress: %d/%d (%.1f%%) - %.1f documents/s", p.current, p.total, pct, rate)
}
