package profiler

import (
	"fmt"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-bloom/common"
)

// SectionStats aggregates the timings of one measured section over a reporting interval.
type SectionStats struct {
	Label string
	Calls int
	Total time.Duration
	Max   time.Duration
}

// Mean returns the average duration per call, or 0 without calls.
func (s SectionStats) Mean() time.Duration {
	if s.Calls == 0 {
		return 0
	}
	return s.Total / time.Duration(s.Calls)
}

// Report is the summary produced at the end of a reporting interval.
type Report struct {
	// FPS is the number of ticks per second over the interval.
	FPS float64
	// HeapMB is the live heap size.
	HeapMB float64
	// AllocRateMB is the heap allocation rate in MB per second.
	AllocRateMB float64
	// GCCount is the total number of completed GC cycles.
	GCCount uint32
	// Sections holds the measured sections ordered by total time, longest first.
	Sections []SectionStats
}

// String formats the report as a single log line.
func (r Report) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "FPS: %.2f | Heap: %.2f MB | Alloc Rate: %.2f MB/s | GC: %d", r.FPS, r.HeapMB, r.AllocRateMB, r.GCCount)
	for _, s := range r.Sections {
		fmt.Fprintf(&sb, " | %s: %d x %v (max %v)", s.Label, s.Calls, s.Mean().Round(time.Microsecond), s.Max.Round(time.Microsecond))
	}
	return sb.String()
}

// Profiler tracks frame rate, memory statistics and the time spent in measured sections.
// Reports go to the logger at a configurable interval.
type Profiler struct {
	mu sync.Mutex

	logger         common.Logger
	now            func() time.Time
	updateInterval time.Duration

	frameCount     int
	lastTime       time.Time
	memStats       runtime.MemStats
	lastTotalAlloc uint64
	sections       map[string]*SectionStats
}

// NewProfiler creates a new Profiler. Update interval defaults to 1 second and reports
// are logged with the "Profiler" prefix.
//
// Parameters:
//   - opts: variadic list of ProfilerBuilderOption functions
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler(opts ...ProfilerBuilderOption) *Profiler {
	p := &Profiler{
		logger:         common.NewDefaultLogger("Profiler", false),
		now:            time.Now,
		updateInterval: time.Second,
		sections:       make(map[string]*SectionStats),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.lastTime = p.now()
	return p
}

// Measure runs fn and records its duration under label.
//
// Parameters:
//   - label: the section name
//   - fn: the work to time
//
// Returns:
//   - error: the error returned by fn
func (p *Profiler) Measure(label string, fn func() error) error {
	start := p.now()
	err := fn()
	p.Record(label, p.now().Sub(start))
	return err
}

// Record adds one timing sample for label.
//
// Parameters:
//   - label: the section name
//   - d: the measured duration
func (p *Profiler) Record(label string, d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	s, ok := p.sections[label]
	if !ok {
		s = &SectionStats{Label: label}
		p.sections[label] = s
	}
	s.Calls++
	s.Total += d
	if d > s.Max {
		s.Max = d
	}
}

// Tick should be called once per frame to track frame timing. When the update interval
// has elapsed the statistics are logged and reset.
//
// Returns:
//   - Report: the report for the elapsed interval, zero when not reported
//   - bool: true if stats were logged this tick, false otherwise
func (p *Profiler) Tick() (Report, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.frameCount++
	currentTime := p.now()
	elapsed := currentTime.Sub(p.lastTime)
	if elapsed < p.updateInterval {
		return Report{}, false
	}

	runtime.ReadMemStats(&p.memStats)
	allocDelta := p.memStats.TotalAlloc - p.lastTotalAlloc
	report := Report{
		FPS:         float64(p.frameCount) / elapsed.Seconds(),
		HeapMB:      float64(p.memStats.Alloc) / 1024 / 1024,
		AllocRateMB: float64(allocDelta) / 1024 / 1024 / elapsed.Seconds(),
		GCCount:     p.memStats.NumGC,
		Sections:    make([]SectionStats, 0, len(p.sections)),
	}
	for _, s := range p.sections {
		report.Sections = append(report.Sections, *s)
	}
	sort.Slice(report.Sections, func(i, j int) bool {
		if report.Sections[i].Total == report.Sections[j].Total {
			return report.Sections[i].Label < report.Sections[j].Label
		}
		return report.Sections[i].Total > report.Sections[j].Total
	})

	p.logger.Infof("%s", report)

	p.frameCount = 0
	p.lastTime = currentTime
	p.lastTotalAlloc = p.memStats.TotalAlloc
	clear(p.sections)
	return report, true
}
