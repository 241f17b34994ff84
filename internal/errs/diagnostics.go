package errs

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"
)

// DetailLevel controls how much of a path diagnostics events reveal,
// matching FS_CONTEXT_DIAGNOSTICS_DETAIL in spec.md §6.
type DetailLevel int

const (
	DetailNone       DetailLevel = 0
	DetailHashed     DetailLevel = 1
	DetailFull       DetailLevel = 2
)

// ToolEvent is published once at the start and once at the end of every
// tool call (spec.md §4.7).
type ToolEvent struct {
	Tool       string
	Phase      string // "start" or "end"
	DurationMS int64
	OK         bool
	Error      string
	Path       string
}

// PerfEvent is published per measurement, mirroring the second channel
// spec.md §4.7 describes for event-loop-style performance data. Go has no
// event loop to sample, so UtilizationPct/DelayMS approximate it from the
// scheduler: UtilizationPct is runtime-goroutine/GOMAXPROCS pressure at
// publish time and DelayMS is how late this event fired relative to its
// scheduled cadence. Nothing in this repository publishes PerfEvents;
// the progress rate limiter in internal/tools does not read them.
type PerfEvent struct {
	Tool           string
	UtilizationPct float64
	DelayMS        float64
}

// Diagnostics is a process-wide pub/sub publisher. Its zero value is
// ready to use with no subscribers, so "their absence must be
// indistinguishable from their presence from the caller's perspective"
// (spec.md §4.7) holds trivially: Publish is a no-op fan-out over
// whatever's currently subscribed, nil or not.
type Diagnostics struct {
	mu        sync.RWMutex
	enabled   bool
	detail    DetailLevel
	toolSubs  []chan ToolEvent
	perfSubs  []chan PerfEvent
}

// NewDiagnostics builds a publisher. enabled/detail mirror
// FS_CONTEXT_DIAGNOSTICS and FS_CONTEXT_DIAGNOSTICS_DETAIL.
func NewDiagnostics(enabled bool, detail DetailLevel) *Diagnostics {
	return &Diagnostics{enabled: enabled, detail: detail}
}

// Enabled reports whether diagnostics publication is turned on at all.
func (d *Diagnostics) Enabled() bool {
	if d == nil {
		return false
	}
	return d.enabled
}

// RedactPath applies the configured detail level to a path before it is
// attached to an event.
func (d *Diagnostics) RedactPath(path string) string {
	if d == nil || path == "" {
		return ""
	}
	switch d.detail {
	case DetailFull:
		return path
	case DetailHashed:
		sum := sha256.Sum256([]byte(path))
		h := hex.EncodeToString(sum[:])
		return h[:16]
	default:
		return ""
	}
}

// SubscribeTool registers a channel that receives ToolEvents. The
// returned unsubscribe func is idempotent and safe to call from any
// goroutine, matching the combined-cancellation cleanup discipline used
// throughout internal/concurrency.
func (d *Diagnostics) SubscribeTool(buffer int) (<-chan ToolEvent, func()) {
	ch := make(chan ToolEvent, buffer)
	d.mu.Lock()
	d.toolSubs = append(d.toolSubs, ch)
	d.mu.Unlock()
	var once sync.Once
	return ch, func() {
		once.Do(func() {
			d.mu.Lock()
			defer d.mu.Unlock()
			for i, c := range d.toolSubs {
				if c == ch {
					d.toolSubs = append(d.toolSubs[:i], d.toolSubs[i+1:]...)
					close(ch)
					return
				}
			}
		})
	}
}

// SubscribePerf registers a channel that receives PerfEvents.
func (d *Diagnostics) SubscribePerf(buffer int) (<-chan PerfEvent, func()) {
	ch := make(chan PerfEvent, buffer)
	d.mu.Lock()
	d.perfSubs = append(d.perfSubs, ch)
	d.mu.Unlock()
	var once sync.Once
	return ch, func() {
		once.Do(func() {
			d.mu.Lock()
			defer d.mu.Unlock()
			for i, c := range d.perfSubs {
				if c == ch {
					d.perfSubs = append(d.perfSubs[:i], d.perfSubs[i+1:]...)
					close(ch)
					return
				}
			}
		})
	}
}

// PublishTool fans ev out to every current subscriber without blocking:
// a full subscriber buffer drops the event rather than stalling the tool
// call that's publishing it.
func (d *Diagnostics) PublishTool(ev ToolEvent) {
	if !d.Enabled() {
		return
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, ch := range d.toolSubs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// PublishPerf fans ev out the same way PublishTool does.
func (d *Diagnostics) PublishPerf(ev PerfEvent) {
	if !d.Enabled() {
		return
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, ch := range d.perfSubs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// StartEnd is a small helper for wrapping a tool invocation: call it at
// the top of a handler, then call the returned func with the outcome.
func (d *Diagnostics) StartEnd(tool, path string) func(ok bool, errMsg string) {
	start := time.Now()
	d.PublishTool(ToolEvent{Tool: tool, Phase: "start", Path: d.RedactPath(path)})
	return func(ok bool, errMsg string) {
		d.PublishTool(ToolEvent{
			Tool:       tool,
			Phase:      "end",
			DurationMS: time.Since(start).Milliseconds(),
			OK:         ok,
			Error:      errMsg,
			Path:       d.RedactPath(path),
		})
	}
}
