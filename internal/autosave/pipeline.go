// Copyright 2025 SirSeer, LLC
//
// Licensed under the Business Source License 1.1 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://mariadb.com/bsl11
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package autosave

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	studioerrors "github.com/sirseerhq/sirseer-studio/internal/errors"
	"github.com/sirseerhq/sirseer-studio/internal/history"
	"github.com/sirseerhq/sirseer-studio/internal/metadata"
)

// Default timings.
const (
	DefaultDebounce    = 2500 * time.Millisecond
	DefaultInterval    = 120000 * time.Millisecond
	DefaultTimeout     = 30 * time.Second
	DefaultLabelFormat = "15:04:05"
)

// SaveFunc writes view to durable storage. The context carries the trigger
// (see metadata.TriggerFrom) and the save deadline.
type SaveFunc[T any] func(ctx context.Context, view history.View[T]) error

// Source is the history a pipeline observes. *history.Store satisfies it.
type Source[T any] interface {
	View() history.View[T]
	Revision() uint64
	Subscribe() (<-chan uint64, func())
}

// Options configures a Pipeline. Zero values select the defaults.
type Options struct {
	// Debounce is the quiet period after a change before a save runs.
	Debounce time.Duration

	// Interval is the period of the unconditional save ticker.
	Interval time.Duration

	// Timeout bounds a single save.
	Timeout time.Duration

	Logger *slog.Logger

	// Clock returns the time recorded for a completed save.
	Clock func() time.Time

	// LabelFormat is the time layout used by LastSavedLabel.
	LabelFormat string

	// OnStatus, when set, is called after every status change.
	OnStatus func(Status)
}

func (o Options) withDefaults() Options {
	if o.Debounce <= 0 {
		o.Debounce = DefaultDebounce
	}
	if o.Interval <= 0 {
		o.Interval = DefaultInterval
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.Clock == nil {
		o.Clock = time.Now
	}
	if o.LabelFormat == "" {
		o.LabelFormat = DefaultLabelFormat
	}
	return o
}

// Stats counts pipeline activity.
type Stats struct {
	Triggers    int
	Saves       int
	Failures    int
	Coalesced   int
	AvgSaveTime time.Duration
}

// Pipeline drives a SaveFunc from a Source. Create one with Start.
//
// At most one save runs through the pipeline at a time, with one exception:
// a save that ignores its context past Timeout is abandoned and the gate is
// released, so the next call can overlap it. A SaveFunc that must never run
// concurrently with itself has to serialize its own writes, as
// persist.Protocol does.
type Pipeline[T any] struct {
	src  Source[T]
	save SaveFunc[T]
	opts Options

	changes     <-chan uint64
	unsubscribe func()
	baseline    uint64

	// gate holds a token while a save runs.
	gate chan struct{}
	stop chan struct{}
	done chan struct{}
	runs sync.WaitGroup

	mu             sync.Mutex
	closed         bool
	pending        bool
	pendingTrigger metadata.Trigger
	status         Status
	lastSaved      time.Time
	lastErr        error
	savedRevision  uint64
	stats          Stats
	totalSaveTime  time.Duration
}

// Start subscribes to src and begins watching it. The state src holds at
// Start counts as already observed and does not trigger a save.
func Start[T any](src Source[T], save SaveFunc[T], opts Options) *Pipeline[T] {
	p := &Pipeline[T]{
		src:  src,
		save: save,
		opts: opts.withDefaults(),
		gate: make(chan struct{}, 1),
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	p.changes, p.unsubscribe = src.Subscribe()
	p.baseline = src.Revision()

	go p.watch()
	return p
}

func (p *Pipeline[T]) watch() {
	defer close(p.done)

	ticker := time.NewTicker(p.opts.Interval)
	defer ticker.Stop()

	debounce := time.NewTimer(p.opts.Debounce)
	debounce.Stop()
	defer debounce.Stop()
	var debounceC <-chan time.Time

	for {
		select {
		case <-p.stop:
			return

		case rev, ok := <-p.changes:
			if !ok {
				return
			}
			if rev <= p.baseline {
				continue
			}
			debounce.Reset(p.opts.Debounce)
			debounceC = debounce.C

		case <-debounceC:
			debounceC = nil
			p.trigger(metadata.TriggerDebounce)

		case <-ticker.C:
			p.trigger(metadata.TriggerInterval)
		}
	}
}

// trigger starts a save, or marks a trailing save when one is running.
func (p *Pipeline[T]) trigger(t metadata.Trigger) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}
	p.stats.Triggers++

	select {
	case p.gate <- struct{}{}:
		p.runs.Add(1)
		go p.run(t)
	default:
		if p.pending {
			p.stats.Coalesced++
		}
		p.pending = true
		p.pendingTrigger = t
	}
}

// run executes saves while holding the gate, starting with one for t.
func (p *Pipeline[T]) run(t metadata.Trigger) {
	defer p.runs.Done()
	for {
		view := p.src.View()
		_ = p.execute(context.Background(), t, view)

		next, again := p.handoff(view.Revision)
		if !again {
			return
		}
		t = next
	}
}

// handoff is called by the gate holder after a save that captured rev. It
// reports whether a trailing save is due; otherwise it releases the gate.
func (p *Pipeline[T]) handoff(rev uint64) (metadata.Trigger, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.pending && !p.closed && p.src.Revision() != rev {
		p.pending = false
		return p.pendingTrigger, true
	}
	if p.pending {
		p.stats.Coalesced++
		p.pending = false
	}
	<-p.gate
	return "", false
}

// execute performs one save cycle and records its outcome.
func (p *Pipeline[T]) execute(parent context.Context, t metadata.Trigger, view history.View[T]) error {
	p.setStatus(StatusSaving, nil, time.Time{}, 0)

	ctx, cancel := context.WithTimeout(metadata.WithTrigger(parent, t), p.opts.Timeout)
	defer cancel()

	start := time.Now()
	err := p.call(ctx, view)
	elapsed := time.Since(start)

	if err != nil {
		p.opts.Logger.Warn("autosave failed",
			"trigger", t,
			"revision", view.Revision,
			"duration", elapsed,
			"error", err)
		p.setStatus(StatusError, err, time.Time{}, elapsed)
		return err
	}

	p.opts.Logger.Debug("autosave completed",
		"trigger", t,
		"revision", view.Revision,
		"duration", elapsed)
	p.setStatus(StatusSaved, nil, p.opts.Clock(), elapsed)

	p.mu.Lock()
	p.savedRevision = view.Revision
	p.mu.Unlock()
	return nil
}

// call runs the save function, converting panics and deadline overruns into
// errors. A save that ignores its context is abandoned at the deadline.
func (p *Pipeline[T]) call(ctx context.Context, view history.View[T]) error {
	result := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				result <- fmt.Errorf("%w: panic: %v", studioerrors.ErrSaveFailed, r)
			}
		}()
		result <- p.save(ctx, view)
	}()

	select {
	case err := <-result:
		if err != nil && ctx.Err() == context.DeadlineExceeded {
			return fmt.Errorf("%w after %s: %w", studioerrors.ErrSaveTimeout, p.opts.Timeout, err)
		}
		return err
	case <-ctx.Done():
		if ctx.Err() == context.DeadlineExceeded {
			return fmt.Errorf("%w after %s", studioerrors.ErrSaveTimeout, p.opts.Timeout)
		}
		return ctx.Err()
	}
}

// setStatus records a status change. Changes after Close are dropped.
func (p *Pipeline[T]) setStatus(s Status, err error, savedAt time.Time, elapsed time.Duration) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.status = s
	switch s {
	case StatusSaved:
		p.lastSaved = savedAt
		p.lastErr = nil
		p.stats.Saves++
		p.totalSaveTime += elapsed
	case StatusError:
		p.lastErr = err
		p.stats.Failures++
		p.totalSaveTime += elapsed
	}
	onStatus := p.opts.OnStatus
	p.mu.Unlock()

	if onStatus != nil {
		onStatus(s)
	}
}

// Flush runs a save now through the same single-flight gate, waiting for a
// running save first. It skips the write when the last successful save
// already captured the current revision, and returns the save's error.
func (p *Pipeline[T]) Flush(ctx context.Context) error {
	select {
	case p.gate <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}

	view := p.src.View()

	p.mu.Lock()
	upToDate := p.status == StatusSaved && p.savedRevision == view.Revision
	p.mu.Unlock()

	var err error
	if !upToDate {
		err = p.execute(ctx, metadata.TriggerFlush, view)
	}

	if next, again := p.handoff(view.Revision); again {
		p.runs.Add(1)
		go p.run(next)
	}
	return err
}

// Close stops both timers and the change subscription. A save already
// running is not cancelled. Close is idempotent.
func (p *Pipeline[T]) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.mu.Unlock()

	close(p.stop)
	<-p.done
	p.unsubscribe()
}

// wait blocks until no save goroutine is running.
func (p *Pipeline[T]) wait() {
	p.runs.Wait()
}

// Status returns the outcome of the latest save cycle.
func (p *Pipeline[T]) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

// LastError returns the error of the latest failed cycle, nil after a success.
func (p *Pipeline[T]) LastError() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastErr
}

// LastSaved returns when the latest successful save completed.
func (p *Pipeline[T]) LastSaved() time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastSaved
}

// LastSavedLabel formats LastSaved for display. It is empty before the
// first successful save.
func (p *Pipeline[T]) LastSavedLabel() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.lastSaved.IsZero() {
		return ""
	}
	return p.lastSaved.Format(p.opts.LabelFormat)
}

// Stats returns a copy of the activity counters.
func (p *Pipeline[T]) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()

	s := p.stats
	if n := s.Saves + s.Failures; n > 0 {
		s.AvgSaveTime = p.totalSaveTime / time.Duration(n)
	}
	return s
}
