package syncengine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/pkordes/jetjot/internal/domain"
	"github.com/pkordes/jetjot/internal/notify"
)

// ErrNoSprint is returned by mutations while no sprint is open.
var ErrNoSprint = errors.New("syncengine: no sprint open")

// ErrClosed is returned once Close has been called.
var ErrClosed = errors.New("syncengine: engine closed")

// DefaultUndoWindow is how long a recurring add stays undoable.
const DefaultUndoWindow = 6 * time.Second

// DefaultWriteTimeout bounds one remote write.
const DefaultWriteTimeout = 15 * time.Second

// Options configures an Engine. Zero values select the defaults.
type Options struct {
	// Location is the zone reminder times are read in. Defaults to time.Local.
	Location     *time.Location
	UndoWindow   time.Duration
	WriteTimeout time.Duration
	// Notifier receives due reminders. Defaults to a notify.Log.
	Notifier notify.Notifier
	Logger   *slog.Logger
	// Now overrides the clock used for timestamps and reminder delays.
	Now func() time.Time
}

// Engine is the client-side state holder for one session. It is safe for
// concurrent use.
type Engine struct {
	backend      Backend
	notifier     notify.Notifier
	logger       *slog.Logger
	loc          *time.Location
	undoWindow   time.Duration
	writeTimeout time.Duration
	now          func() time.Time

	mu     sync.Mutex
	cond   *sync.Cond
	sprint *domain.Sprint
	err    error
	closed bool

	queue []job
	busy  bool
	idle  chan struct{}
	done  chan struct{}

	// travelSeq counts travel-log writes enqueued so a result is adopted
	// only when it answers the newest one.
	travelSeq uint64

	undo      *pendingUndo
	reminders []scheduledReminder
}

// job is one queued remote write. run is called without the engine lock.
type job struct {
	op       string
	sprintID string
	run      func(ctx context.Context) error
}

// New starts an engine and its write worker.
func New(b Backend, opts Options) *Engine {
	e := &Engine{
		backend:      b,
		notifier:     opts.Notifier,
		logger:       opts.Logger,
		loc:          opts.Location,
		undoWindow:   opts.UndoWindow,
		writeTimeout: opts.WriteTimeout,
		now:          opts.Now,
		idle:         make(chan struct{}),
		done:         make(chan struct{}),
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	if e.notifier == nil {
		e.notifier = notify.NewLog(e.logger)
	}
	if e.loc == nil {
		e.loc = time.Local
	}
	if e.undoWindow <= 0 {
		e.undoWindow = DefaultUndoWindow
	}
	if e.writeTimeout <= 0 {
		e.writeTimeout = DefaultWriteTimeout
	}
	if e.now == nil {
		e.now = time.Now
	}
	e.cond = sync.NewCond(&e.mu)
	go e.work()
	return e
}

// Open loads or creates the sprint for [start, end] and makes it active.
func (e *Engine) Open(ctx context.Context, start, end time.Time, name string) (domain.Sprint, error) {
	if err := e.checkOpen(); err != nil {
		return domain.Sprint{}, err
	}
	sp, err := e.backend.LoadOrCreate(ctx, start, end, name)
	if err != nil {
		e.recordError("open", "", err)
		return domain.Sprint{}, fmt.Errorf("syncengine.Engine.Open: %w", err)
	}
	e.activate(sp)
	return sp.Clone(), nil
}

// Reload waits for queued writes and replaces the local copy with the
// backend's version. It is the only way local divergence is corrected.
func (e *Engine) Reload(ctx context.Context) (domain.Sprint, error) {
	id, err := e.activeID()
	if err != nil {
		return domain.Sprint{}, err
	}
	if err := e.Flush(ctx); err != nil {
		return domain.Sprint{}, fmt.Errorf("syncengine.Engine.Reload: %w", err)
	}
	sp, err := e.backend.Get(ctx, id)
	if err != nil {
		e.recordError("reload", id, err)
		return domain.Sprint{}, fmt.Errorf("syncengine.Engine.Reload: %w", err)
	}
	e.activate(sp)
	return sp.Clone(), nil
}

// activate swaps in sp. Reminders are rebuilt when the sprint identity
// changes; the pending undo belongs to the old sprint and is dropped.
func (e *Engine) activate(sp domain.Sprint) {
	e.mu.Lock()
	defer e.mu.Unlock()
	changed := e.sprint == nil || e.sprint.ID != sp.ID
	e.sprint = &sp
	if changed {
		e.clearUndoLocked()
		e.scheduleRemindersLocked()
	}
}

// Sprint returns a copy of the active sprint.
func (e *Engine) Sprint() (domain.Sprint, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.sprint == nil {
		return domain.Sprint{}, false
	}
	return e.sprint.Clone(), true
}

// Err returns the most recent remote failure, or nil.
func (e *Engine) Err() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.err
}

// ClearErr forgets the recorded failure once it has been shown.
func (e *Engine) ClearErr() {
	e.mu.Lock()
	e.err = nil
	e.mu.Unlock()
}

// Flush blocks until every queued write has finished or ctx is done.
func (e *Engine) Flush(ctx context.Context) error {
	e.mu.Lock()
	if len(e.queue) == 0 && !e.busy {
		e.mu.Unlock()
		return nil
	}
	idle := e.idle
	e.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close cancels the undo window and every reminder, drains the queue and
// stops the worker. The engine cannot be reused.
func (e *Engine) Close(ctx context.Context) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	e.clearUndoLocked()
	e.cancelRemindersLocked()
	e.sprint = nil
	e.cond.Broadcast()
	e.mu.Unlock()

	select {
	case <-e.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ---- write queue -----------------------------------------------------------

// enqueueLocked appends a write. Callers hold e.mu.
func (e *Engine) enqueueLocked(op, sprintID string, run func(ctx context.Context) error) {
	e.queue = append(e.queue, job{op: op, sprintID: sprintID, run: run})
	e.cond.Signal()
}

func (e *Engine) work() {
	defer close(e.done)
	for {
		e.mu.Lock()
		for len(e.queue) == 0 && !e.closed {
			e.cond.Wait()
		}
		if len(e.queue) == 0 {
			e.mu.Unlock()
			return
		}
		j := e.queue[0]
		e.queue = e.queue[1:]
		e.busy = true
		e.mu.Unlock()

		e.runJob(j)

		e.mu.Lock()
		e.busy = false
		if len(e.queue) == 0 {
			close(e.idle)
			e.idle = make(chan struct{})
		}
		e.mu.Unlock()
	}
}

func (e *Engine) runJob(j job) {
	ctx, cancel := context.WithTimeout(context.Background(), e.writeTimeout)
	defer cancel()

	start := time.Now()
	if err := j.run(ctx); err != nil {
		e.recordError(j.op, j.sprintID, err)
		return
	}
	e.logger.Debug("sync write", "op", j.op, "sprint_id", j.sprintID, "duration_ms", time.Since(start).Milliseconds())
}

func (e *Engine) recordError(op, sprintID string, err error) {
	e.logger.Error("sync write failed", "op", op, "sprint_id", sprintID, "error", err)
	e.mu.Lock()
	e.err = fmt.Errorf("%s: %w", op, err)
	e.mu.Unlock()
}

// ---- helpers ---------------------------------------------------------------

func (e *Engine) checkOpen() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}
	return nil
}

func (e *Engine) activeID() (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	switch {
	case e.closed:
		return "", ErrClosed
	case e.sprint == nil:
		return "", ErrNoSprint
	}
	return e.sprint.ID, nil
}

// withSprint runs fn under the lock against the active sprint.
func (e *Engine) withSprint(fn func(sp *domain.Sprint) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	switch {
	case e.closed:
		return ErrClosed
	case e.sprint == nil:
		return ErrNoSprint
	}
	return fn(e.sprint)
}

// isActive reports whether sprintID is still the open sprint. Callers hold e.mu.
func (e *Engine) isActiveLocked(sprintID string) bool {
	return e.sprint != nil && e.sprint.ID == sprintID
}
