// Package recorder is the ingestion core: the non-blocking Record entry
// point, the bounded in-memory queue, and the single background consumer
// that drains the queue into the writer in batches.
//
// Record never blocks longer than a bounded constant time and never returns
// an error; logging must not perturb the caller's control flow. The price is
// an explicit trade-off: under sustained overload events are dropped and
// counted rather than applying backpressure.
package recorder

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/actionlog-project/actionlog/internal/logfile"
	"github.com/actionlog-project/actionlog/internal/maintenance"
	"github.com/actionlog-project/actionlog/internal/masker"
	"github.com/actionlog-project/actionlog/internal/writer"
	"github.com/actionlog-project/actionlog/pkg/config"
	"github.com/actionlog-project/actionlog/pkg/logging"
	"github.com/actionlog-project/actionlog/pkg/model"
)

// healthTimeout is how stale the consumer heartbeat may get before Record
// considers the consumer dead and intervenes.
const healthTimeout = 10 * time.Second

// shutdownGrace is how long Shutdown waits for the consumer beyond the batch
// timeout before draining the queue itself.
const shutdownGrace = 500 * time.Millisecond

// SessionProvider supplies the current session ID when a caller omits it.
type SessionProvider func() string

// Recorder ingests events from any number of concurrent producers.
type Recorder struct {
	cfg     *config.Config
	mask    *masker.Masker
	writer  *writer.Writer
	session SessionProvider

	queue chan *model.Event
	stop  chan struct{}

	seq          atomic.Uint64
	heartbeat    atomic.Int64 // unix nanos of last consumer cycle
	droppedFull  atomic.Uint64
	degraded     atomic.Bool
	closed       atomic.Bool
	shutdownOnce sync.Once
	syncMu       sync.Mutex // serializes degraded-mode drain+write pairs

	healthMu     sync.Mutex
	consumerDone chan struct{}
	restartUsed  bool
}

// Option configures a Recorder.
type Option func(*Recorder)

// WithSessionProvider installs a callback consulted when Record is called
// without a session ID, before falling back to "unknown".
func WithSessionProvider(p SessionProvider) Option {
	return func(r *Recorder) { r.session = p }
}

// WithWriter injects a writer, replacing the one derived from the config.
func WithWriter(w *writer.Writer) Option {
	return func(r *Recorder) { r.writer = w }
}

// New constructs the recorder and starts its background consumer. When the
// config disables logging entirely a warning is emitted once and every
// Record call becomes a no-op.
func New(cfg *config.Config, opts ...Option) *Recorder {
	r := newRecorder(cfg, opts...)
	if !cfg.Enabled {
		logging.Warn("action logging disabled by configuration")
		return r
	}

	r.startConsumer()

	if cfg.CleanupOnStartup {
		go func() {
			report := maintenance.New(cfg).Run(logfile.Day(time.Now()))
			logging.Debug("startup maintenance finished", map[string]any{
				"run_id":     report.RunID,
				"compressed": report.Compressed,
				"deleted":    report.Deleted,
			})
		}()
	}
	return r
}

func newRecorder(cfg *config.Config, opts ...Option) *Recorder {
	maskOpts := []masker.Option{
		masker.WithCustomFields(cfg.CustomSensitive),
		masker.WithMaxPayloadChars(cfg.MaxPayloadChars),
	}
	if !cfg.MaskingEnabled {
		maskOpts = append(maskOpts, masker.Disabled())
	}

	r := &Recorder{
		cfg:   cfg,
		mask:  masker.New(maskOpts...),
		queue: make(chan *model.Event, cfg.QueueCapacity),
		stop:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.writer == nil {
		r.writer = writer.New(cfg.LogDirectory)
	}
	return r
}

// Record enqueues one event, fire and forget. Missing sessionID falls back
// to the session provider, then to "unknown"; missing status defaults to
// success. On a full queue the event is dropped and counted.
func (r *Recorder) Record(eventType model.EventType, sessionID string, status model.Status, payload map[string]any) {
	if !r.cfg.Enabled || r.closed.Load() || !r.cfg.EventEnabled(eventType) {
		return
	}

	if sessionID == "" && r.session != nil {
		sessionID = r.session()
	}
	if sessionID == "" {
		sessionID = model.DefaultSessionID
	}
	if status == "" {
		status = model.StatusSuccess
	}

	e := &model.Event{
		Timestamp: time.Now().UTC(),
		Sequence:  r.seq.Add(1),
		Type:      eventType,
		SessionID: sessionID,
		Status:    status,
		Payload:   payload,
	}

	r.checkConsumer()
	if r.degraded.Load() {
		// Anything still queued carries a lower sequence number than e and
		// must reach disk first, so every fallback write drains the queue.
		r.syncMu.Lock()
		r.Flush()
		r.writeDirect([]*model.Event{e})
		r.syncMu.Unlock()
		return
	}

	select {
	case r.queue <- e:
	default:
		r.droppedFull.Add(1)
		logging.WarnOnce("queue-full", "event queue full, dropping events",
			map[string]any{"capacity": r.cfg.QueueCapacity})
	}
}

// checkConsumer restarts the consumer once if it has died or gone silent;
// after a failed restart the recorder permanently degrades to synchronous
// writes rather than going silent.
func (r *Recorder) checkConsumer() {
	last := r.heartbeat.Load()
	if last == 0 || time.Since(time.Unix(0, last)) < healthTimeout {
		return
	}

	r.healthMu.Lock()
	defer r.healthMu.Unlock()

	// Re-check under the lock; another producer may have intervened.
	last = r.heartbeat.Load()
	if last == 0 || time.Since(time.Unix(0, last)) < healthTimeout {
		return
	}

	if !r.restartUsed {
		r.restartUsed = true
		logging.Warn("consumer heartbeat stale, restarting consumer")
		r.heartbeat.Store(time.Now().UnixNano())
		r.consumerDone = make(chan struct{})
		go r.consume(r.consumerDone)
		return
	}

	if !r.degraded.Swap(true) {
		logging.WarnOnce("degraded-sync",
			"consumer restart failed, falling back to synchronous writes")
	}
}

func (r *Recorder) startConsumer() {
	r.healthMu.Lock()
	defer r.healthMu.Unlock()
	r.heartbeat.Store(time.Now().UnixNano())
	r.consumerDone = make(chan struct{})
	go r.consume(r.consumerDone)
}

// consume is the single background consumer: collect a batch of up to
// batchSize events or wait up to batchTimeout, whichever comes first, then
// hand the batch to the writer.
func (r *Recorder) consume(done chan struct{}) {
	defer close(done)
	defer func() {
		if p := recover(); p != nil {
			logging.Error("consumer panicked", map[string]any{"panic": p})
		}
	}()

	timeout := r.cfg.BatchTimeout()
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		r.heartbeat.Store(time.Now().UnixNano())

		batch := r.collectBatch(timer, timeout)
		if len(batch) > 0 {
			r.writeDirect(batch)
		}

		select {
		case <-r.stop:
			// Final drain happens in Flush; stop accepting cycles here.
			return
		default:
		}
	}
}

// collectBatch blocks for the first event (bounded by the batch timeout),
// then drains whatever else is immediately available up to the batch size.
func (r *Recorder) collectBatch(timer *time.Timer, timeout time.Duration) []*model.Event {
	if !timer.Stop() {
		select {
		case <-timer.C:
		default:
		}
	}
	timer.Reset(timeout)

	var batch []*model.Event
	select {
	case e := <-r.queue:
		batch = append(batch, e)
	case <-timer.C:
		return nil
	case <-r.stop:
		return nil
	}

	for len(batch) < r.cfg.BatchSize {
		select {
		case e := <-r.queue:
			batch = append(batch, e)
		default:
			return batch
		}
	}
	return batch
}

// writeDirect masks and writes a batch. Writer failures are already counted
// and logged inside the writer; nothing propagates to producers.
func (r *Recorder) writeDirect(batch []*model.Event) {
	masked := make([]*model.Event, len(batch))
	for i, e := range batch {
		masked[i] = r.mask.Mask(e)
	}
	if err := r.writer.WriteBatch(masked); err != nil {
		logging.Debug("batch write failed", map[string]any{"error": err.Error()})
	}
}

// Flush synchronously drains everything currently queued and writes it,
// bypassing the consumer. Safe to call from a signal handler context: the
// drain is non-blocking, so it cannot deadlock against the consumer.
func (r *Recorder) Flush() {
	for {
		var batch []*model.Event
		for len(batch) < r.cfg.BatchSize {
			select {
			case e := <-r.queue:
				batch = append(batch, e)
			default:
				if len(batch) == 0 {
					return
				}
				r.writeDirect(batch)
				return
			}
		}
		r.writeDirect(batch)
	}
}

// Shutdown stops the consumer, flushes the queue, and releases the file
// handle. Completes within roughly batchTimeout plus a small margin so it
// never hangs process exit. Idempotent.
func (r *Recorder) Shutdown() {
	r.shutdownOnce.Do(func() {
		r.closed.Store(true)
		close(r.stop)

		r.healthMu.Lock()
		done := r.consumerDone
		r.healthMu.Unlock()

		if done != nil {
			select {
			case <-done:
			case <-time.After(r.cfg.BatchTimeout() + shutdownGrace):
				logging.Warn("consumer did not stop in time, draining directly")
			}
		}

		r.Flush()
		if err := r.writer.Close(); err != nil {
			logging.ErrorErr("close log file", err)
		}
	})
}

// Health is a point-in-time snapshot of the ingestion pipeline.
type Health struct {
	Queued          int       `json:"queued"`
	Capacity        int       `json:"capacity"`
	DroppedFull     uint64    `json:"dropped_queue_full"`
	DroppedWrites   uint64    `json:"dropped_writes"`
	Mode            string    `json:"mode"`
	LastHeartbeat   time.Time `json:"last_heartbeat"`
	RestartAttempts int       `json:"restart_attempts"`
}

// Health reports queue occupancy, drop counters, and consumer liveness.
func (r *Recorder) Health() Health {
	mode := "async"
	switch {
	case !r.cfg.Enabled:
		mode = "disabled"
	case r.degraded.Load():
		mode = "degraded-sync"
	}

	r.healthMu.Lock()
	restarts := 0
	if r.restartUsed {
		restarts = 1
	}
	r.healthMu.Unlock()

	var hb time.Time
	if ns := r.heartbeat.Load(); ns != 0 {
		hb = time.Unix(0, ns)
	}
	return Health{
		Queued:          len(r.queue),
		Capacity:        r.cfg.QueueCapacity,
		DroppedFull:     r.droppedFull.Load(),
		DroppedWrites:   r.writer.Dropped(),
		Mode:            mode,
		LastHeartbeat:   hb,
		RestartAttempts: restarts,
	}
}
