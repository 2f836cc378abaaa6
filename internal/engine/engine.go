// Package engine runs the photo analysis pipeline over a media library and
// publishes its result, progress and state.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/kozaktomas/photo-cleaner/internal/cluster"
	"github.com/kozaktomas/photo-cleaner/internal/constants"
	"github.com/kozaktomas/photo-cleaner/internal/media"
	"github.com/kozaktomas/photo-cleaner/internal/sampler"
)

// State is the engine's lifecycle state.
type State string

// State values.
const (
	StateIdle      State = "idle"
	StateRunning   State = "running"
	StateCompleted State = "completed"
)

var (
	// ErrAlreadyRunning is returned when a run or deletion is requested
	// while another run is in flight.
	ErrAlreadyRunning = errors.New("analysis already running")
	// ErrDeletionFailed wraps a store error from a deletion request.
	ErrDeletionFailed = errors.New("deletion failed")
)

// Options configures an Engine.
type Options struct {
	// Concurrency bounds the number of images analyzed in parallel.
	Concurrency int
	// ExcludeFailedFingerprints keeps photos whose fingerprint sample failed
	// out of clustering. By default they take part with a zero fingerprint.
	ExcludeFailedFingerprints bool
	Logger                    *slog.Logger
}

// Engine analyzes a library. It is safe for concurrent use; at most one run
// is in flight at a time.
type Engine struct {
	store   media.Store
	sampler *sampler.Sampler
	opts    Options
	logger  *slog.Logger
	events  broadcaster

	mu       sync.RWMutex
	state    State
	progress float64
	auth     media.AuthState
	result   *Result
	cancel   context.CancelFunc
}

// New creates an idle engine over a store and the decoder for its assets.
func New(store media.Store, decoder media.Decoder, opts Options) *Engine {
	if opts.Concurrency <= 0 {
		opts.Concurrency = constants.WorkerPoolSize
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		store:   store,
		sampler: sampler.New(decoder),
		opts:    opts,
		logger:  logger,
		state:   StateIdle,
		auth:    media.AuthNotDetermined,
	}
}

// State returns the current lifecycle state.
func (e *Engine) State() State {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state
}

// Progress returns the progress of the current run in [0, 1]. It is 1 once
// a run completes and 0 before the first run.
func (e *Engine) Progress() float64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.progress
}

// Result returns the last completed result, or nil.
func (e *Engine) Result() *Result {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.result
}

// Authorization returns the last authorization state obtained from the store.
func (e *Engine) Authorization() media.AuthState {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.auth
}

// Subscribe registers a listener for engine events. Call Unsubscribe when done.
func (e *Engine) Subscribe() chan Event {
	return e.events.addListener()
}

// Unsubscribe removes and closes a listener channel.
func (e *Engine) Unsubscribe(ch chan Event) {
	e.events.removeListener(ch)
}

// RequestAuthorization asks the store for library access. It reports whether
// the granted state permits analysis; limited grants do.
func (e *Engine) RequestAuthorization(ctx context.Context) (bool, error) {
	state, err := e.store.RequestAuthorization(ctx)
	if err != nil {
		state = media.AuthDenied
	}

	e.mu.Lock()
	e.auth = state
	e.mu.Unlock()

	e.logger.Info("authorization requested", "state", state)
	if err != nil {
		return false, fmt.Errorf("request authorization: %w", err)
	}
	return state.Permits(), nil
}

// Cancel stops the in-flight run, if any. The run returns context.Canceled,
// the engine goes back to Idle and the previous result stays published.
// It reports whether a run was cancelled.
func (e *Engine) Cancel() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cancel == nil {
		return false
	}
	e.cancel()
	return true
}

// Run performs a full analysis of the library and publishes the result.
// It requires an authorized or limited grant from RequestAuthorization.
func (e *Engine) Run(ctx context.Context) (*Result, error) {
	runCtx, err := e.begin(ctx)
	if err != nil {
		return nil, err
	}

	result, err := e.analyze(runCtx)
	e.finish(result, err)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Start begins a run in the background and returns once it is running.
// Progress and the outcome are observed through Subscribe, State and Result.
func (e *Engine) Start(ctx context.Context) error {
	runCtx, err := e.begin(ctx)
	if err != nil {
		return err
	}
	go func() {
		result, err := e.analyze(runCtx)
		e.finish(result, err)
	}()
	return nil
}

// Delete asks the store to delete the photos and, if it succeeds, runs a full
// analysis again. The run slot is held from the deletion request until the
// analysis finishes, so no other run can start in between. An empty list does
// nothing and returns the current result. When the store fails the error
// wraps ErrDeletionFailed, no analysis runs and the previous state is restored.
func (e *Engine) Delete(ctx context.Context, photos []*cluster.Photo) (*Result, error) {
	if len(photos) == 0 {
		return e.Result(), nil
	}

	runCtx, err := e.begin(ctx)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(photos))
	assets := make([]media.Asset, 0, len(photos))
	for _, p := range photos {
		if _, ok := seen[p.Asset.ID]; ok {
			continue
		}
		seen[p.Asset.ID] = struct{}{}
		assets = append(assets, p.Asset)
	}

	if err := e.store.RequestDeletion(runCtx, assets); err != nil {
		e.logger.Error("deletion failed", "count", len(assets), "error", err)
		err = fmt.Errorf("%w: %w", ErrDeletionFailed, err)
		e.abort(err)
		return nil, err
	}
	e.logger.Info("assets deleted", "count", len(assets))

	result, err := e.analyze(runCtx)
	e.finish(result, err)
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (e *Engine) begin(ctx context.Context) (context.Context, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.auth.Permits() {
		return nil, media.ErrNotAuthorized
	}
	if e.state == StateRunning {
		return nil, ErrAlreadyRunning
	}

	runCtx, cancel := context.WithCancel(ctx)
	e.cancel = cancel
	e.state = StateRunning
	e.progress = 0
	e.events.send(Event{Type: EventStarted})
	return runCtx, nil
}

func (e *Engine) finish(result *Result, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.cancel()
	e.cancel = nil

	switch {
	case err == nil:
		e.result = result
		e.state = StateCompleted
		e.progress = 1
		e.logger.Info("analysis completed",
			"run_id", result.RunID,
			"photos", result.TotalPhotos,
			"videos", result.TotalVideos,
			"clusters", len(result.Duplicates),
			"reclaimable", result.FormattedSavings())
		e.events.send(Event{Type: EventCompleted, Progress: 1, Result: result})
	case errors.Is(err, context.Canceled):
		e.state = StateIdle
		e.progress = 0
		e.logger.Info("analysis cancelled")
		e.events.send(Event{Type: EventCancelled})
	default:
		e.state = StateIdle
		e.progress = 0
		e.logger.Error("analysis failed", "error", err)
		e.events.send(Event{Type: EventFailed, Message: err.Error()})
	}
}

// abort releases the run slot without analyzing. The last published result
// stays and the state returns to Completed if there is one.
func (e *Engine) abort(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.cancel()
	e.cancel = nil
	if e.result != nil {
		e.state = StateCompleted
		e.progress = 1
	} else {
		e.state = StateIdle
		e.progress = 0
	}
	e.events.send(Event{Type: EventFailed, Message: err.Error()})
}

// setProgress raises the progress of the current run. Lower values are
// ignored so progress never moves backwards.
func (e *Engine) setProgress(p float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != StateRunning || p <= e.progress {
		return
	}
	e.progress = min(p, 1)
	e.events.send(Event{Type: EventProgress, Progress: e.progress})
}
