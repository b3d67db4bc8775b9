// Package engine holds the latest conditions snapshot and the display mode,
// and republishes derived display values whenever either changes.
//
// All state transitions happen on the goroutine running Run. Inputs arrive
// as messages; the fetch runs on its own goroutine and re-enters the loop as
// a message, so at most one fetch is outstanding at a time. A refresh that
// arrives while a fetch is in flight is ignored; RefreshAndWait callers that
// arrive in that window join the in-flight fetch and get its outcome.
package engine

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"breather/internal/conditions"
	"breather/internal/display"

	"github.com/google/uuid"
)

const defaultSubscriberBuffer = 16

// ErrStopped is returned by inputs once Run has returned.
var ErrStopped = errors.New("engine stopped")

// Fetcher is the data source the engine refreshes from.
type Fetcher interface {
	FetchConditions(ctx context.Context, lat, lon float64) (conditions.CityConditions, error)
}

type Options struct {
	Fetcher Fetcher
	Lat     float64
	Lon     float64
	Bands   display.Bands
	Mode    conditions.DisplayMode
	Logger  *slog.Logger
	// SubscriberBuffer is the per-subscription queue length.
	SubscriberBuffer int
}

type refreshRequest struct {
	done chan error // nil for fire-and-forget refreshes
}

type modeRequest struct {
	mode  conditions.DisplayMode
	reply chan State
}

type fetchResult struct {
	id         string
	conditions conditions.CityConditions
	err        error
}

type Engine struct {
	fetcher Fetcher
	lat     float64
	lon     float64
	bands   display.Bands
	logger  *slog.Logger
	bufSize int

	refreshCh chan refreshRequest
	modeCh    chan modeRequest
	resultCh  chan fetchResult
	done      chan struct{}
	running   atomic.Bool
	inFlight  atomic.Bool
	counters  counters

	// snapshot is the last committed state, readable from any goroutine.
	mu       sync.RWMutex
	snapshot State

	subsMu    sync.Mutex
	subs      map[uint64]*Subscription
	nextSubID uint64
	closed    bool

	// Owned by the Run goroutine.
	state       State
	latest      *conditions.CityConditions
	mode        conditions.DisplayMode
	pendingID   string
	waiters     []chan error
	cancelFetch context.CancelFunc
}

func New(opts Options) *Engine {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	bands := opts.Bands
	if len(bands.AQI) == 0 || len(bands.Temperature) == 0 {
		bands = display.DefaultBands()
	}
	bufSize := opts.SubscriberBuffer
	if bufSize <= 0 {
		bufSize = defaultSubscriberBuffer
	}

	e := &Engine{
		fetcher:   opts.Fetcher,
		lat:       opts.Lat,
		lon:       opts.Lon,
		bands:     bands,
		logger:    logger.With("component", "engine"),
		bufSize:   bufSize,
		refreshCh: make(chan refreshRequest, 1),
		modeCh:    make(chan modeRequest),
		resultCh:  make(chan fetchResult, 1),
		done:      make(chan struct{}),
		subs:      make(map[uint64]*Subscription),
		mode:      opts.Mode,
	}
	e.state = State{
		View:      display.Placeholder(),
		Mode:      opts.Mode,
		UpdatedAt: time.Now().UTC(),
	}
	e.snapshot = e.state
	return e
}

// Run processes inputs until ctx is done. It must be called exactly once.
func (e *Engine) Run(ctx context.Context) error {
	if !e.running.CompareAndSwap(false, true) {
		return errors.New("engine already running")
	}
	defer e.shutdown(ctx)

	e.logger.Info("engine started", "lat", e.lat, "lon", e.lon, "mode", e.mode.String())
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case req := <-e.refreshCh:
			e.handleRefresh(ctx, req)
		case req := <-e.modeCh:
			e.handleMode(req)
		case res := <-e.resultCh:
			e.handleResult(res)
		}
	}
}

// Refresh asks for a fetch without waiting for it. It returns false when the
// request was dropped because a fetch is already pending.
func (e *Engine) Refresh() bool {
	select {
	case <-e.done:
		return false
	default:
	}
	if e.inFlight.Load() {
		e.counters.ignored.Add(1)
		e.logger.Debug("refresh ignored: fetch in flight")
		return false
	}
	select {
	case e.refreshCh <- refreshRequest{}:
		return true
	default:
		e.counters.ignored.Add(1)
		e.logger.Debug("refresh ignored: refresh already queued")
		return false
	}
}

// RefreshAndWait triggers a fetch, or joins the pending one, and waits for
// its outcome. A non-nil error is the fetch error, ctx.Err() or ErrStopped.
func (e *Engine) RefreshAndWait(ctx context.Context) error {
	select {
	case <-e.done:
		return ErrStopped
	default:
	}

	done := make(chan error, 1)
	select {
	case e.refreshCh <- refreshRequest{done: done}:
	case <-ctx.Done():
		return ctx.Err()
	case <-e.done:
		return ErrStopped
	}

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-e.done:
		select {
		case err := <-done:
			return err
		default:
			return ErrStopped
		}
	}
}

// SetMode switches the AQI standard and returns the resulting state.
// It never triggers a fetch.
func (e *Engine) SetMode(ctx context.Context, mode conditions.DisplayMode) (State, error) {
	reply := make(chan State, 1)
	select {
	case e.modeCh <- modeRequest{mode: mode, reply: reply}:
	case <-ctx.Done():
		return State{}, ctx.Err()
	case <-e.done:
		return State{}, ErrStopped
	}
	select {
	case st := <-reply:
		return st, nil
	case <-ctx.Done():
		return State{}, ctx.Err()
	}
}

// Snapshot returns the last published state.
func (e *Engine) Snapshot() State {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.snapshot
}

// Subscribe registers for updates touching any of streams; no streams means
// every update. The subscription is closed when the engine stops.
func (e *Engine) Subscribe(streams ...Stream) *Subscription {
	filter := make(map[Stream]bool, len(streams))
	for _, st := range streams {
		filter[st] = true
	}

	e.subsMu.Lock()
	defer e.subsMu.Unlock()
	e.nextSubID++
	s := &Subscription{
		id:     e.nextSubID,
		filter: filter,
		ch:     make(chan Update, e.bufSize),
		engine: e,
	}
	if e.closed {
		close(s.ch)
		return s
	}
	e.subs[s.id] = s
	return s
}

// Done is closed after Run returns.
func (e *Engine) Done() <-chan struct{} {
	return e.done
}

// RunTicker refreshes once immediately and then every interval until ctx is
// done. A non-positive interval disables polling.
func (e *Engine) RunTicker(ctx context.Context, every time.Duration) {
	if every <= 0 {
		return
	}
	e.Refresh()

	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-e.done:
			return
		case <-ticker.C:
			e.Refresh()
		}
	}
}

func (e *Engine) handleRefresh(ctx context.Context, req refreshRequest) {
	if req.done != nil {
		e.waiters = append(e.waiters, req.done)
	}
	if e.pendingID != "" {
		if req.done != nil {
			e.counters.joined.Add(1)
			e.logger.Debug("refresh joined pending fetch", "refresh_id", e.pendingID)
		} else {
			e.counters.ignored.Add(1)
			e.logger.Debug("refresh ignored: fetch in flight", "refresh_id", e.pendingID)
		}
		return
	}

	id := uuid.NewString()
	e.pendingID = id
	e.inFlight.Store(true)
	e.counters.fetches.Add(1)

	fetchCtx, cancel := context.WithCancel(ctx)
	e.cancelFetch = cancel

	e.state.IsLoading = true
	e.state.RefreshID = id
	e.commit(StreamIsLoading)

	e.logger.Debug("fetch started", "refresh_id", id)
	go func() {
		c, err := e.fetcher.FetchConditions(fetchCtx, e.lat, e.lon)
		e.resultCh <- fetchResult{id: id, conditions: c, err: err}
	}()
}

func (e *Engine) handleResult(res fetchResult) {
	if res.id != e.pendingID {
		return
	}
	e.pendingID = ""
	e.inFlight.Store(false)
	if e.cancelFetch != nil {
		e.cancelFetch()
		e.cancelFetch = nil
	}

	now := time.Now().UTC()
	var changed []Stream
	if res.err != nil {
		e.counters.failures.Add(1)
		e.state.Err = res.err
		e.state.LastError = newErrorInfo(res.err, now)
		changed = []Stream{StreamError, StreamIsLoading}
		e.logger.Warn("fetch failed", "refresh_id", res.id, "error", res.err)
	} else {
		latest := res.conditions
		e.latest = &latest
		e.state.Conditions = e.latest
		e.state.View = e.bands.Compute(latest, e.mode)
		e.state.Err = nil
		e.state.LastError = nil
		changed = append(changed, DisplayStreams...)
		changed = append(changed, StreamError, StreamIsLoading)
		e.logger.Info("conditions updated",
			"refresh_id", res.id,
			"city", latest.City,
			"aqi_us", latest.Pollution.AQIUS,
			"aqi_cn", latest.Pollution.AQIChina,
		)
	}
	e.state.IsLoading = false
	e.commit(changed...)

	for _, w := range e.waiters {
		w <- res.err
	}
	e.waiters = nil
}

func (e *Engine) handleMode(req modeRequest) {
	e.mode = req.mode
	e.state.Mode = req.mode
	if e.latest != nil {
		e.state.View = e.bands.ApplyMode(e.state.View, *e.latest, req.mode)
		e.commit(ModeStreams...)
	} else {
		// Nothing derived yet; only the stored mode changes.
		e.publishSnapshot()
	}
	e.logger.Debug("display mode set", "mode", req.mode.String())
	req.reply <- e.state
}

// commit stamps the state and fans it out to subscribers.
func (e *Engine) commit(changed ...Stream) {
	e.state.Seq++
	e.state.UpdatedAt = time.Now().UTC()
	e.publishSnapshot()

	u := Update{Changed: changed, State: e.state}
	e.subsMu.Lock()
	defer e.subsMu.Unlock()
	for _, s := range e.subs {
		if !s.deliver(u) {
			e.logger.Debug("subscriber lagging, dropped oldest update", "subscription", s.id, "dropped", s.dropped)
		}
	}
}

func (e *Engine) publishSnapshot() {
	e.mu.Lock()
	e.snapshot = e.state
	e.mu.Unlock()
}

func (e *Engine) shutdown(ctx context.Context) {
	if e.cancelFetch != nil {
		e.cancelFetch()
	}
	err := ctx.Err()
	if err == nil {
		err = ErrStopped
	}
	for _, w := range e.waiters {
		w <- err
	}
	e.waiters = nil

	close(e.done)

	e.subsMu.Lock()
	e.closed = true
	for id, s := range e.subs {
		delete(e.subs, id)
		close(s.ch)
	}
	e.subsMu.Unlock()

	e.logger.Info("engine stopped")
}
