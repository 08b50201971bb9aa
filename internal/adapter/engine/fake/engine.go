// Package fake provides an in-memory, scriptable PlayerEngine for tests.
// It mutates queue and mode state like a real engine but never emits
// notifications on its own; tests drive batches explicitly through
// EmitBatch so event sequences stay deterministic.
package fake

import (
	"sync"

	"github.com/soundleaf/soundleaf/internal/domain"
	"github.com/soundleaf/soundleaf/internal/ports"
)

// Calls counts invocations per engine method so tests can assert how many
// times (or that zero times) a command reached the engine.
type Calls struct {
	Prepare               int
	Play                  int
	Pause                 int
	Stop                  int
	Release               int
	SeekTo                int
	SeekToPosition        int
	SeekToDefaultPosition int
	SeekBack              int
	SeekForward           int
	SeekToPrevious        int
	SeekToNext            int
	SetItems              int
	AddItems              int
	RemoveItem            int
	MoveItem              int
	ClearItems            int
	SetShuffleEnabled     int
	SetRepeatMode         int
	SetSpeed              int
}

// QueueMutations returns the total number of queue-changing calls.
func (c Calls) QueueMutations() int {
	return c.SetItems + c.AddItems + c.RemoveItem + c.MoveItem + c.ClearItems
}

// Engine is a scriptable ports.PlayerEngine double.
type Engine struct {
	mu sync.Mutex

	items         []ports.EngineTrack
	index         int
	positionMS    int64
	durationMS    int64
	phase         ports.PlaybackPhase
	playWhenReady bool
	loading       bool
	shuffle       bool
	repeat        domain.RepeatMode
	speed         float64
	seekBackMS    int64
	seekForwardMS int64
	capabilities  []ports.Capability
	listeners     []ports.EngineListener
	released      bool

	calls Calls
}

// New returns a fake engine with an empty queue, the full known capability
// set and 10s/30s seek increments.
func New() *Engine {
	return &Engine{
		index:         -1,
		speed:         1.0,
		seekBackMS:    10_000,
		seekForwardMS: 30_000,
		capabilities: []ports.Capability{
			ports.CapabilityPlayPause,
			ports.CapabilitySeekBack,
			ports.CapabilitySeekForward,
			ports.CapabilitySkipPrevious,
			ports.CapabilitySkipNext,
			ports.CapabilitySetShuffle,
		},
	}
}

// Calls returns a snapshot of the per-method invocation counters.
func (e *Engine) Calls() Calls {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

// Released reports whether Release was called.
func (e *Engine) Released() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.released
}

// Script mutators. These set raw state without emitting anything.

// SetPhase overrides the reported lifecycle phase.
func (e *Engine) SetPhase(phase ports.PlaybackPhase) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.phase = phase
}

// SetLoading overrides the reported loading flag.
func (e *Engine) SetLoading(loading bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.loading = loading
}

// SetPlayWhenReady overrides the play-when-ready flag.
func (e *Engine) SetPlayWhenReady(playWhenReady bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.playWhenReady = playWhenReady
}

// SetPosition overrides the reported playback offset.
func (e *Engine) SetPosition(positionMS int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.positionMS = positionMS
}

// SetDuration overrides the reported item duration.
func (e *Engine) SetDuration(durationMS int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.durationMS = durationMS
}

// SetCurrentIndex moves the playback cursor without emitting anything.
func (e *Engine) SetCurrentIndex(index int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.index = index
}

// SetCapabilities overrides the reported capability codes.
func (e *Engine) SetCapabilities(capabilities ...ports.Capability) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.capabilities = capabilities
}

// SetSeekIncrements overrides the reported seek jump durations.
func (e *Engine) SetSeekIncrements(backMS, forwardMS int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.seekBackMS = backMS
	e.seekForwardMS = forwardMS
}

// EmitBatch delivers one notification batch to every registered listener,
// synchronously and in registration order.
func (e *Engine) EmitBatch(events ports.Events) {
	e.mu.Lock()
	listeners := make([]ports.EngineListener, len(e.listeners))
	copy(listeners, e.listeners)
	e.mu.Unlock()

	for _, l := range listeners {
		l.OnEvents(events)
	}
}

// ports.PlayerEngine implementation.

func (e *Engine) Prepare() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls.Prepare++
	if len(e.items) > 0 {
		e.phase = ports.PhaseReady
	}
}

func (e *Engine) Play() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls.Play++
	e.playWhenReady = true
}

func (e *Engine) Pause() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls.Pause++
	e.playWhenReady = false
}

func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls.Stop++
	e.playWhenReady = false
	e.phase = ports.PhaseIdle
	e.positionMS = 0
}

func (e *Engine) Release() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls.Release++
	e.released = true
	e.phase = ports.PhaseIdle
	e.items = nil
	e.index = -1
	e.listeners = nil
}

func (e *Engine) SeekTo(index int, positionMS int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls.SeekTo++
	e.index = index
	e.positionMS = positionMS
}

func (e *Engine) SeekToPosition(positionMS int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls.SeekToPosition++
	e.positionMS = positionMS
}

func (e *Engine) SeekToDefaultPosition(index int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls.SeekToDefaultPosition++
	e.index = index
	e.positionMS = 0
}

func (e *Engine) SeekBack() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls.SeekBack++
	e.positionMS -= e.seekBackMS
	if e.positionMS < 0 {
		e.positionMS = 0
	}
}

func (e *Engine) SeekForward() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls.SeekForward++
	e.positionMS += e.seekForwardMS
}

func (e *Engine) SeekToPrevious() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls.SeekToPrevious++
	if e.index > 0 {
		e.index--
		e.positionMS = 0
	}
}

func (e *Engine) SeekToNext() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls.SeekToNext++
	if e.index < len(e.items)-1 {
		e.index++
		e.positionMS = 0
	}
}

func (e *Engine) HasPrevious() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.index > 0
}

func (e *Engine) HasNext() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.index >= 0 && e.index < len(e.items)-1
}

func (e *Engine) SetItems(items []ports.EngineTrack, startIndex int, startPositionMS int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls.SetItems++
	e.items = append([]ports.EngineTrack(nil), items...)
	if len(e.items) == 0 {
		e.index = -1
		e.positionMS = 0
		return
	}
	if startIndex < 0 || startIndex >= len(e.items) {
		startIndex = 0
	}
	e.index = startIndex
	e.positionMS = startPositionMS
}

func (e *Engine) AddItems(index int, items ...ports.EngineTrack) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls.AddItems++
	if index < 0 {
		index = 0
	}
	if index > len(e.items) {
		index = len(e.items)
	}
	e.items = append(e.items[:index], append(append([]ports.EngineTrack(nil), items...), e.items[index:]...)...)
	if e.index == -1 && len(e.items) > 0 {
		e.index = 0
	}
}

func (e *Engine) RemoveItem(index int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls.RemoveItem++
	if index < 0 || index >= len(e.items) {
		return
	}
	e.items = append(e.items[:index], e.items[index+1:]...)
	if e.index >= len(e.items) {
		e.index = len(e.items) - 1
	}
}

func (e *Engine) MoveItem(from, to int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls.MoveItem++
	if from < 0 || from >= len(e.items) || to < 0 || to >= len(e.items) || from == to {
		return
	}
	item := e.items[from]
	e.items = append(e.items[:from], e.items[from+1:]...)
	rest := append([]ports.EngineTrack(nil), e.items[to:]...)
	e.items = append(append(e.items[:to], item), rest...)
}

func (e *Engine) ClearItems() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls.ClearItems++
	e.items = nil
	e.index = -1
	e.positionMS = 0
}

func (e *Engine) Items() []ports.EngineTrack {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]ports.EngineTrack(nil), e.items...)
}

func (e *Engine) ItemCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.items)
}

func (e *Engine) ItemAt(index int) (ports.EngineTrack, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if index < 0 || index >= len(e.items) {
		return ports.EngineTrack{}, false
	}
	return e.items[index], true
}

func (e *Engine) CurrentIndex() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.items) == 0 {
		return -1
	}
	return e.index
}

func (e *Engine) CurrentItem() (ports.EngineTrack, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.index < 0 || e.index >= len(e.items) {
		return ports.EngineTrack{}, false
	}
	return e.items[e.index], true
}

func (e *Engine) Position() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.positionMS
}

func (e *Engine) Duration() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.durationMS
}

func (e *Engine) Phase() ports.PlaybackPhase {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.phase
}

func (e *Engine) PlayWhenReady() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.playWhenReady
}

func (e *Engine) IsLoading() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.loading
}

func (e *Engine) SetShuffleEnabled(enabled bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls.SetShuffleEnabled++
	e.shuffle = enabled
}

func (e *Engine) ShuffleEnabled() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.shuffle
}

func (e *Engine) SetRepeatMode(mode domain.RepeatMode) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls.SetRepeatMode++
	e.repeat = mode
}

func (e *Engine) RepeatMode() domain.RepeatMode {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.repeat
}

func (e *Engine) SetSpeed(speed float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls.SetSpeed++
	e.speed = speed
}

func (e *Engine) Speed() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.speed
}

func (e *Engine) SeekBackIncrementMS() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.seekBackMS
}

func (e *Engine) SeekForwardIncrementMS() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.seekForwardMS
}

func (e *Engine) Capabilities() []ports.Capability {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]ports.Capability(nil), e.capabilities...)
}

func (e *Engine) AddListener(listener ports.EngineListener) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.listeners = append(e.listeners, listener)
}

func (e *Engine) RemoveListener(listener ports.EngineListener) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i, l := range e.listeners {
		if l == listener {
			e.listeners = append(e.listeners[:i], e.listeners[i+1:]...)
			return
		}
	}
}

// Verify interface implementation
var _ ports.PlayerEngine = (*Engine)(nil)
