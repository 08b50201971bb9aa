// Package beep implements ports.PlayerEngine on the gopxl/beep audio
// library: file decoding by extension, speaker output, pause/resume via
// beep.Ctrl and playback-speed via a resampler. Queue bookkeeping and
// batched listener notification live here; DSP stays inside the library.
package beep

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	gobeep "github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/gopxl/beep/v2/vorbis"
	"github.com/gopxl/beep/v2/wav"

	"github.com/soundleaf/soundleaf/internal/domain"
	"github.com/soundleaf/soundleaf/internal/ports"
)

// outputSampleRate is the fixed speaker sample rate; every decoded stream
// is resampled onto it.
const outputSampleRate = gobeep.SampleRate(44100)

var speakerOnce sync.Once

// Engine is a beep-backed ports.PlayerEngine.
//
// Listener notifications are delivered on a dedicated dispatch goroutine,
// in emission order, so listeners may call back into the engine without
// deadlocking.
type Engine struct {
	mu     sync.Mutex
	logger *slog.Logger

	queue         []ports.EngineTrack
	index         int
	pendingSeekMS int64

	phase         ports.PlaybackPhase
	playWhenReady bool
	shuffle       bool
	repeat        domain.RepeatMode
	speed         float64

	seekBackMS    int64
	seekForwardMS int64

	streamer   gobeep.StreamSeekCloser
	format     gobeep.Format
	ctrl       *gobeep.Ctrl
	resampler  *gobeep.Resampler
	generation int

	listeners []ports.EngineListener
	events    chan ports.Events
	done      chan struct{}
	released  bool
}

// New creates an engine with the given seek increments. The speaker device
// is initialized lazily on first Prepare.
func New(seekBackMS, seekForwardMS int64, logger *slog.Logger) *Engine {
	e := &Engine{
		logger:        logger,
		index:         -1,
		speed:         1.0,
		seekBackMS:    seekBackMS,
		seekForwardMS: seekForwardMS,
		events:        make(chan ports.Events, 64),
		done:          make(chan struct{}),
	}
	go e.dispatch()
	return e
}

// dispatch delivers queued notification batches sequentially.
func (e *Engine) dispatch() {
	for {
		select {
		case <-e.done:
			return
		case events := <-e.events:
			e.mu.Lock()
			listeners := make([]ports.EngineListener, len(e.listeners))
			copy(listeners, e.listeners)
			e.mu.Unlock()
			for _, l := range listeners {
				l.OnEvents(events)
			}
		}
	}
}

// emit queues a batch for delivery. Safe to call with e.mu held.
func (e *Engine) emit(events ports.Events) {
	select {
	case e.events <- events:
	default:
		e.logger.Warn("engine event queue full, dropping batch")
	}
}

// Lifecycle.

func (e *Engine) Prepare() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.index < 0 || e.index >= len(e.queue) {
		e.emitErrorLocked("prepare", domain.ErrNoMediaPrepared)
		return
	}
	if err := e.openCurrentLocked(); err != nil {
		e.emitErrorLocked("prepare", err)
		return
	}
	e.phase = ports.PhaseReady
	e.emit(ports.NewEvents(ports.EventPlayStateChanged))
}

func (e *Engine) Play() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.playWhenReady = true
	if e.streamer == nil {
		if e.index < 0 || e.index >= len(e.queue) {
			e.emitErrorLocked("play", domain.ErrNoMediaPrepared)
			return
		}
		if err := e.openCurrentLocked(); err != nil {
			e.emitErrorLocked("play", err)
			return
		}
		e.phase = ports.PhaseReady
	}
	e.setPausedLocked(false)
	e.emit(ports.NewEvents(ports.EventPlayStateChanged))
}

func (e *Engine) Pause() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.playWhenReady = false
	e.setPausedLocked(true)
	e.emit(ports.NewEvents(ports.EventPlayStateChanged))
}

func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closeStreamLocked()
	e.playWhenReady = false
	e.phase = ports.PhaseIdle
	e.emit(ports.NewEvents(ports.EventPlayStateChanged))
}

func (e *Engine) Release() {
	e.mu.Lock()
	if e.released {
		e.mu.Unlock()
		return
	}
	e.released = true
	e.closeStreamLocked()
	e.queue = nil
	e.index = -1
	e.listeners = nil
	e.phase = ports.PhaseIdle
	close(e.done)
	e.mu.Unlock()
}

// Seeking.

func (e *Engine) SeekTo(index int, positionMS int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if index < 0 || index >= len(e.queue) {
		return
	}
	if index != e.index {
		e.moveCursorLocked(index, ports.TransitionReasonSeek)
	}
	e.seekWithinLocked(positionMS)
}

func (e *Engine) SeekToPosition(positionMS int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.seekWithinLocked(positionMS)
}

func (e *Engine) SeekToDefaultPosition(index int) {
	e.SeekTo(index, 0)
}

func (e *Engine) SeekBack() {
	e.mu.Lock()
	defer e.mu.Unlock()
	position := e.positionLocked() - e.seekBackMS
	if position < 0 {
		position = 0
	}
	e.seekWithinLocked(position)
}

func (e *Engine) SeekForward() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.seekWithinLocked(e.positionLocked() + e.seekForwardMS)
}

func (e *Engine) SeekToPrevious() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.index > 0 {
		e.moveCursorLocked(e.index-1, ports.TransitionReasonSeek)
	}
}

func (e *Engine) SeekToNext() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.index >= 0 && e.index < len(e.queue)-1 {
		e.moveCursorLocked(e.index+1, ports.TransitionReasonSeek)
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
	return e.index >= 0 && e.index < len(e.queue)-1
}

// Queue.

func (e *Engine) SetItems(items []ports.EngineTrack, startIndex int, startPositionMS int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closeStreamLocked()
	e.queue = append([]ports.EngineTrack(nil), items...)
	e.phase = ports.PhaseIdle

	if len(e.queue) == 0 {
		e.index = -1
		e.pendingSeekMS = 0
		e.emitTimelineLocked(ports.TimelineReasonPlaylistChanged, ports.TransitionReasonPlaylistChanged)
		return
	}
	if startIndex < 0 || startIndex >= len(e.queue) {
		startIndex = 0
	}
	e.index = startIndex
	e.pendingSeekMS = startPositionMS
	e.emitTimelineLocked(ports.TimelineReasonPlaylistChanged, ports.TransitionReasonPlaylistChanged)
}

func (e *Engine) AddItems(index int, items ...ports.EngineTrack) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(items) == 0 {
		return
	}
	if index < 0 {
		index = 0
	}
	if index > len(e.queue) {
		index = len(e.queue)
	}
	e.queue = append(e.queue[:index], append(append([]ports.EngineTrack(nil), items...), e.queue[index:]...)...)
	if e.index == -1 {
		e.index = 0
	} else if index <= e.index {
		e.index += len(items)
	}
	e.emitTimelineLocked(ports.TimelineReasonPlaylistChanged, ports.TransitionReasonPlaylistChanged)
}

func (e *Engine) RemoveItem(index int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if index < 0 || index >= len(e.queue) {
		return
	}
	removingCurrent := index == e.index
	e.queue = append(e.queue[:index], e.queue[index+1:]...)
	switch {
	case len(e.queue) == 0:
		e.closeStreamLocked()
		e.index = -1
		e.phase = ports.PhaseIdle
	case removingCurrent:
		e.closeStreamLocked()
		if e.index >= len(e.queue) {
			e.index = len(e.queue) - 1
		}
	case index < e.index:
		e.index--
	}
	e.emitTimelineLocked(ports.TimelineReasonPlaylistChanged, ports.TransitionReasonPlaylistChanged)
}

func (e *Engine) MoveItem(from, to int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if from < 0 || from >= len(e.queue) || to < 0 || to >= len(e.queue) || from == to {
		return
	}
	item := e.queue[from]
	e.queue = append(e.queue[:from], e.queue[from+1:]...)
	rest := append([]ports.EngineTrack(nil), e.queue[to:]...)
	e.queue = append(append(e.queue[:to], item), rest...)

	switch {
	case from == e.index:
		e.index = to
	case from < e.index && to >= e.index:
		e.index--
	case from > e.index && to <= e.index:
		e.index++
	}
	e.emitTimelineLocked(ports.TimelineReasonPlaylistChanged, ports.TransitionReasonPlaylistChanged)
}

func (e *Engine) ClearItems() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closeStreamLocked()
	e.queue = nil
	e.index = -1
	e.phase = ports.PhaseIdle
	e.emitTimelineLocked(ports.TimelineReasonPlaylistChanged, ports.TransitionReasonPlaylistChanged)
}

func (e *Engine) Items() []ports.EngineTrack {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]ports.EngineTrack(nil), e.queue...)
}

func (e *Engine) ItemCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.queue)
}

func (e *Engine) ItemAt(index int) (ports.EngineTrack, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if index < 0 || index >= len(e.queue) {
		return ports.EngineTrack{}, false
	}
	return e.queue[index], true
}

// State.

func (e *Engine) CurrentIndex() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.index
}

func (e *Engine) CurrentItem() (ports.EngineTrack, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.index < 0 || e.index >= len(e.queue) {
		return ports.EngineTrack{}, false
	}
	return e.queue[e.index], true
}

func (e *Engine) Position() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.positionLocked()
}

func (e *Engine) Duration() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.streamer == nil {
		return 0
	}
	speaker.Lock()
	length := e.streamer.Len()
	speaker.Unlock()
	return e.format.SampleRate.D(length).Milliseconds()
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

// IsLoading is always false: local files decode synchronously inside
// Prepare, there is no buffering window to report.
func (e *Engine) IsLoading() bool {
	return false
}

// Modes.

func (e *Engine) SetShuffleEnabled(enabled bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.shuffle = enabled
	e.emit(ports.NewEvents(ports.EventShuffleChanged))
}

func (e *Engine) ShuffleEnabled() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.shuffle
}

func (e *Engine) SetRepeatMode(mode domain.RepeatMode) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.repeat = mode
	e.emit(ports.NewEvents(ports.EventRepeatChanged))
}

func (e *Engine) RepeatMode() domain.RepeatMode {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.repeat
}

func (e *Engine) SetSpeed(speed float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if speed <= 0 {
		return
	}
	e.speed = speed
	if e.resampler != nil {
		speaker.Lock()
		e.resampler.SetRatio(e.baseRatio() * speed)
		speaker.Unlock()
	}
	e.emit(ports.NewEvents(ports.EventSpeedChanged))
}

func (e *Engine) Speed() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.speed
}

func (e *Engine) SeekBackIncrementMS() int64 {
	return e.seekBackMS
}

func (e *Engine) SeekForwardIncrementMS() int64 {
	return e.seekForwardMS
}

func (e *Engine) Capabilities() []ports.Capability {
	return []ports.Capability{
		ports.CapabilityPlayPause,
		ports.CapabilitySeekBack,
		ports.CapabilitySeekForward,
		ports.CapabilitySkipPrevious,
		ports.CapabilitySkipNext,
		ports.CapabilitySetShuffle,
	}
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

// Internals. All *Locked helpers require e.mu held.

// openCurrentLocked decodes the item at the cursor, wires it to the
// speaker and applies any pending start position.
func (e *Engine) openCurrentLocked() error {
	e.closeStreamLocked()

	track := e.queue[e.index]
	streamer, format, err := decodeFile(track.URI)
	if err != nil {
		return err
	}

	var speakerErr error
	speakerOnce.Do(func() {
		speakerErr = speaker.Init(outputSampleRate, outputSampleRate.N(time.Second/10))
	})
	if speakerErr != nil {
		streamer.Close()
		return speakerErr
	}

	e.streamer = streamer
	e.format = format
	e.resampler = gobeep.ResampleRatio(4, e.baseRatio()*e.speed, streamer)
	e.ctrl = &gobeep.Ctrl{Streamer: e.resampler, Paused: !e.playWhenReady}
	e.generation++
	generation := e.generation

	if e.pendingSeekMS > 0 {
		if err := streamer.Seek(format.SampleRate.N(time.Duration(e.pendingSeekMS) * time.Millisecond)); err != nil {
			e.logger.Warn("seek to pending position failed", "position_ms", e.pendingSeekMS, "error", err)
		}
		e.pendingSeekMS = 0
	}

	speaker.Play(gobeep.Seq(e.ctrl, gobeep.Callback(func() {
		// Runs on the speaker goroutine; advance on a fresh one so the
		// callback never blocks audio rendering.
		go e.onStreamEnd(generation)
	})))
	return nil
}

// baseRatio converts the decoded sample rate onto the output rate.
func (e *Engine) baseRatio() float64 {
	if e.format.SampleRate == 0 {
		return 1.0
	}
	return float64(e.format.SampleRate) / float64(outputSampleRate)
}

func (e *Engine) closeStreamLocked() {
	if e.ctrl != nil {
		speaker.Lock()
		e.ctrl.Paused = true
		speaker.Unlock()
	}
	if e.streamer != nil {
		_ = e.streamer.Close()
	}
	e.streamer = nil
	e.ctrl = nil
	e.resampler = nil
	e.generation++
}

func (e *Engine) setPausedLocked(paused bool) {
	if e.ctrl == nil {
		return
	}
	speaker.Lock()
	e.ctrl.Paused = paused
	speaker.Unlock()
}

func (e *Engine) positionLocked() int64 {
	if e.streamer == nil {
		return 0
	}
	speaker.Lock()
	position := e.streamer.Position()
	speaker.Unlock()
	return e.format.SampleRate.D(position).Milliseconds()
}

func (e *Engine) seekWithinLocked(positionMS int64) {
	if e.streamer == nil {
		e.pendingSeekMS = positionMS
		return
	}
	if positionMS < 0 {
		positionMS = 0
	}
	speaker.Lock()
	err := e.streamer.Seek(e.format.SampleRate.N(time.Duration(positionMS) * time.Millisecond))
	speaker.Unlock()
	if err != nil {
		e.logger.Warn("seek failed", "position_ms", positionMS, "error", err)
	}
}

// moveCursorLocked moves playback to index and reopens the stream when one
// was active.
func (e *Engine) moveCursorLocked(index int, reason ports.TransitionReason) {
	wasOpen := e.streamer != nil
	e.closeStreamLocked()
	e.index = index
	e.pendingSeekMS = 0

	if wasOpen {
		if err := e.openCurrentLocked(); err != nil {
			e.emitErrorLocked("transition", err)
			return
		}
		e.phase = ports.PhaseReady
	}

	track := e.queue[index]
	events := ports.NewEvents(ports.EventItemTransition, ports.EventPlayStateChanged)
	events.Item = &track
	events.ItemIndex = index
	events.TransitionReason = reason
	e.emit(events)
}

// onStreamEnd advances the queue when the current item plays out.
func (e *Engine) onStreamEnd(generation int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if generation != e.generation || e.released {
		return
	}

	next, ok := e.nextIndexLocked()
	if !ok {
		e.closeStreamLocked()
		e.phase = ports.PhaseEnded
		e.playWhenReady = false
		e.emit(ports.NewEvents(ports.EventPlayStateChanged))
		return
	}
	e.moveCursorLocked(next, ports.TransitionReasonAuto)
}

// nextIndexLocked picks the follow-up item honoring repeat and shuffle.
func (e *Engine) nextIndexLocked() (int, bool) {
	if len(e.queue) == 0 {
		return 0, false
	}
	switch {
	case e.repeat == domain.RepeatOne:
		return e.index, true
	case e.shuffle && len(e.queue) > 1:
		next := rand.Intn(len(e.queue) - 1)
		if next >= e.index {
			next++
		}
		return next, true
	case e.index < len(e.queue)-1:
		return e.index + 1, true
	case e.repeat == domain.RepeatAll:
		return 0, true
	default:
		return 0, false
	}
}

func (e *Engine) emitTimelineLocked(timelineReason ports.TimelineChangeReason, transitionReason ports.TransitionReason) {
	events := ports.NewEvents(ports.EventTimelineChanged, ports.EventItemTransition, ports.EventPlayStateChanged)
	events.TimelineReason = timelineReason
	events.TransitionReason = transitionReason
	if e.index >= 0 && e.index < len(e.queue) {
		track := e.queue[e.index]
		events.Item = &track
		events.ItemIndex = e.index
	}
	e.emit(events)
}

func (e *Engine) emitErrorLocked(op string, err error) {
	var path string
	if e.index >= 0 && e.index < len(e.queue) {
		path = e.queue[e.index].URI
	}
	e.logger.Error("engine "+op+" failed", "path", path, "error", err)

	events := ports.NewEvents(ports.EventPlaybackError)
	events.Err = domain.NewEngineError(op, path, domain.EngineErrorSource, err.Error(), err)
	e.emit(events)
}

// decodeFile opens and decodes an audio file by extension.
func decodeFile(path string) (gobeep.StreamSeekCloser, gobeep.Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".mp3", ".wav", ".flac", ".ogg":
	default:
		return nil, gobeep.Format{}, domain.ErrUnsupportedFormat
	}

	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			err = fmt.Errorf("%s: %w", path, domain.ErrFileNotFound)
		}
		return nil, gobeep.Format{}, err
	}

	var (
		streamer gobeep.StreamSeekCloser
		format   gobeep.Format
	)
	switch ext {
	case ".mp3":
		streamer, format, err = mp3.Decode(file)
	case ".wav":
		streamer, format, err = wav.Decode(file)
	case ".flac":
		streamer, format, err = flac.Decode(file)
	case ".ogg":
		streamer, format, err = vorbis.Decode(file)
	}
	if err != nil {
		_ = file.Close()
		return nil, gobeep.Format{}, err
	}
	return streamer, format, nil
}

// Verify interface implementation
var _ ports.PlayerEngine = (*Engine)(nil)
