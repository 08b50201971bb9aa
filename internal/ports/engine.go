// Package ports defines interfaces for dependency inversion.
// These interfaces allow the core business logic to remain independent of external frameworks.
package ports

import (
	"github.com/soundleaf/soundleaf/internal/domain"
)

// EngineTrack is the engine's track-description object. The engine only
// understands a handful of display fields natively; everything else the
// bridge needs for identity and side effects travels in the Extras bag.
type EngineTrack struct {
	// MediaID is the primary identifier: the song id rendered as a
	// decimal string. Every "is this the same song" comparison in the
	// bridge joins on this field.
	MediaID string

	// URI locates the playable media
	URI string

	Title  string
	Artist string
	Album  string

	// DurationMS is the declared duration in milliseconds
	DurationMS int64

	// Extras carries metadata the engine has no native field for
	Extras map[string]string
}

// PlaybackPhase is the engine's raw lifecycle phase.
type PlaybackPhase int

const (
	// PhaseIdle means no media source is set or prepared
	PhaseIdle PlaybackPhase = iota

	// PhaseBuffering means the engine cannot advance until more data loads
	PhaseBuffering

	// PhaseReady means the engine can advance immediately
	PhaseReady

	// PhaseEnded means the engine played to the end of the queue
	PhaseEnded
)

// Capability is a raw engine capability code. The known values below map
// onto domain.Command; engines may report additional codes which consumers
// must silently ignore.
type Capability int

const (
	CapabilityPlayPause Capability = iota + 1
	CapabilitySeekBack
	CapabilitySeekForward
	CapabilitySkipPrevious
	CapabilitySkipNext
	CapabilitySetShuffle
)

// TransitionReason accompanies a media-item transition and distinguishes a
// genuine advance from a transition caused only by queue replacement.
type TransitionReason int

const (
	// TransitionReasonAuto means the engine advanced on its own
	TransitionReasonAuto TransitionReason = iota

	// TransitionReasonSeek means a seek moved the playback cursor
	TransitionReasonSeek

	// TransitionReasonPlaylistChanged means the queue contents were
	// replaced; no new playback actually started
	TransitionReasonPlaylistChanged
)

// TimelineChangeReason accompanies a timeline-changed notification.
type TimelineChangeReason int

const (
	// TimelineReasonPlaylistChanged means items were added, removed or replaced
	TimelineReasonPlaylistChanged TimelineChangeReason = iota

	// TimelineReasonSourceUpdate means an existing item's metadata refreshed
	TimelineReasonSourceUpdate
)

// EventKind identifies one semantic change inside a notification batch.
type EventKind int

const (
	EventCapabilitiesChanged EventKind = iota
	EventItemTransition
	EventTimelineChanged
	EventShuffleChanged
	EventRepeatChanged
	EventSpeedChanged
	EventSeekIncrementsChanged
	EventPlayStateChanged
	EventPlaybackError
)

// Events is one batched notification from the engine. A single batch may
// report several semantic changes at once; consumers must coalesce so each
// downstream update runs at most once per batch.
type Events struct {
	kinds map[EventKind]bool

	// Item and ItemIndex describe the item at the playback cursor after
	// an EventItemTransition, nil/-1 when the queue emptied.
	Item      *EngineTrack
	ItemIndex int

	// TransitionReason qualifies an EventItemTransition.
	TransitionReason TransitionReason

	// TimelineReason qualifies an EventTimelineChanged.
	TimelineReason TimelineChangeReason

	// Err is set for EventPlaybackError.
	Err *domain.EngineError
}

// NewEvents builds a batch reporting the given kinds.
func NewEvents(kinds ...EventKind) Events {
	set := make(map[EventKind]bool, len(kinds))
	for _, k := range kinds {
		set[k] = true
	}
	return Events{kinds: set, ItemIndex: -1}
}

// Contains reports whether the batch includes the given change kind.
func (e Events) Contains(kind EventKind) bool {
	return e.kinds[kind]
}

// With returns a copy of the batch that also reports kind.
func (e Events) With(kind EventKind) Events {
	set := make(map[EventKind]bool, len(e.kinds)+1)
	for k := range e.kinds {
		set[k] = true
	}
	set[kind] = true
	e.kinds = set
	return e
}

// EngineListener receives batched change notifications from the engine.
// Batches are delivered in emission order, synchronously and sequentially;
// implementations must not assume reentrancy.
type EngineListener interface {
	OnEvents(events Events)
}

// PlayerEngine is the boundary to the native media-playback runtime.
// Decoding and rendering are the engine's concern; the bridge only issues
// commands and consumes state.
//
// Implementations are not required to be thread-safe: the bridge owns the
// handle exclusively and serializes every call.
type PlayerEngine interface {
	// Lifecycle

	// Prepare readies the current media item for playback.
	Prepare()

	// Play starts or resumes playback (sets play-when-ready).
	Play()

	// Pause suspends playback, keeping the position.
	Pause()

	// Stop halts playback and resets to idle. It does not clear the queue;
	// callers that need an empty queue clear it explicitly.
	Stop()

	// Release frees all engine resources. The handle is unusable afterwards.
	Release()

	// Seeking

	// SeekTo moves the cursor to the item at index, at positionMS within it.
	SeekTo(index int, positionMS int64)

	// SeekToPosition seeks within the current item.
	SeekToPosition(positionMS int64)

	// SeekToDefaultPosition moves to the item at index, at its start.
	SeekToDefaultPosition(index int)

	// SeekBack and SeekForward jump by the configured increments.
	SeekBack()
	SeekForward()

	// SeekToPrevious and SeekToNext move across queue items.
	SeekToPrevious()
	SeekToNext()

	// HasPrevious and HasNext report whether navigation targets exist.
	HasPrevious() bool
	HasNext() bool

	// Queue

	// SetItems replaces the queue. startIndex selects the initial cursor
	// position; startPositionMS the initial offset (0 for default).
	SetItems(items []EngineTrack, startIndex int, startPositionMS int64)

	// AddItems inserts items at index (clamped to the queue bounds).
	AddItems(index int, items ...EngineTrack)

	// RemoveItem removes the item at index.
	RemoveItem(index int)

	// MoveItem moves an item from one index to another.
	MoveItem(from, to int)

	// ClearItems empties the queue.
	ClearItems()

	// Items returns a copy of the queue in order.
	Items() []EngineTrack

	// ItemCount returns the queue length.
	ItemCount() int

	// ItemAt returns the item at index, false when out of bounds.
	ItemAt(index int) (EngineTrack, bool)

	// State

	// CurrentIndex returns the playback cursor index, -1 when empty.
	CurrentIndex() int

	// CurrentItem returns the item at the cursor, false when none.
	CurrentItem() (EngineTrack, bool)

	// Position returns the playback offset in milliseconds.
	Position() int64

	// Duration returns the current item's duration in milliseconds, 0 when unknown.
	Duration() int64

	// Phase returns the raw lifecycle phase.
	Phase() PlaybackPhase

	// PlayWhenReady reports whether playback will advance once ready.
	PlayWhenReady() bool

	// IsLoading reports whether the engine is loading media data.
	IsLoading() bool

	// Modes

	SetShuffleEnabled(enabled bool)
	ShuffleEnabled() bool
	SetRepeatMode(mode domain.RepeatMode)
	RepeatMode() domain.RepeatMode
	SetSpeed(speed float64)
	Speed() float64

	// SeekBackIncrementMS and SeekForwardIncrementMS return the configured
	// jump durations in milliseconds.
	SeekBackIncrementMS() int64
	SeekForwardIncrementMS() int64

	// Capabilities returns the engine's raw capability codes. The set may
	// include codes unknown to the caller.
	Capabilities() []Capability

	// AddListener registers a listener for batched change notifications.
	AddListener(listener EngineListener)

	// RemoveListener deregisters a previously added listener.
	RemoveListener(listener EngineListener)
}
