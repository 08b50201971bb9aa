// Package domain defines events for the event-driven parts of the system.
// The library scanner and playlist manager publish these on the event bus;
// the playback snapshot itself travels through observe.Value fields instead.
package domain

import (
	"time"
)

// Event is the base interface for all events in the system.
type Event interface {
	// Type returns the event type identifier
	Type() EventType

	// Timestamp returns when the event occurred
	Timestamp() time.Time
}

// EventType is a string identifier for different event types.
type EventType string

// Event type constants define all possible events in the system.
const (
	// Library scanning events
	EventScanStarted   EventType = "scan.started"
	EventScanProgress  EventType = "scan.progress"
	EventScanCompleted EventType = "scan.completed"
	EventScanCancelled EventType = "scan.cancelled"

	// Library content events
	EventLibraryChanged EventType = "library.changed"

	// Playlist events
	EventPlaylistUpdated EventType = "playlist.updated"
	EventFavoriteToggled EventType = "favorite.toggled"
)

// EventHandler is a function that handles events.
type EventHandler func(event Event)

// SubscriptionID uniquely identifies an event subscription.
type SubscriptionID string

// baseEvent provides common event functionality.
// All concrete events should embed this struct.
type baseEvent struct {
	timestamp time.Time
}

// Timestamp returns when the event occurred.
func (e baseEvent) Timestamp() time.Time {
	return e.timestamp
}

// newBaseEvent creates a new base event with the current timestamp.
func newBaseEvent() baseEvent {
	return baseEvent{timestamp: time.Now()}
}

// ScanStartedEvent is published when a library scan starts.
type ScanStartedEvent struct {
	baseEvent
	Roots []string
}

// Type returns the event type.
func (e ScanStartedEvent) Type() EventType {
	return EventScanStarted
}

// NewScanStartedEvent creates a new ScanStartedEvent.
func NewScanStartedEvent(roots []string) ScanStartedEvent {
	return ScanStartedEvent{
		baseEvent: newBaseEvent(),
		Roots:     roots,
	}
}

// ScanProgressEvent is published periodically during a library scan.
type ScanProgressEvent struct {
	baseEvent
	Progress ScanProgress
}

// Type returns the event type.
func (e ScanProgressEvent) Type() EventType {
	return EventScanProgress
}

// NewScanProgressEvent creates a new ScanProgressEvent.
func NewScanProgressEvent(progress ScanProgress) ScanProgressEvent {
	return ScanProgressEvent{
		baseEvent: newBaseEvent(),
		Progress:  progress,
	}
}

// ScanCompletedEvent is published when a library scan completes.
type ScanCompletedEvent struct {
	baseEvent
	SongsFound int
	Removed    int
}

// Type returns the event type.
func (e ScanCompletedEvent) Type() EventType {
	return EventScanCompleted
}

// NewScanCompletedEvent creates a new ScanCompletedEvent.
func NewScanCompletedEvent(found, removed int) ScanCompletedEvent {
	return ScanCompletedEvent{
		baseEvent:  newBaseEvent(),
		SongsFound: found,
		Removed:    removed,
	}
}

// ScanCancelledEvent is published when a library scan is canceled.
type ScanCancelledEvent struct {
	baseEvent
	Reason string
}

// Type returns the event type.
func (e ScanCancelledEvent) Type() EventType {
	return EventScanCancelled
}

// NewScanCancelledEvent creates a new ScanCancelledEvent.
func NewScanCancelledEvent(reason string) ScanCancelledEvent {
	return ScanCancelledEvent{
		baseEvent: newBaseEvent(),
		Reason:    reason,
	}
}

// LibraryChangedEvent is published after the scanner commits changes.
type LibraryChangedEvent struct {
	baseEvent
}

// Type returns the event type.
func (e LibraryChangedEvent) Type() EventType {
	return EventLibraryChanged
}

// NewLibraryChangedEvent creates a new LibraryChangedEvent.
func NewLibraryChangedEvent() LibraryChangedEvent {
	return LibraryChangedEvent{baseEvent: newBaseEvent()}
}

// PlaylistUpdatedEvent is published when a playlist's contents change,
// including smart playlist recomputations.
type PlaylistUpdatedEvent struct {
	baseEvent
	PlaylistID int64
}

// Type returns the event type.
func (e PlaylistUpdatedEvent) Type() EventType {
	return EventPlaylistUpdated
}

// NewPlaylistUpdatedEvent creates a new PlaylistUpdatedEvent.
func NewPlaylistUpdatedEvent(playlistID int64) PlaylistUpdatedEvent {
	return PlaylistUpdatedEvent{
		baseEvent:  newBaseEvent(),
		PlaylistID: playlistID,
	}
}

// FavoriteToggledEvent is published when a song's favorite flag changes.
type FavoriteToggledEvent struct {
	baseEvent
	SongID   int64
	Favorite bool
}

// Type returns the event type.
func (e FavoriteToggledEvent) Type() EventType {
	return EventFavoriteToggled
}

// NewFavoriteToggledEvent creates a new FavoriteToggledEvent.
func NewFavoriteToggledEvent(songID int64, favorite bool) FavoriteToggledEvent {
	return FavoriteToggledEvent{
		baseEvent: newBaseEvent(),
		SongID:    songID,
		Favorite:  favorite,
	}
}
