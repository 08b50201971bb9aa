// Package service contains the application services: the player state
// bridge, the play-count pipeline, the library scanner and the playlist
// manager.
package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/soundleaf/soundleaf/internal/domain"
	"github.com/soundleaf/soundleaf/internal/mapper"
	"github.com/soundleaf/soundleaf/internal/observe"
	"github.com/soundleaf/soundleaf/internal/ports"
)

// PlayCounter records one genuine play start for a song.
type PlayCounter interface {
	RecordPlay(ctx context.Context, songID int64)
}

// positionTickInterval is how often the bridge refreshes and persists the
// playback position while attached.
const positionTickInterval = time.Second

// capabilityCommands maps raw engine capability codes onto the closed
// command vocabulary. Codes absent from this table are silently ignored.
var capabilityCommands = map[ports.Capability]domain.Command{
	ports.CapabilityPlayPause:    domain.CommandPlayPause,
	ports.CapabilitySeekBack:     domain.CommandSeekBack,
	ports.CapabilitySeekForward:  domain.CommandSeekForward,
	ports.CapabilitySkipPrevious: domain.CommandSkipPrevious,
	ports.CapabilitySkipNext:     domain.CommandSkipNext,
	ports.CapabilitySetShuffle:   domain.CommandSetShuffle,
}

// snapshotUpdate names one downstream update a notification batch can
// require. Several event kinds may imply the same update; the per-batch
// invoked set keeps each update to at most one run per batch.
type snapshotUpdate int

const (
	updateCommands snapshotUpdate = iota
	updateTimeline
	updateTransition
	updateShuffle
	updateRepeat
	updateSpeed
	updateSeekIncrements
	updateState
	updateError
)

// batchDispatch is the ordered dispatch table: for each event kind, in
// processing order, the downstream updates it requires.
var batchDispatch = []struct {
	kind    ports.EventKind
	updates []snapshotUpdate
}{
	{ports.EventCapabilitiesChanged, []snapshotUpdate{updateCommands}},
	{ports.EventTimelineChanged, []snapshotUpdate{updateTimeline, updateTransition, updateState}},
	{ports.EventItemTransition, []snapshotUpdate{updateTransition, updateState}},
	{ports.EventShuffleChanged, []snapshotUpdate{updateShuffle}},
	{ports.EventRepeatChanged, []snapshotUpdate{updateRepeat}},
	{ports.EventSpeedChanged, []snapshotUpdate{updateSpeed}},
	{ports.EventSeekIncrementsChanged, []snapshotUpdate{updateSeekIncrements}},
	{ports.EventPlayStateChanged, []snapshotUpdate{updateState}},
	{ports.EventPlaybackError, []snapshotUpdate{updateError}},
}

// pendingSeek is the recorded session-restore target, consumed by the next
// timeline notification after it was recorded.
type pendingSeek struct {
	index      int
	positionMS int64
}

// PlayerBridge owns the single active engine handle, normalizes its event
// stream into observable snapshot fields and exposes the playback command
// surface.
//
// Every snapshot field derives exclusively from the engine's reported state
// plus the pending-operation bookkeeping below; the bridge never invents
// state the engine did not report, except during the bounded session
// restore.
//
// Thread-safety: all methods may be called from any goroutine; the bridge
// serializes engine access on one mutex. Observers registered on the
// snapshot fields are invoked while that mutex is held and must not call
// back into the bridge synchronously.
type PlayerBridge struct {
	mu     sync.Mutex
	logger *slog.Logger

	preferences ports.PreferencesRepository
	playCounter PlayCounter

	engine   ports.PlayerEngine
	listener ports.EngineListener
	attached bool
	closed   bool

	// restoreDone guards the once-per-lifetime session restore.
	restoreDone bool
	seekTarget  *pendingSeek

	// pendingPlayCountID is the deferred play-count target, 0 when none.
	// Set on a genuine item transition, consumed once the derived state
	// reports Playing for that same id.
	pendingPlayCountID int64

	stopTick chan struct{}
	wg       sync.WaitGroup

	// Observable snapshot fields.
	State          *observe.Value[domain.PlayerState]
	Connected      *observe.Value[bool]
	Commands       *observe.Value[[]domain.Command]
	CurrentSong    *observe.Value[*domain.Song]
	CurrentIndex   *observe.Value[int]
	PositionMS     *observe.Value[int64]
	ShuffleEnabled *observe.Value[bool]
	Repeat         *observe.Value[domain.RepeatMode]
	Speed          *observe.Value[float64]
	SeekBackMS     *observe.Value[int64]
	SeekForwardMS  *observe.Value[int64]
}

// engineListener forwards engine notifications into the bridge without
// exposing OnEvents on the bridge's public surface.
type engineListener struct {
	bridge *PlayerBridge
}

func (l *engineListener) OnEvents(events ports.Events) {
	l.bridge.onEvents(events)
}

// NewPlayerBridge creates a detached bridge. Attach connects the engine.
func NewPlayerBridge(preferences ports.PreferencesRepository, playCounter PlayCounter, logger *slog.Logger) *PlayerBridge {
	b := &PlayerBridge{
		logger:      logger,
		preferences: preferences,
		playCounter: playCounter,
		stopTick:    make(chan struct{}),

		State:          observe.NewValue(domain.StateIdle),
		Connected:      observe.NewValue(false),
		Commands:       observe.NewValue[[]domain.Command](nil),
		CurrentSong:    observe.NewValue[*domain.Song](nil),
		CurrentIndex:   observe.NewValue(-1),
		PositionMS:     observe.NewValue(int64(0)),
		ShuffleEnabled: observe.NewValue(false),
		Repeat:         observe.NewValue(domain.RepeatOff),
		Speed:          observe.NewValue(1.0),
		SeekBackMS:     observe.NewValue(int64(0)),
		SeekForwardMS:  observe.NewValue(int64(0)),
	}
	b.listener = &engineListener{bridge: b}
	return b
}

// Attach connects the engine handle and starts the position ticker. The
// bridge accepts at most one engine over its lifetime; attaching a second
// time, or after Close, is a programming error and panics.
func (b *PlayerBridge) Attach(engine ports.PlayerEngine) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ensureOpen()
	if b.attached {
		panic("player bridge: engine already attached")
	}
	if engine == nil {
		panic("player bridge: nil engine")
	}

	b.attached = true
	b.engine = engine
	engine.AddListener(b.listener)

	b.Connected.Set(true)
	b.refreshCommands()
	b.ShuffleEnabled.Set(engine.ShuffleEnabled())
	b.Repeat.Set(engine.RepeatMode())
	b.Speed.Set(engine.Speed())
	b.SeekBackMS.Set(engine.SeekBackIncrementMS())
	b.SeekForwardMS.Set(engine.SeekForwardIncrementMS())

	b.wg.Add(1)
	go b.tickPosition()

	b.logger.Info("engine attached")
}

// Close detaches the engine, stops the ticker and joins every goroutine the
// bridge started. All commands panic afterwards. Closing twice is a no-op.
func (b *PlayerBridge) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	if b.engine != nil {
		b.engine.RemoveListener(b.listener)
		b.engine.Release()
		b.engine = nil
	}
	wasAttached := b.attached
	b.Connected.Set(false)
	close(b.stopTick)
	b.mu.Unlock()

	if wasAttached {
		b.wg.Wait()
	}
	b.logger.Info("player bridge closed")
}

// Commands. Each is a no-op when no engine is attached and panics after
// Close.

// Prepare readies the current media item.
func (b *PlayerBridge) Prepare() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ensureOpen()
	if b.engine == nil {
		return
	}
	b.engine.Prepare()
}

// Play starts or resumes playback.
func (b *PlayerBridge) Play() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ensureOpen()
	if b.engine == nil {
		return
	}
	b.engine.Play()
}

// Pause suspends playback.
func (b *PlayerBridge) Pause() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ensureOpen()
	if b.engine == nil {
		return
	}
	b.engine.Pause()
}

// StopPlayback halts playback and clears the queue.
func (b *PlayerBridge) StopPlayback() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ensureOpen()
	if b.engine == nil {
		return
	}
	b.engine.Stop()
	b.engine.ClearItems()
	b.CurrentSong.Set(nil)
	b.CurrentIndex.Set(-1)
	b.PositionMS.Set(0)
	b.State.Set(domain.StateIdle)
}

// SeekToDefaultPosition moves to the start of the item at index.
func (b *PlayerBridge) SeekToDefaultPosition(index int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ensureOpen()
	if b.engine == nil {
		return
	}
	b.engine.SeekToDefaultPosition(index)
	b.publishPosition()
}

// SeekBack jumps back by the engine's configured increment and persists the
// new position.
func (b *PlayerBridge) SeekBack() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ensureOpen()
	if b.engine == nil {
		return
	}
	b.engine.SeekBack()
	b.publishPosition()
}

// SeekForward jumps forward by the engine's configured increment and
// persists the new position.
func (b *PlayerBridge) SeekForward() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ensureOpen()
	if b.engine == nil {
		return
	}
	b.engine.SeekForward()
	b.publishPosition()
}

// SeekToPosition seeks within the current item.
func (b *PlayerBridge) SeekToPosition(positionMS int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ensureOpen()
	if b.engine == nil {
		return
	}
	b.engine.SeekToPosition(positionMS)
	b.publishPosition()
}

// SkipToPrevious moves to the previous queue item when one exists.
func (b *PlayerBridge) SkipToPrevious() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ensureOpen()
	if b.engine == nil || !b.engine.HasPrevious() {
		return
	}
	b.engine.SeekToPrevious()
	b.refreshCursor()
}

// SkipToNext moves to the next queue item when one exists.
func (b *PlayerBridge) SkipToNext() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ensureOpen()
	if b.engine == nil || !b.engine.HasNext() {
		return
	}
	b.engine.SeekToNext()
	b.refreshCursor()
}

// SkipToIndex moves the cursor to the item at index.
func (b *PlayerBridge) SkipToIndex(index int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ensureOpen()
	if b.engine == nil {
		return
	}
	if index < 0 || index >= b.engine.ItemCount() {
		return
	}
	b.engine.SeekToDefaultPosition(index)
	b.refreshCursor()
}

// SetShuffleEnabled toggles shuffle on the engine and persists the flag.
func (b *PlayerBridge) SetShuffleEnabled(enabled bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ensureOpen()
	if b.engine == nil {
		return
	}
	b.engine.SetShuffleEnabled(enabled)
	b.ShuffleEnabled.Set(enabled)
	if err := b.preferences.SetShuffleEnabled(enabled); err != nil {
		b.logger.Error("persist shuffle flag", "error", err)
	}
}

// SetRepeatMode sets the repeat mode on the engine and persists it.
func (b *PlayerBridge) SetRepeatMode(mode domain.RepeatMode) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ensureOpen()
	if b.engine == nil {
		return
	}
	b.engine.SetRepeatMode(mode)
	b.Repeat.Set(mode)
	if err := b.preferences.SetRepeatMode(mode); err != nil {
		b.logger.Error("persist repeat mode", "mode", mode.String(), "error", err)
	}
}

// SetPlaybackSpeed sets the playback speed multiplier. Non-positive values
// are rejected.
func (b *PlayerBridge) SetPlaybackSpeed(speed float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ensureOpen()
	if b.engine == nil {
		return
	}
	if speed <= 0 {
		b.logger.Warn("ignoring playback speed change",
			"speed", speed, "error", domain.ErrInvalidSpeed)
		return
	}
	b.engine.SetSpeed(speed)
	b.Speed.Set(speed)
}

// SetMedia replaces the queue with a single song.
func (b *PlayerBridge) SetMedia(song domain.Song) {
	b.SetMediaListAt([]domain.Song{song}, 0, 0)
}

// SetMediaList replaces the queue. When the requested list equals the
// engine's current queue by ordered id sequence, no engine mutation happens
// and the cursor stays where it is.
func (b *PlayerBridge) SetMediaList(songs []domain.Song) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ensureOpen()
	if b.engine == nil {
		return
	}

	tracks := mapper.ToEngineTracks(songs)
	if b.sameQueue(tracks) {
		return
	}

	b.engine.SetItems(tracks, 0, 0)
	if len(songs) > 0 {
		if err := b.preferences.SetLastSongID(songs[0].ID); err != nil {
			b.logger.Error("persist last song id", "error", err)
		}
	}
	b.refreshCursor()
}

// SetMediaListAt replaces the queue, positioning the cursor at startIndex
// and startPositionMS. The same-queue comparison still applies; an
// identical list only moves the cursor.
func (b *PlayerBridge) SetMediaListAt(songs []domain.Song, startIndex int, startPositionMS int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ensureOpen()
	if b.engine == nil {
		return
	}

	tracks := mapper.ToEngineTracks(songs)
	if b.sameQueue(tracks) {
		if startIndex != b.engine.CurrentIndex() || startPositionMS != 0 {
			b.engine.SeekTo(startIndex, startPositionMS)
			b.refreshCursor()
		}
		return
	}

	b.engine.SetItems(tracks, startIndex, startPositionMS)
	if len(songs) > 0 && startIndex >= 0 && startIndex < len(songs) {
		if err := b.preferences.SetLastSongID(songs[startIndex].ID); err != nil {
			b.logger.Error("persist last song id", "error", err)
		}
	}
	b.refreshCursor()
}

// AddMedia appends a song to the queue.
func (b *PlayerBridge) AddMedia(song domain.Song) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ensureOpen()
	if b.engine == nil {
		return
	}
	b.engine.AddItems(b.engine.ItemCount(), mapper.ToEngineTrack(song))
}

// AddMediaList appends songs to the queue.
func (b *PlayerBridge) AddMediaList(songs []domain.Song) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ensureOpen()
	if b.engine == nil || len(songs) == 0 {
		return
	}
	b.engine.AddItems(b.engine.ItemCount(), mapper.ToEngineTracks(songs)...)
}

// AddMediaAt inserts a song at index.
func (b *PlayerBridge) AddMediaAt(index int, song domain.Song) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ensureOpen()
	if b.engine == nil {
		return
	}
	b.engine.AddItems(index, mapper.ToEngineTrack(song))
}

// RemoveMedia removes the item at index.
func (b *PlayerBridge) RemoveMedia(index int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ensureOpen()
	if b.engine == nil {
		return
	}
	b.engine.RemoveItem(index)
	b.refreshCursor()
}

// MoveMedia moves an item from one index to another.
func (b *PlayerBridge) MoveMedia(from, to int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ensureOpen()
	if b.engine == nil {
		return
	}
	b.engine.MoveItem(from, to)
	b.refreshCursor()
}

// ClearMediaList empties the queue.
func (b *PlayerBridge) ClearMediaList() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ensureOpen()
	if b.engine == nil {
		return
	}
	b.engine.ClearItems()
	b.CurrentSong.Set(nil)
	b.CurrentIndex.Set(-1)
}

// Queries.

// MediaList returns the queue as songs, in order.
func (b *PlayerBridge) MediaList() []domain.Song {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ensureOpen()
	if b.engine == nil {
		return nil
	}
	items := b.engine.Items()
	songs := make([]domain.Song, len(items))
	for i, item := range items {
		songs[i] = mapper.ToSong(item)
	}
	return songs
}

// MediaCount returns the queue length.
func (b *PlayerBridge) MediaCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ensureOpen()
	if b.engine == nil {
		return 0
	}
	return b.engine.ItemCount()
}

// MediaAt returns the song at index, false when out of bounds.
func (b *PlayerBridge) MediaAt(index int) (domain.Song, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ensureOpen()
	if b.engine == nil {
		return domain.Song{}, false
	}
	item, ok := b.engine.ItemAt(index)
	if !ok {
		return domain.Song{}, false
	}
	return mapper.ToSong(item), true
}

// CurrentMediaIndex returns the playback cursor index, -1 when none.
func (b *PlayerBridge) CurrentMediaIndex() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ensureOpen()
	if b.engine == nil {
		return -1
	}
	return b.engine.CurrentIndex()
}

// IndexOfSong returns the queue index of the song id, -1 when absent.
func (b *PlayerBridge) IndexOfSong(songID int64) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ensureOpen()
	if b.engine == nil {
		return -1
	}
	return b.indexOfLocked(songID)
}

// Duration returns the current item's duration in milliseconds.
func (b *PlayerBridge) Duration() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ensureOpen()
	if b.engine == nil {
		return 0
	}
	return b.engine.Duration()
}

// Release frees the engine handle without closing the bridge. Subsequent
// commands are no-ops; a new engine cannot be attached.
func (b *PlayerBridge) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ensureOpen()
	if b.engine == nil {
		return
	}
	b.engine.RemoveListener(b.listener)
	b.engine.Release()
	b.engine = nil
	b.Connected.Set(false)
	b.State.Set(domain.StateIdle)
}

// Event processing.

func (b *PlayerBridge) onEvents(events ports.Events) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed || b.engine == nil {
		return
	}

	invoked := make(map[snapshotUpdate]bool, len(batchDispatch))
	for _, entry := range batchDispatch {
		if !events.Contains(entry.kind) {
			continue
		}
		for _, update := range entry.updates {
			if invoked[update] {
				continue
			}
			invoked[update] = true
			b.runUpdate(update, events)
		}
	}
}

func (b *PlayerBridge) runUpdate(update snapshotUpdate, events ports.Events) {
	switch update {
	case updateCommands:
		b.refreshCommands()
	case updateTimeline:
		b.handleTimeline(events)
	case updateTransition:
		b.handleTransition(events)
	case updateShuffle:
		b.ShuffleEnabled.Set(b.engine.ShuffleEnabled())
	case updateRepeat:
		b.Repeat.Set(b.engine.RepeatMode())
	case updateSpeed:
		b.Speed.Set(b.engine.Speed())
	case updateSeekIncrements:
		b.SeekBackMS.Set(b.engine.SeekBackIncrementMS())
		b.SeekForwardMS.Set(b.engine.SeekForwardIncrementMS())
	case updateState:
		b.refreshState()
	case updateError:
		b.logEngineError(events.Err)
	}
}

func (b *PlayerBridge) refreshCommands() {
	var commands []domain.Command
	seen := make(map[domain.Command]bool)
	for _, capability := range b.engine.Capabilities() {
		command, known := capabilityCommands[capability]
		if !known || seen[command] {
			continue
		}
		seen[command] = true
		commands = append(commands, command)
	}
	b.Commands.Set(commands)
}

// handleTimeline runs the session-restore bookkeeping. The first
// playlist-changed timeline notification of the bridge's lifetime records
// the restore target and pushes persisted modes to the engine; the next
// timeline notification consumes the recorded seek and clears it forever.
func (b *PlayerBridge) handleTimeline(events ports.Events) {
	if !b.restoreDone {
		if events.TimelineReason != ports.TimelineReasonPlaylistChanged {
			return
		}
		b.restoreDone = true

		lastID := b.preferences.LastSongID()
		if lastID == 0 {
			return
		}
		index := b.indexOfLocked(lastID)
		if index < 0 {
			return
		}

		b.seekTarget = &pendingSeek{index: index, positionMS: b.preferences.LastPositionMS()}
		b.pendingPlayCountID = lastID

		shuffle := b.preferences.ShuffleEnabled()
		repeat := b.preferences.RepeatMode()
		b.engine.SetShuffleEnabled(shuffle)
		b.engine.SetRepeatMode(repeat)
		b.ShuffleEnabled.Set(shuffle)
		b.Repeat.Set(repeat)

		b.logger.Info("session restore recorded",
			"song_id", lastID, "index", index, "position_ms", b.seekTarget.positionMS)
		return
	}

	if b.seekTarget != nil {
		target := *b.seekTarget
		b.seekTarget = nil
		b.engine.SeekTo(target.index, target.positionMS)
		b.engine.Prepare()
		b.logger.Debug("session restore seek applied", "index", target.index)
	}
}

// handleTransition refreshes the current-item fields and, for genuine
// transitions, queues the deferred play-count increment and persists the
// new last-played song id. Playlist-replacement transitions never queue an
// increment.
func (b *PlayerBridge) handleTransition(events ports.Events) {
	isTransition := events.Contains(ports.EventItemTransition)

	if isTransition && events.Item != nil {
		b.CurrentSong.Set(songPtr(mapper.ToSong(*events.Item)))
		b.CurrentIndex.Set(events.ItemIndex)
	} else if isTransition && events.Item == nil {
		b.CurrentSong.Set(nil)
		b.CurrentIndex.Set(-1)
	} else {
		b.refreshCursor()
	}
	b.PositionMS.Set(b.engine.Position())

	if !isTransition || events.Item == nil {
		return
	}
	if events.TransitionReason == ports.TransitionReasonPlaylistChanged {
		return
	}

	songID := mapper.SongID(*events.Item)
	if songID == 0 {
		return
	}
	b.pendingPlayCountID = songID
	b.persistAsync(func() error { return b.preferences.SetLastSongID(songID) }, "last song id")
}

// refreshState derives the normalized player state. Precedence: a
// buffering-or-ready phase with play-when-ready set is Playing; otherwise
// the loading flag wins; otherwise the raw phase maps directly.
func (b *PlayerBridge) refreshState() {
	phase := b.engine.Phase()
	playWhenReady := b.engine.PlayWhenReady()

	var state domain.PlayerState
	switch {
	case (phase == ports.PhaseBuffering || phase == ports.PhaseReady) && playWhenReady:
		state = domain.StatePlaying
	case b.engine.IsLoading():
		state = domain.StateLoading
	default:
		switch phase {
		case ports.PhaseBuffering:
			state = domain.StateLoading
		case ports.PhaseReady:
			state = domain.StateReady
		case ports.PhaseEnded:
			state = domain.StateEnded
		default:
			state = domain.StateIdle
		}
	}
	b.State.Set(state)

	if state != domain.StatePlaying || b.pendingPlayCountID == 0 {
		return
	}
	current, ok := b.engine.CurrentItem()
	if !ok || mapper.SongID(current) != b.pendingPlayCountID {
		return
	}

	songID := b.pendingPlayCountID
	b.pendingPlayCountID = 0
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		b.playCounter.RecordPlay(context.Background(), songID)
	}()
}

func (b *PlayerBridge) logEngineError(err *domain.EngineError) {
	if err == nil {
		return
	}
	b.logger.Error("engine playback error",
		"op", err.Op, "code", err.Code, "path", err.Path, "message", err.Message)
}

// Helpers. All require b.mu held.

func (b *PlayerBridge) ensureOpen() {
	if b.closed {
		panic("player bridge used after close")
	}
}

// sameQueue reports whether tracks equals the engine queue by ordered
// media-id sequence. O(n); short-circuits on length mismatch or emptiness.
func (b *PlayerBridge) sameQueue(tracks []ports.EngineTrack) bool {
	count := b.engine.ItemCount()
	if len(tracks) != count || count == 0 {
		return false
	}
	current := b.engine.Items()
	for i, track := range tracks {
		if track.MediaID != current[i].MediaID {
			return false
		}
	}
	return true
}

func (b *PlayerBridge) indexOfLocked(songID int64) int {
	for i, item := range b.engine.Items() {
		if mapper.SongID(item) == songID {
			return i
		}
	}
	return -1
}

// refreshCursor re-reads the current item and index from the engine.
func (b *PlayerBridge) refreshCursor() {
	index := b.engine.CurrentIndex()
	b.CurrentIndex.Set(index)
	if item, ok := b.engine.CurrentItem(); ok {
		b.CurrentSong.Set(songPtr(mapper.ToSong(item)))
	} else {
		b.CurrentSong.Set(nil)
	}
	b.PositionMS.Set(b.engine.Position())
}

// publishPosition updates the position field and persists it.
func (b *PlayerBridge) publishPosition() {
	position := b.engine.Position()
	b.PositionMS.Set(position)
	b.persistAsync(func() error { return b.preferences.SetLastPositionMS(position) }, "position")
}

// persistAsync runs a preference write on a short-lived goroutine so event
// processing never blocks on I/O. Close joins these via the wait group.
func (b *PlayerBridge) persistAsync(write func() error, what string) {
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		if err := write(); err != nil {
			b.logger.Error("persist "+what, "error", err)
		}
	}()
}

// tickPosition refreshes and persists the playback position once per second
// until Close. Ticking continues while paused; persisting the paused
// position is idempotent.
func (b *PlayerBridge) tickPosition() {
	defer b.wg.Done()
	ticker := time.NewTicker(positionTickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-b.stopTick:
			return
		case <-ticker.C:
			b.mu.Lock()
			if b.closed || b.engine == nil {
				b.mu.Unlock()
				continue
			}
			position := b.engine.Position()
			b.PositionMS.Set(position)
			b.mu.Unlock()

			if err := b.preferences.SetLastPositionMS(position); err != nil {
				b.logger.Error("persist position", "error", err)
			}
		}
	}
}

func songPtr(song domain.Song) *domain.Song {
	return &song
}
