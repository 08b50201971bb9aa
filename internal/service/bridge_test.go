package service

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soundleaf/soundleaf/internal/adapter/engine/fake"
	"github.com/soundleaf/soundleaf/internal/domain"
	"github.com/soundleaf/soundleaf/internal/ports"
	"github.com/soundleaf/soundleaf/internal/testutil"
)

// memPreferences is an in-memory ports.PreferencesRepository.
type memPreferences struct {
	mu      sync.Mutex
	songID  int64
	posMS   int64
	shuffle bool
	repeat  domain.RepeatMode
}

func (p *memPreferences) LastSongID() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.songID
}

func (p *memPreferences) SetLastSongID(id int64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.songID = id
	return nil
}

func (p *memPreferences) LastPositionMS() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.posMS
}

func (p *memPreferences) SetLastPositionMS(positionMS int64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.posMS = positionMS
	return nil
}

func (p *memPreferences) ShuffleEnabled() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.shuffle
}

func (p *memPreferences) SetShuffleEnabled(enabled bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.shuffle = enabled
	return nil
}

func (p *memPreferences) RepeatMode() domain.RepeatMode {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.repeat
}

func (p *memPreferences) SetRepeatMode(mode domain.RepeatMode) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.repeat = mode
	return nil
}

var _ ports.PreferencesRepository = (*memPreferences)(nil)

// countingPlayCounter records every play-count invocation.
type countingPlayCounter struct {
	mu  sync.Mutex
	ids []int64
}

func (c *countingPlayCounter) RecordPlay(_ context.Context, songID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ids = append(c.ids, songID)
}

func (c *countingPlayCounter) IDs() []int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]int64(nil), c.ids...)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestBridge(t *testing.T) (*PlayerBridge, *fake.Engine, *memPreferences, *countingPlayCounter) {
	t.Helper()
	prefs := &memPreferences{}
	counter := &countingPlayCounter{}
	bridge := NewPlayerBridge(prefs, counter, testLogger())
	engine := fake.New()
	bridge.Attach(engine)
	t.Cleanup(bridge.Close)
	return bridge, engine, prefs, counter
}

func songs(ids ...int64) []domain.Song {
	result := make([]domain.Song, len(ids))
	for i, id := range ids {
		result[i] = domain.Song{ID: id, Title: "song", Path: "/music/x.mp3"}
	}
	return result
}

func transitionBatch(track ports.EngineTrack, index int, reason ports.TransitionReason) ports.Events {
	events := ports.NewEvents(ports.EventItemTransition)
	events.Item = &track
	events.ItemIndex = index
	events.TransitionReason = reason
	return events
}

func timelineBatch(reason ports.TimelineChangeReason) ports.Events {
	events := ports.NewEvents(ports.EventTimelineChanged)
	events.TimelineReason = reason
	return events
}

// reportPlaying scripts the engine into a state the bridge derives as
// Playing for the item at index, then emits a play-state batch.
func reportPlaying(engine *fake.Engine, index int) {
	engine.SetCurrentIndex(index)
	engine.SetPhase(ports.PhaseReady)
	engine.SetPlayWhenReady(true)
	engine.EmitBatch(ports.NewEvents(ports.EventPlayStateChanged))
}

func TestSetMediaList_IdenticalQueueIsNoOp(t *testing.T) {
	bridge, engine, _, _ := newTestBridge(t)

	list := songs(1, 2, 3)
	bridge.SetMediaList(list)
	bridge.SkipToIndex(1)
	baseline := engine.Calls().QueueMutations()

	bridge.SetMediaList(list)

	assert.Equal(t, baseline, engine.Calls().QueueMutations())
	assert.Equal(t, 1, bridge.CurrentMediaIndex())
}

func TestSetMediaList_DifferentQueueReplaces(t *testing.T) {
	bridge, engine, prefs, _ := newTestBridge(t)

	bridge.SetMediaList(songs(1, 2))
	bridge.SetMediaList(songs(1, 2, 3))

	assert.Equal(t, 2, engine.Calls().SetItems)
	assert.Equal(t, 3, bridge.MediaCount())
	assert.Equal(t, int64(1), prefs.LastSongID())
}

func TestStatePrecedence_BufferingWithPlayWhenReadyIsPlaying(t *testing.T) {
	bridge, engine, _, _ := newTestBridge(t)
	engine.SetItems([]ports.EngineTrack{{MediaID: "1"}}, 0, 0)

	engine.SetPhase(ports.PhaseBuffering)
	engine.SetPlayWhenReady(true)
	engine.SetLoading(true)
	engine.EmitBatch(ports.NewEvents(ports.EventPlayStateChanged))

	assert.Equal(t, domain.StatePlaying, bridge.State.Get())
}

func TestStatePrecedence_LoadingFlagBeatsPhaseMap(t *testing.T) {
	bridge, engine, _, _ := newTestBridge(t)

	engine.SetPhase(ports.PhaseReady)
	engine.SetPlayWhenReady(false)
	engine.SetLoading(true)
	engine.EmitBatch(ports.NewEvents(ports.EventPlayStateChanged))

	assert.Equal(t, domain.StateLoading, bridge.State.Get())
}

func TestStateMapsPhaseDirectly(t *testing.T) {
	bridge, engine, _, _ := newTestBridge(t)

	cases := []struct {
		phase ports.PlaybackPhase
		want  domain.PlayerState
	}{
		{ports.PhaseIdle, domain.StateIdle},
		{ports.PhaseBuffering, domain.StateLoading},
		{ports.PhaseReady, domain.StateReady},
		{ports.PhaseEnded, domain.StateEnded},
	}
	for _, tc := range cases {
		engine.SetPhase(tc.phase)
		engine.EmitBatch(ports.NewEvents(ports.EventPlayStateChanged))
		assert.Equal(t, tc.want, bridge.State.Get(), "phase %d", tc.phase)
	}
}

func TestPlayCount_FiresOncePerGenuineTransition(t *testing.T) {
	_, engine, _, counter := newTestBridge(t)

	tracks := []ports.EngineTrack{{MediaID: "1"}, {MediaID: "2"}, {MediaID: "3"}}
	engine.SetItems(tracks, 0, 0)

	for i, track := range tracks {
		engine.EmitBatch(transitionBatch(track, i, ports.TransitionReasonAuto))
		reportPlaying(engine, i)
	}

	require.Eventually(t, func() bool {
		return len(counter.IDs()) == 3
	}, time.Second, 10*time.Millisecond)
	assert.ElementsMatch(t, []int64{1, 2, 3}, counter.IDs())
}

func TestPlayCount_SkippedForPlaylistChangedTransition(t *testing.T) {
	_, engine, _, counter := newTestBridge(t)

	tracks := []ports.EngineTrack{{MediaID: "1"}}
	engine.SetItems(tracks, 0, 0)

	engine.EmitBatch(transitionBatch(tracks[0], 0, ports.TransitionReasonPlaylistChanged))
	reportPlaying(engine, 0)

	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, counter.IDs())
}

func TestPlayCount_NotFiredBeforePlaying(t *testing.T) {
	bridge, engine, _, counter := newTestBridge(t)

	tracks := []ports.EngineTrack{{MediaID: "7"}}
	engine.SetItems(tracks, 0, 0)

	// Transition arrives but playback stalls in buffering without
	// play-when-ready: the increment stays pending.
	engine.EmitBatch(transitionBatch(tracks[0], 0, ports.TransitionReasonAuto))
	engine.SetPhase(ports.PhaseBuffering)
	engine.EmitBatch(ports.NewEvents(ports.EventPlayStateChanged))

	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, counter.IDs())
	assert.Equal(t, domain.StateLoading, bridge.State.Get())

	reportPlaying(engine, 0)
	require.Eventually(t, func() bool {
		return len(counter.IDs()) == 1
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, []int64{7}, counter.IDs())
}

func TestSessionRestore_RunsOncePerLifetime(t *testing.T) {
	prefs := &memPreferences{songID: 2, posMS: 5000, shuffle: true, repeat: domain.RepeatAll}
	counter := &countingPlayCounter{}
	bridge := NewPlayerBridge(prefs, counter, testLogger())
	engine := fake.New()
	bridge.Attach(engine)
	t.Cleanup(bridge.Close)

	engine.SetItems([]ports.EngineTrack{{MediaID: "1"}, {MediaID: "2"}, {MediaID: "3"}}, 0, 0)

	// First playlist-changed timeline notification records the restore
	// target and pushes persisted modes.
	engine.EmitBatch(timelineBatch(ports.TimelineReasonPlaylistChanged))
	assert.True(t, engine.ShuffleEnabled())
	assert.Equal(t, domain.RepeatAll, engine.RepeatMode())
	assert.True(t, bridge.ShuffleEnabled.Get())
	assert.Equal(t, 0, engine.Calls().SeekTo)

	// The next timeline notification consumes the pending seek.
	engine.EmitBatch(timelineBatch(ports.TimelineReasonSourceUpdate))
	assert.Equal(t, 1, engine.Calls().SeekTo)
	assert.Equal(t, 1, engine.Calls().Prepare)
	assert.Equal(t, 1, engine.CurrentIndex())
	assert.Equal(t, int64(5000), engine.Position())

	// Further timeline notifications never re-trigger it.
	engine.EmitBatch(timelineBatch(ports.TimelineReasonPlaylistChanged))
	engine.EmitBatch(timelineBatch(ports.TimelineReasonSourceUpdate))
	assert.Equal(t, 1, engine.Calls().SeekTo)
	assert.Equal(t, 1, engine.Calls().Prepare)

	// The restored song's play count is deferred until Playing.
	reportPlaying(engine, 1)
	require.Eventually(t, func() bool {
		return len(counter.IDs()) == 1
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, []int64{2}, counter.IDs())
}

func TestSessionRestore_SkippedWhenNoPersistedSong(t *testing.T) {
	_, engine, _, _ := newTestBridge(t)
	engine.SetItems([]ports.EngineTrack{{MediaID: "1"}}, 0, 0)

	engine.EmitBatch(timelineBatch(ports.TimelineReasonPlaylistChanged))
	engine.EmitBatch(timelineBatch(ports.TimelineReasonSourceUpdate))

	assert.Equal(t, 0, engine.Calls().SeekTo)
	assert.Equal(t, 0, engine.Calls().Prepare)
}

func TestClosedBridge_CommandPanics(t *testing.T) {
	prefs := &memPreferences{}
	bridge := NewPlayerBridge(prefs, &countingPlayCounter{}, testLogger())
	bridge.Attach(fake.New())
	bridge.Close()

	assert.Panics(t, func() { bridge.Play() })
	assert.Panics(t, func() { bridge.SetMediaList(songs(1)) })
	assert.Panics(t, func() { bridge.MediaCount() })

	// Closing twice is tolerated.
	assert.NotPanics(t, bridge.Close)
}

func TestDoubleAttachPanics(t *testing.T) {
	bridge, _, _, _ := newTestBridge(t)

	assert.Panics(t, func() { bridge.Attach(fake.New()) })
}

func TestDetachedBridge_CommandsAreNoOps(t *testing.T) {
	bridge := NewPlayerBridge(&memPreferences{}, &countingPlayCounter{}, testLogger())
	t.Cleanup(bridge.Close)

	assert.NotPanics(t, func() {
		bridge.Play()
		bridge.Pause()
		bridge.SetMediaList(songs(1, 2))
	})
	assert.Equal(t, 0, bridge.MediaCount())
	assert.Equal(t, -1, bridge.CurrentMediaIndex())
	assert.False(t, bridge.Connected.Get())
}

func TestSkipToNext_Scenario(t *testing.T) {
	bridge, engine, _, counter := newTestBridge(t)

	list := songs(1, 2)
	bridge.SetMediaList(list)
	require.Equal(t, 0, bridge.CurrentMediaIndex())

	bridge.SkipToNext()

	assert.Equal(t, 1, engine.Calls().SeekToNext)
	assert.Equal(t, 1, bridge.CurrentIndex.Get())
	require.NotNil(t, bridge.CurrentSong.Get())
	assert.Equal(t, int64(2), bridge.CurrentSong.Get().ID)
	assert.Equal(t, int64(0), bridge.PositionMS.Get())

	track, _ := engine.ItemAt(1)
	engine.EmitBatch(transitionBatch(track, 1, ports.TransitionReasonSeek))
	reportPlaying(engine, 1)

	require.Eventually(t, func() bool {
		return len(counter.IDs()) == 1
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, []int64{2}, counter.IDs())
}

func TestSkipGuards(t *testing.T) {
	bridge, engine, _, _ := newTestBridge(t)
	bridge.SetMediaList(songs(1))

	bridge.SkipToPrevious()
	bridge.SkipToNext()

	assert.Equal(t, 0, engine.Calls().SeekToPrevious)
	assert.Equal(t, 0, engine.Calls().SeekToNext)
}

func TestSetRepeatMode_PersistsAndPublishes(t *testing.T) {
	bridge, engine, prefs, _ := newTestBridge(t)

	bridge.SetRepeatMode(domain.RepeatOne)

	assert.Equal(t, domain.RepeatOne, bridge.Repeat.Get())
	assert.Equal(t, domain.RepeatOne, engine.RepeatMode())
	assert.Equal(t, domain.RepeatOne, prefs.RepeatMode())
}

func TestSetShuffleEnabled_Persists(t *testing.T) {
	bridge, _, prefs, _ := newTestBridge(t)

	bridge.SetShuffleEnabled(true)

	assert.True(t, bridge.ShuffleEnabled.Get())
	assert.True(t, prefs.ShuffleEnabled())
}

func TestSeekBack_PersistsPosition(t *testing.T) {
	bridge, engine, prefs, _ := newTestBridge(t)
	bridge.SetMediaList(songs(1))
	engine.SetPosition(60_000)

	bridge.SeekBack()

	assert.Equal(t, int64(50_000), bridge.PositionMS.Get())
	require.Eventually(t, func() bool {
		return prefs.LastPositionMS() == 50_000
	}, time.Second, 10*time.Millisecond)
}

func TestBatchCoalescing_StateUpdateRunsOncePerBatch(t *testing.T) {
	bridge, engine, _, _ := newTestBridge(t)
	engine.SetItems([]ports.EngineTrack{{MediaID: "1"}}, 0, 0)

	var stateNotifications int
	cancel := bridge.State.Observe(func(domain.PlayerState) {
		stateNotifications++
	})
	defer cancel()

	// One batch reporting three kinds that all imply a state update.
	batch := ports.NewEvents(
		ports.EventPlayStateChanged,
		ports.EventItemTransition,
		ports.EventTimelineChanged,
	)
	track, _ := engine.ItemAt(0)
	batch.Item = &track
	batch.ItemIndex = 0
	engine.EmitBatch(batch)

	assert.Equal(t, 1, stateNotifications)
}

func TestCommands_UnknownCapabilitiesIgnored(t *testing.T) {
	bridge, engine, _, _ := newTestBridge(t)

	engine.SetCapabilities(ports.CapabilityPlayPause, ports.Capability(99), ports.CapabilitySkipNext)
	engine.EmitBatch(ports.NewEvents(ports.EventCapabilitiesChanged))

	assert.Equal(t,
		[]domain.Command{domain.CommandPlayPause, domain.CommandSkipNext},
		bridge.Commands.Get())
}

func TestStopPlayback_ClearsQueue(t *testing.T) {
	bridge, engine, _, _ := newTestBridge(t)
	bridge.SetMediaList(songs(1, 2))

	bridge.StopPlayback()

	assert.Equal(t, 0, engine.ItemCount())
	assert.Equal(t, domain.StateIdle, bridge.State.Get())
	assert.Nil(t, bridge.CurrentSong.Get())
	assert.Equal(t, -1, bridge.CurrentIndex.Get())
}

func TestIndexOfSong(t *testing.T) {
	bridge, _, _, _ := newTestBridge(t)
	bridge.SetMediaList(songs(10, 20, 30))

	assert.Equal(t, 1, bridge.IndexOfSong(20))
	assert.Equal(t, -1, bridge.IndexOfSong(99))
}

func TestRelease_DetachesEngine(t *testing.T) {
	bridge, engine, _, _ := newTestBridge(t)
	bridge.SetMediaList(songs(1))

	bridge.Release()

	assert.True(t, engine.Released())
	assert.False(t, bridge.Connected.Get())
	assert.Equal(t, domain.StateIdle, bridge.State.Get())
	assert.NotPanics(t, bridge.Play)
}

func TestPositionTick_RefreshesAndPersists(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	prefs := &memPreferences{}
	bridge := NewPlayerBridge(prefs, &countingPlayCounter{}, testLogger())
	engine := fake.New()
	bridge.Attach(engine)
	defer bridge.Close()

	engine.SetItems([]ports.EngineTrack{{MediaID: "1"}}, 0, 0)
	engine.SetPosition(4321)

	require.Eventually(t, func() bool {
		return bridge.PositionMS.Get() == 4321 && prefs.LastPositionMS() == 4321
	}, 3*time.Second, 50*time.Millisecond)
}
