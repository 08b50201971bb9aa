package fake

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soundleaf/soundleaf/internal/ports"
)

type recordingListener struct {
	batches []ports.Events
}

func (r *recordingListener) OnEvents(events ports.Events) {
	r.batches = append(r.batches, events)
}

func track(id string) ports.EngineTrack {
	return ports.EngineTrack{MediaID: id, URI: "/music/" + id + ".mp3"}
}

func TestSetItems_PlacesCursor(t *testing.T) {
	engine := New()

	engine.SetItems([]ports.EngineTrack{track("1"), track("2"), track("3")}, 1, 5000)

	assert.Equal(t, 3, engine.ItemCount())
	assert.Equal(t, 1, engine.CurrentIndex())
	assert.Equal(t, int64(5000), engine.Position())

	current, ok := engine.CurrentItem()
	require.True(t, ok)
	assert.Equal(t, "2", current.MediaID)
}

func TestQueueMutationCounter(t *testing.T) {
	engine := New()

	engine.SetItems([]ports.EngineTrack{track("1")}, 0, 0)
	engine.AddItems(1, track("2"))
	engine.RemoveItem(1)
	engine.ClearItems()

	assert.Equal(t, 4, engine.Calls().QueueMutations())
	assert.Equal(t, -1, engine.CurrentIndex())
}

func TestMoveItem_Reorders(t *testing.T) {
	engine := New()
	engine.SetItems([]ports.EngineTrack{track("a"), track("b"), track("c")}, 0, 0)

	engine.MoveItem(0, 2)

	items := engine.Items()
	require.Len(t, items, 3)
	assert.Equal(t, "b", items[0].MediaID)
	assert.Equal(t, "c", items[1].MediaID)
	assert.Equal(t, "a", items[2].MediaID)
}

func TestNavigation(t *testing.T) {
	engine := New()
	engine.SetItems([]ports.EngineTrack{track("1"), track("2")}, 0, 0)

	assert.False(t, engine.HasPrevious())
	assert.True(t, engine.HasNext())

	engine.SeekToNext()
	assert.Equal(t, 1, engine.CurrentIndex())
	assert.True(t, engine.HasPrevious())
	assert.False(t, engine.HasNext())

	engine.SeekToPrevious()
	assert.Equal(t, 0, engine.CurrentIndex())
}

func TestSeekBack_ClampsAtZero(t *testing.T) {
	engine := New()
	engine.SetItems([]ports.EngineTrack{track("1")}, 0, 4000)

	engine.SeekBack()
	assert.Equal(t, int64(0), engine.Position())

	engine.SeekForward()
	assert.Equal(t, int64(30000), engine.Position())
}

func TestEmitBatch_DeliversToListenersInOrder(t *testing.T) {
	engine := New()
	first := &recordingListener{}
	second := &recordingListener{}
	engine.AddListener(first)
	engine.AddListener(second)

	engine.EmitBatch(ports.NewEvents(ports.EventPlayStateChanged))

	require.Len(t, first.batches, 1)
	require.Len(t, second.batches, 1)
	assert.True(t, first.batches[0].Contains(ports.EventPlayStateChanged))
}

func TestRemoveListener_StopsDelivery(t *testing.T) {
	engine := New()
	listener := &recordingListener{}
	engine.AddListener(listener)
	engine.RemoveListener(listener)

	engine.EmitBatch(ports.NewEvents(ports.EventTimelineChanged))

	assert.Empty(t, listener.batches)
}

func TestRelease_DropsQueueAndListeners(t *testing.T) {
	engine := New()
	listener := &recordingListener{}
	engine.AddListener(listener)
	engine.SetItems([]ports.EngineTrack{track("1")}, 0, 0)

	engine.Release()

	assert.True(t, engine.Released())
	assert.Equal(t, 0, engine.ItemCount())
	engine.EmitBatch(ports.NewEvents(ports.EventPlayStateChanged))
	assert.Empty(t, listener.batches)
}
