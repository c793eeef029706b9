package room_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"groupcall/media/mediatest"
	"groupcall/metric"
	"groupcall/room"
)

func newDirectory(eng *mediatest.Engine) *room.Directory {
	return room.NewDirectory(eng, metric.New(metric.Config{}))
}

func TestGetOrCreateSharesOneInstance(t *testing.T) {
	eng := mediatest.NewEngine()
	dir := newDirectory(eng)

	const callers = 32
	rooms := make(chan *room.Room, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r, err := dir.GetOrCreate("lobby")
			assert.NoError(t, err)
			rooms <- r
		}()
	}
	wg.Wait()
	close(rooms)

	first := <-rooms
	for r := range rooms {
		assert.Same(t, first, r)
	}
	assert.Equal(t, 1, eng.PipelineCount())
	assert.Equal(t, 1, dir.Count())
}

func TestGetOrCreateSeparatesRooms(t *testing.T) {
	eng := mediatest.NewEngine()
	dir := newDirectory(eng)

	r1, err := dir.GetOrCreate("r1")
	require.NoError(t, err)
	r2, err := dir.GetOrCreate("r2")
	require.NoError(t, err)

	assert.NotSame(t, r1, r2)
	assert.Equal(t, 2, eng.PipelineCount())
}

func TestRemoveReleasesPipelineOnce(t *testing.T) {
	eng := mediatest.NewEngine()
	dir := newDirectory(eng)

	_, err := dir.GetOrCreate("r1")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			dir.Remove("r1")
		}()
	}
	wg.Wait()

	assert.Equal(t, 0, dir.Count())
	assert.Equal(t, 1, eng.ReleasedPipelineCount())
}

func TestRemoveKeepsRoomWithMembers(t *testing.T) {
	eng := mediatest.NewEngine()
	dir := newDirectory(eng)

	r, err := dir.GetOrCreate("r1")
	require.NoError(t, err)
	_, err = r.Join("a")
	require.NoError(t, err)

	dir.Remove("r1")
	assert.Equal(t, 1, dir.Count())
	assert.Equal(t, 0, eng.ReleasedPipelineCount())
}

func TestRemovedRoomRejectsJoins(t *testing.T) {
	eng := mediatest.NewEngine()
	dir := newDirectory(eng)

	stale, err := dir.GetOrCreate("r1")
	require.NoError(t, err)
	dir.Remove("r1")

	_, err = stale.Join("a")
	assert.ErrorIs(t, err, room.ErrClosed)

	fresh, err := dir.GetOrCreate("r1")
	require.NoError(t, err)
	assert.NotSame(t, stale, fresh)
	_, err = fresh.Join("a")
	assert.NoError(t, err)
}

func TestLastLeaveRemovesRoomOnce(t *testing.T) {
	eng := mediatest.NewEngine()
	dir := newDirectory(eng)

	r, err := dir.GetOrCreate("r1")
	require.NoError(t, err)
	_, err = r.Join("a")
	require.NoError(t, err)

	// both callers observe the empty room and race to remove it
	r.Leave("a")
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if r.IsEmpty() {
				dir.Remove("r1")
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 0, dir.Count())
	assert.Equal(t, 1, eng.ReleasedPipelineCount())
}

func TestShutdownDisposesAllRooms(t *testing.T) {
	eng := mediatest.NewEngine()
	dir := newDirectory(eng)

	r1, err := dir.GetOrCreate("r1")
	require.NoError(t, err)
	_, err = r1.Join("a")
	require.NoError(t, err)
	_, err = dir.GetOrCreate("r2")
	require.NoError(t, err)

	dir.Shutdown()
	assert.Equal(t, 0, dir.Count())
	assert.Equal(t, 2, eng.ReleasedPipelineCount())
}
