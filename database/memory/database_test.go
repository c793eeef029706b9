package memory_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"groupcall/database"
	"groupcall/database/memory"
)

func TestUpsertAndFindSessionInfo(t *testing.T) {
	db := memory.New()

	require.NoError(t, db.UpsertSessionInfo(&database.SessionInfo{
		ConnectionID: "conn-1",
		RoomID:       "r1",
	}))

	info, err := db.FindSessionInfoByID("conn-1")
	require.NoError(t, err)
	assert.Equal(t, "conn-1", info.ConnectionID)
	assert.Equal(t, "r1", info.RoomID)
	assert.False(t, info.CreatedAt.IsZero())
}

func TestFindMissingSessionInfo(t *testing.T) {
	db := memory.New()

	_, err := db.FindSessionInfoByID("conn-1")
	assert.ErrorIs(t, err, database.ErrSessionNotFound)
}

func TestUpsertOverwritesExistingSession(t *testing.T) {
	db := memory.New()

	require.NoError(t, db.UpsertSessionInfo(&database.SessionInfo{ConnectionID: "conn-1", RoomID: "r1"}))
	require.NoError(t, db.UpsertSessionInfo(&database.SessionInfo{ConnectionID: "conn-1", RoomID: "r2"}))

	info, err := db.FindSessionInfoByID("conn-1")
	require.NoError(t, err)
	assert.Equal(t, "r2", info.RoomID)
}

func TestDeleteSessionInfoReturnsPriorState(t *testing.T) {
	db := memory.New()

	require.NoError(t, db.UpsertSessionInfo(&database.SessionInfo{ConnectionID: "conn-1", RoomID: "r1"}))

	info, err := db.DeleteSessionInfoByID("conn-1")
	require.NoError(t, err)
	assert.Equal(t, "r1", info.RoomID)

	_, err = db.FindSessionInfoByID("conn-1")
	assert.ErrorIs(t, err, database.ErrSessionNotFound)

	_, err = db.DeleteSessionInfoByID("conn-1")
	assert.ErrorIs(t, err, database.ErrSessionNotFound)
}

func TestConcurrentDeleteHasOneWinner(t *testing.T) {
	db := memory.New()

	require.NoError(t, db.UpsertSessionInfo(&database.SessionInfo{ConnectionID: "conn-1", RoomID: "r1"}))

	const callers = 8
	var wg sync.WaitGroup
	results := make(chan error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := db.DeleteSessionInfoByID("conn-1")
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var wins int
	for err := range results {
		if err == nil {
			wins++
		} else {
			assert.ErrorIs(t, err, database.ErrSessionNotFound)
		}
	}
	assert.Equal(t, 1, wins)
}
