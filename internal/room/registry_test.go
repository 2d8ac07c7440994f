package room_test

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Tyrowin/roomchat/internal/room"
	"github.com/google/uuid"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

func newRegistry() *room.Registry {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	var tick atomic.Int64
	return room.NewRegistry(logs.GetLoggerFromLevel(slog.LevelDebug),
		room.WithClock(func() time.Time {
			return base.Add(time.Duration(tick.Add(1)) * time.Second)
		}))
}

func TestRegistry_CreateAndLookup(t *testing.T) {
	req := require.New(t)
	reg := newRegistry()

	lobby, err := reg.Create("lobby")
	req.NoError(err)
	req.NotEqual(uuid.Nil, lobby.ID)
	req.Zero(lobby.Len())

	got, ok := reg.Get(lobby.ID)
	req.True(ok)
	req.Same(lobby, got)

	byName, ok := reg.FindByName("lobby")
	req.True(ok)
	req.Same(lobby, byName)

	_, ok = reg.FindByName("Lobby")
	req.False(ok, "names are case sensitive")
}

func TestRegistry_CreateRejectsDuplicatesAndEmptyNames(t *testing.T) {
	req := require.New(t)
	reg := newRegistry()

	_, err := reg.Create("lobby")
	req.NoError(err)
	_, err = reg.Create("lobby")
	req.ErrorIs(err, room.ErrRoomExists)
	_, err = reg.Create("  ")
	req.ErrorIs(err, room.ErrEmptyRoomName)
	req.Equal(1, reg.Len())
}

func TestRegistry_ConcurrentCreateFirstWriterWins(t *testing.T) {
	reg := newRegistry()
	var wg sync.WaitGroup
	var created atomic.Int32

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := reg.Create("lobby"); err == nil {
				created.Add(1)
			}
		}()
	}
	wg.Wait()

	require.EqualValues(t, 1, created.Load())
	require.Equal(t, 1, reg.Len())
}

func TestRegistry_ListOrderedByCreation(t *testing.T) {
	req := require.New(t)
	reg := newRegistry()
	for _, name := range []string{"b", "a", "c"} {
		_, err := reg.Create(name)
		req.NoError(err)
	}

	names := make([]string, 0, 3)
	for _, r := range reg.List() {
		names = append(names, r.Name)
	}
	req.Equal([]string{"b", "a", "c"}, names)
}

func TestRegistry_JoinAndLeave(t *testing.T) {
	req := require.New(t)
	reg := newRegistry()
	lobby, err := reg.Create("lobby")
	req.NoError(err)

	_, members, err := reg.Join(lobby.ID, "c1")
	req.NoError(err)
	req.Equal([]string{"c1"}, members)

	_, members, err = reg.Join(lobby.ID, "c2")
	req.NoError(err)
	req.Equal([]string{"c1", "c2"}, members)

	// Joining twice keeps a set
	_, members, err = reg.Join(lobby.ID, "c1")
	req.NoError(err)
	req.Equal([]string{"c1", "c2"}, members)

	res, err := reg.Leave(lobby.ID, "c1")
	req.NoError(err)
	req.Equal([]string{"c1", "c2"}, res.Members, "leave reports membership before removal")
	req.False(res.Deleted)
	req.Equal([]string{"c2"}, lobby.Members())

	res, err = reg.Leave(lobby.ID, "c1")
	req.NoError(err, "leaving without membership is a no-op removal")
	req.Equal([]string{"c2"}, res.Members)
	req.False(res.Deleted)
	req.Equal([]string{"c2"}, lobby.Members())

	res, err = reg.Leave(lobby.ID, "c2")
	req.NoError(err)
	req.True(res.Deleted)
	req.False(reg.Contains(lobby.ID))
	_, ok := reg.FindByName("lobby")
	req.False(ok)

	_, err = reg.Leave(lobby.ID, "c2")
	req.ErrorIs(err, room.ErrRoomNotFound)
	_, _, err = reg.Join(lobby.ID, "c3")
	req.ErrorIs(err, room.ErrRoomNotFound)

	// The name is free again once the room is gone
	_, err = reg.Create("lobby")
	req.NoError(err)
}

func TestRegistry_JoinUnknownRoom(t *testing.T) {
	_, _, err := newRegistry().Join(uuid.New(), "c1")
	require.ErrorIs(t, err, room.ErrRoomNotFound)
}

func TestRegistry_LeaveEmptyRoomDeletesIt(t *testing.T) {
	req := require.New(t)
	reg := newRegistry()
	lobby, err := reg.Create("lobby")
	req.NoError(err)

	res, err := reg.Leave(lobby.ID, "c1")
	req.NoError(err)
	req.Empty(res.Members)
	req.True(res.Deleted)
	req.False(reg.Contains(lobby.ID))

	_, err = reg.Leave(lobby.ID, "c1")
	req.ErrorIs(err, room.ErrRoomNotFound)
}

func TestRegistry_Purge(t *testing.T) {
	req := require.New(t)
	reg := newRegistry()
	shared, _ := reg.Create("shared")
	solo, _ := reg.Create("solo")
	other, _ := reg.Create("other")

	_, _, _ = reg.Join(shared.ID, "c1")
	_, _, _ = reg.Join(shared.ID, "c2")
	_, _, _ = reg.Join(solo.ID, "c1")
	_, _, _ = reg.Join(other.ID, "c2")

	results := reg.Purge("c1")

	req.Len(results, 2)
	req.Equal(shared.ID, results[0].Room.ID)
	req.False(results[0].Deleted)
	req.Equal(solo.ID, results[1].Room.ID)
	req.True(results[1].Deleted)

	req.Equal([]string{"c2"}, shared.Members())
	req.False(reg.Contains(solo.ID))
	req.True(reg.Contains(other.ID))
	req.Empty(reg.Purge("c1"))
}

func TestRegistry_AddIsIdempotent(t *testing.T) {
	req := require.New(t)
	reg := newRegistry()
	lobby, _ := reg.Create("lobby")

	req.False(reg.Add(lobby))
	req.False(reg.Add(nil))
	req.False(reg.Remove(uuid.New()))
	req.True(reg.Remove(lobby.ID))
	req.False(reg.Remove(lobby.ID))
	req.True(reg.Add(lobby))
	req.True(reg.Contains(lobby.ID))
}

func TestRegistry_ConcurrentRoomsAreIndependent(t *testing.T) {
	reg := newRegistry()
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		r, err := reg.Create(fmt.Sprintf("room-%d", i))
		require.NoError(t, err)
		for j := 0; j < 10; j++ {
			wg.Add(1)
			go func(conn string) {
				defer wg.Done()
				_, _, _ = reg.Join(r.ID, conn)
			}(fmt.Sprintf("c%d", j))
		}
	}
	wg.Wait()

	for _, r := range reg.List() {
		require.Equal(t, 10, r.Len())
	}
}
