package store

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"pmchat/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *BoltStore {
	t.Helper()
	s, err := NewBoltStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestBoltStore_RoomAccess(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertRoom(models.Room{RoomID: "r1", CompanyID: "c1", Name: "General"}))
	require.NoError(t, s.UpsertRoom(models.Room{RoomID: "r2", CompanyID: "c1", Name: "Leads", IsPrivate: true}))
	require.NoError(t, s.AddMember("r2", "u1"))

	t.Run("public room, same company", func(t *testing.T) {
		room, err := s.RoomAccess(ctx, "r1", "c1", "u9")
		require.NoError(t, err)
		assert.Equal(t, "General", room.Name)
	})

	t.Run("unknown room", func(t *testing.T) {
		_, err := s.RoomAccess(ctx, "nope", "c1", "u1")
		assert.ErrorIs(t, err, models.ErrAccessDenied)
	})

	t.Run("wrong company", func(t *testing.T) {
		_, err := s.RoomAccess(ctx, "r1", "c2", "u1")
		assert.ErrorIs(t, err, models.ErrAccessDenied)
	})

	t.Run("private room, member", func(t *testing.T) {
		room, err := s.RoomAccess(ctx, "r2", "c1", "u1")
		require.NoError(t, err)
		assert.True(t, room.IsPrivate)
	})

	t.Run("private room, non-member", func(t *testing.T) {
		_, err := s.RoomAccess(ctx, "r2", "c1", "u2")
		assert.ErrorIs(t, err, models.ErrAccessDenied)
	})
}

func TestBoltStore_SaveMessage(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	msg, err := s.SaveMessage(ctx, "r1", "u1", "hello", false)
	require.NoError(t, err)
	assert.NotEmpty(t, msg.MessageID)
	assert.Equal(t, "r1", msg.RoomID)
	assert.Equal(t, "u1", msg.UserID)
	assert.Equal(t, "hello", msg.Content)
	assert.False(t, msg.IsBot)
	assert.False(t, msg.CreatedAt.IsZero())

	other, err := s.SaveMessage(ctx, "r1", "u1", "again", false)
	require.NoError(t, err)
	assert.NotEqual(t, msg.MessageID, other.MessageID)
}

func TestBoltStore_MessageHistory(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertUser("u1", "Alice", "https://cdn/a.png"))

	for i := 0; i < 5; i++ {
		_, err := s.SaveMessage(ctx, "r1", "u1", fmt.Sprintf("msg %d", i), false)
		require.NoError(t, err)
	}
	_, err := s.SaveMessage(ctx, "other", "u1", "elsewhere", false)
	require.NoError(t, err)

	history, err := s.MessageHistory(ctx, "r1", 3)
	require.NoError(t, err)
	require.Len(t, history, 3)

	// Newest first; the hub reverses before replaying to the client.
	assert.Equal(t, "msg 4", history[0].Message)
	assert.Equal(t, "msg 2", history[2].Message)

	assert.Equal(t, "Alice", history[0].SenderName)
	assert.Equal(t, "https://cdn/a.png", history[0].SenderAvatar)
	assert.Equal(t, "r1", history[0].RoomID)
	assert.Equal(t, "r1", history[0].ConversationID)
	assert.Equal(t, "u1", history[0].SenderID)
}

func TestBoltStore_MessageHistory_UnknownSender(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.SaveMessage(ctx, "r1", "deleted-user", "hi", false)
	require.NoError(t, err)
	_, err = s.SaveMessage(ctx, "r1", "", "automated reply", true)
	require.NoError(t, err)

	history, err := s.MessageHistory(ctx, "r1", 10)
	require.NoError(t, err)
	require.Len(t, history, 2)

	assert.True(t, history[0].IsBot)
	assert.Empty(t, history[0].SenderName, "bot messages carry no profile")
	assert.Equal(t, "Unknown User", history[1].SenderName)
}

func TestBoltStore_MessageHistory_EmptyRoom(t *testing.T) {
	s := newTestStore(t)

	history, err := s.MessageHistory(context.Background(), "empty", 100)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestBoltStore_SenderProfile(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertUser("u1", "Alice", "https://cdn/a.png"))

	profile, err := s.SenderProfile(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, models.SenderProfile{Name: "Alice", Avatar: "https://cdn/a.png"}, profile)

	_, err = s.SenderProfile(ctx, "nope")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestBoltStore_LogActivity(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertRoom(models.Room{RoomID: "r1", CompanyID: "c1", ProjectID: "p1"}))
	require.NoError(t, s.UpsertRoom(models.Room{RoomID: "r2", CompanyID: "c1"}))

	require.NoError(t, s.LogActivity(ctx, "u1", "r1"))
	require.NoError(t, s.LogActivity(ctx, "u1", "r2"))    // no project: skipped
	require.NoError(t, s.LogActivity(ctx, "u1", "ghost")) // unknown room: skipped

	entries, err := s.ListActivity()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "u1", entries[0].UserID)
	assert.Equal(t, "sent_message", entries[0].Action)
	assert.Equal(t, "p1", entries[0].ProjectID)
}

func TestBoltStore_ListRooms(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertRoom(models.Room{RoomID: "r1", CompanyID: "c1", Name: "General"}))
	require.NoError(t, s.UpsertRoom(models.Room{RoomID: "r2", CompanyID: "c1", Name: "Leads", IsPrivate: true}))
	require.NoError(t, s.UpsertRoom(models.Room{RoomID: "r3", CompanyID: "c2", Name: "Other"}))
	require.NoError(t, s.AddMember("r2", "u1"))

	rooms, err := s.ListRooms(ctx, "c1", "u1")
	require.NoError(t, err)
	require.Len(t, rooms, 2)

	rooms, err = s.ListRooms(ctx, "c1", "u2")
	require.NoError(t, err)
	require.Len(t, rooms, 1)
	assert.Equal(t, "r1", rooms[0].RoomID)
}

func TestBoltStore_ContextCanceled(t *testing.T) {
	s := newTestStore(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.RoomAccess(ctx, "r1", "c1", "u1")
	assert.ErrorIs(t, err, context.Canceled)
}
