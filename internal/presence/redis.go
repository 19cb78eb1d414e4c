package presence

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const mirrorTimeout = 2 * time.Second

// RedisMirror keeps a per-room set of present users in Redis
// (key "room:{id}:users") so presence survives across server instances.
// The in-process Registry stays authoritative for this instance; the
// mirror only feeds external readers.
type RedisMirror struct {
	client *redis.Client
}

func NewRedisMirror(addr string) *RedisMirror {
	return &RedisMirror{
		client: redis.NewClient(&redis.Options{Addr: addr}),
	}
}

func (m *RedisMirror) Add(roomID, userID string) error {
	ctx, cancel := context.WithTimeout(context.Background(), mirrorTimeout)
	defer cancel()
	return m.client.SAdd(ctx, roomKey(roomID), userID).Err()
}

func (m *RedisMirror) Remove(roomID, userID string) error {
	ctx, cancel := context.WithTimeout(context.Background(), mirrorTimeout)
	defer cancel()
	return m.client.SRem(ctx, roomKey(roomID), userID).Err()
}

// Users reads the mirrored presence set for a room across all instances.
func (m *RedisMirror) Users(ctx context.Context, roomID string) ([]string, error) {
	return m.client.SMembers(ctx, roomKey(roomID)).Result()
}

func (m *RedisMirror) Close() error {
	return m.client.Close()
}

func roomKey(roomID string) string {
	return "room:" + roomID + ":users"
}
