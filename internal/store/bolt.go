package store

import (
	"context"
	"fmt"
	"time"

	"pmchat/internal/models"

	"github.com/google/uuid"
	"go.etcd.io/bbolt"
)

var (
	bucketRooms    = []byte("rooms")
	bucketMembers  = []byte("members")
	bucketUsers    = []byte("users")
	bucketMessages = []byte("messages")
	bucketActivity = []byte("activity")
)

const actionSentMessage = "sent_message"

// BoltStore is the bbolt-backed implementation of Store. Messages live in
// a per-room sub-bucket keyed by big-endian sequence number, so the most
// recent N messages are a reverse cursor scan.
type BoltStore struct {
	db  *bbolt.DB
	now func() time.Time
}

func NewBoltStore(path string) (*BoltStore, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bbolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{bucketRooms, bucketMembers, bucketUsers, bucketMessages, bucketActivity} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create buckets: %w", err)
	}

	return &BoltStore{db: db, now: time.Now}, nil
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}

func (s *BoltStore) RoomAccess(ctx context.Context, roomID, companyID, userID string) (models.Room, error) {
	if err := ctx.Err(); err != nil {
		return models.Room{}, err
	}

	var room models.Room
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketRooms).Get([]byte(roomID))
		if data == nil {
			return models.ErrAccessDenied
		}

		var dbRoom DBRoom
		if err := dbRoom.UnmarshalBinary(data); err != nil {
			return fmt.Errorf("failed to unmarshal room %s: %w", roomID, err)
		}

		// A room outside the caller's company looks the same as a room
		// that does not exist.
		if dbRoom.CompanyID != companyID {
			return models.ErrAccessDenied
		}

		if dbRoom.IsPrivate {
			members := tx.Bucket(bucketMembers).Bucket([]byte(roomID))
			if members == nil || members.Get([]byte(userID)) == nil {
				return models.ErrAccessDenied
			}
		}

		room = models.Room{
			RoomID:    dbRoom.RoomID,
			CompanyID: dbRoom.CompanyID,
			ProjectID: dbRoom.ProjectID,
			Name:      dbRoom.Name,
			IsPrivate: dbRoom.IsPrivate,
		}
		return nil
	})
	return room, err
}

func (s *BoltStore) MessageHistory(ctx context.Context, roomID string, limit int) ([]models.ChatMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var messages []models.ChatMessage
	err := s.db.View(func(tx *bbolt.Tx) error {
		roomBucket := tx.Bucket(bucketMessages).Bucket([]byte(roomID))
		if roomBucket == nil {
			return nil // no messages yet
		}

		users := tx.Bucket(bucketUsers)

		c := roomBucket.Cursor()
		for k, v := c.Last(); k != nil && len(messages) < limit; k, v = c.Prev() {
			var dbMsg DBMessage
			if err := dbMsg.UnmarshalBinary(v); err != nil {
				return fmt.Errorf("failed to unmarshal message: %w", err)
			}
			messages = append(messages, chatMessage(dbMsg, users))
		}
		return nil
	})
	return messages, err
}

// chatMessage joins a stored message with its sender's display info.
func chatMessage(dbMsg DBMessage, users *bbolt.Bucket) models.ChatMessage {
	msg := models.ChatMessage{
		MessageID:      dbMsg.MessageID,
		UserID:         dbMsg.UserID,
		Message:        dbMsg.Content,
		IsBot:          dbMsg.IsBot,
		RoomID:         dbMsg.RoomID,
		ConversationID: dbMsg.RoomID,
		CreatedAt:      time.Unix(dbMsg.CreatedAt, 0).UTC(),
		SenderID:       dbMsg.UserID,
	}

	if dbMsg.UserID == "" {
		return msg
	}

	msg.SenderName = "Unknown User"
	if data := users.Get([]byte(dbMsg.UserID)); data != nil {
		var dbUser DBUser
		if err := dbUser.UnmarshalBinary(data); err == nil {
			msg.SenderName = dbUser.Name
			msg.SenderAvatar = dbUser.AvatarURL
		}
	}
	return msg
}

func (s *BoltStore) SaveMessage(ctx context.Context, roomID, userID, content string, isBot bool) (models.Message, error) {
	if err := ctx.Err(); err != nil {
		return models.Message{}, err
	}

	dbMsg := DBMessage{
		MessageID: uuid.NewString(),
		RoomID:    roomID,
		UserID:    userID,
		Content:   content,
		IsBot:     isBot,
		CreatedAt: s.now().Unix(),
	}

	err := s.db.Update(func(tx *bbolt.Tx) error {
		roomBucket, err := tx.Bucket(bucketMessages).CreateBucketIfNotExists([]byte(roomID))
		if err != nil {
			return fmt.Errorf("failed to create room bucket: %w", err)
		}

		dbMsg.Seq, err = roomBucket.NextSequence()
		if err != nil {
			return err
		}

		data, err := dbMsg.MarshalBinary()
		if err != nil {
			return fmt.Errorf("failed to marshal message: %w", err)
		}
		return roomBucket.Put(dbMsg.Key(), data)
	})
	if err != nil {
		return models.Message{}, err
	}

	return models.Message{
		MessageID: dbMsg.MessageID,
		RoomID:    dbMsg.RoomID,
		UserID:    dbMsg.UserID,
		Content:   dbMsg.Content,
		IsBot:     dbMsg.IsBot,
		CreatedAt: time.Unix(dbMsg.CreatedAt, 0).UTC(),
	}, nil
}

func (s *BoltStore) SenderProfile(ctx context.Context, userID string) (models.SenderProfile, error) {
	if err := ctx.Err(); err != nil {
		return models.SenderProfile{}, err
	}

	var profile models.SenderProfile
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketUsers).Get([]byte(userID))
		if data == nil {
			return models.ErrNotFound
		}

		var dbUser DBUser
		if err := dbUser.UnmarshalBinary(data); err != nil {
			return fmt.Errorf("failed to unmarshal user %s: %w", userID, err)
		}
		profile = models.SenderProfile{Name: dbUser.Name, Avatar: dbUser.AvatarURL}
		return nil
	})
	return profile, err
}

func (s *BoltStore) LogActivity(ctx context.Context, userID, roomID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketRooms).Get([]byte(roomID))
		if data == nil {
			return nil
		}

		var dbRoom DBRoom
		if err := dbRoom.UnmarshalBinary(data); err != nil {
			return fmt.Errorf("failed to unmarshal room %s: %w", roomID, err)
		}

		// Activity is only tracked for rooms tied to a project.
		if dbRoom.ProjectID == "" {
			return nil
		}

		b := tx.Bucket(bucketActivity)
		seq, err := b.NextSequence()
		if err != nil {
			return err
		}

		entry := DBActivity{
			Seq:       seq,
			UserID:    userID,
			Action:    actionSentMessage,
			ProjectID: dbRoom.ProjectID,
			Timestamp: s.now().Unix(),
		}
		out, err := entry.MarshalBinary()
		if err != nil {
			return err
		}
		return b.Put(entry.Key(), out)
	})
}

// UpsertRoom provisions or updates a room. Room creation belongs to the
// wider platform; this exists for bootstrap tooling and tests.
func (s *BoltStore) UpsertRoom(room models.Room) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		dbRoom := DBRoom{
			RoomID:    room.RoomID,
			CompanyID: room.CompanyID,
			ProjectID: room.ProjectID,
			Name:      room.Name,
			IsPrivate: room.IsPrivate,
		}
		data, err := dbRoom.MarshalBinary()
		if err != nil {
			return err
		}
		return tx.Bucket(bucketRooms).Put(dbRoom.Key(), data)
	})
}

// AddMember grants a user explicit membership of a room.
func (s *BoltStore) AddMember(roomID, userID string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b, err := tx.Bucket(bucketMembers).CreateBucketIfNotExists([]byte(roomID))
		if err != nil {
			return err
		}
		return b.Put([]byte(userID), []byte{1})
	})
}

// UpsertUser stores a user's display profile.
func (s *BoltStore) UpsertUser(id, name, avatarURL string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		dbUser := DBUser{ID: id, Name: name, AvatarURL: avatarURL}
		data, err := dbUser.MarshalBinary()
		if err != nil {
			return err
		}
		return tx.Bucket(bucketUsers).Put(dbUser.Key(), data)
	})
}

// ListRooms returns the rooms a user can see: all public rooms of their
// company plus the private ones they are a member of.
func (s *BoltStore) ListRooms(ctx context.Context, companyID, userID string) ([]models.Room, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var rooms []models.Room
	err := s.db.View(func(tx *bbolt.Tx) error {
		members := tx.Bucket(bucketMembers)
		return tx.Bucket(bucketRooms).ForEach(func(k, v []byte) error {
			var dbRoom DBRoom
			if err := dbRoom.UnmarshalBinary(v); err != nil {
				return err
			}
			if dbRoom.CompanyID != companyID {
				return nil
			}
			if dbRoom.IsPrivate {
				mb := members.Bucket([]byte(dbRoom.RoomID))
				if mb == nil || mb.Get([]byte(userID)) == nil {
					return nil
				}
			}
			rooms = append(rooms, models.Room{
				RoomID:    dbRoom.RoomID,
				CompanyID: dbRoom.CompanyID,
				ProjectID: dbRoom.ProjectID,
				Name:      dbRoom.Name,
				IsPrivate: dbRoom.IsPrivate,
			})
			return nil
		})
	})
	return rooms, err
}

// ListActivity returns all recorded activity entries, oldest-first.
func (s *BoltStore) ListActivity() ([]DBActivity, error) {
	var entries []DBActivity
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketActivity).ForEach(func(k, v []byte) error {
			var entry DBActivity
			if err := entry.UnmarshalBinary(v); err != nil {
				return err
			}
			entries = append(entries, entry)
			return nil
		})
	})
	return entries, err
}
