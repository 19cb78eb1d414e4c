package store

import (
	"encoding"
	"encoding/binary"

	"github.com/vmihailenco/msgpack/v5"
)

type Storeable interface {
	Key() []byte
	encoding.BinaryMarshaler
	encoding.BinaryUnmarshaler
}

type DBRoom struct {
	RoomID    string `msgpack:"roomId"`
	CompanyID string `msgpack:"companyId"`
	ProjectID string `msgpack:"projectId"`
	Name      string `msgpack:"name"`
	IsPrivate bool   `msgpack:"isPrivate"`
}

func (r *DBRoom) Key() []byte {
	return []byte(r.RoomID)
}

func (r *DBRoom) MarshalBinary() (data []byte, err error) {
	type alias DBRoom
	return msgpack.Marshal((*alias)(r))
}

func (r *DBRoom) UnmarshalBinary(data []byte) error {
	type alias DBRoom
	return msgpack.Unmarshal(data, (*alias)(r))
}

type DBUser struct {
	ID        string `msgpack:"id"`
	Name      string `msgpack:"name"`
	AvatarURL string `msgpack:"avatarUrl"`
}

func (u *DBUser) Key() []byte {
	return []byte(u.ID)
}

func (u *DBUser) MarshalBinary() (data []byte, err error) {
	type alias DBUser
	return msgpack.Marshal((*alias)(u))
}

func (u *DBUser) UnmarshalBinary(data []byte) error {
	type alias DBUser
	return msgpack.Unmarshal(data, (*alias)(u))
}

type DBMessage struct {
	Seq       uint64 `msgpack:"seq"`
	MessageID string `msgpack:"messageId"`
	RoomID    string `msgpack:"roomId"`
	UserID    string `msgpack:"userId"`
	Content   string `msgpack:"content"`
	IsBot     bool   `msgpack:"isBot"`
	CreatedAt int64  `msgpack:"createdAt"` // Unix timestamp (seconds)
}

func (m *DBMessage) Key() []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, m.Seq)
	return key
}

func (m *DBMessage) MarshalBinary() (data []byte, err error) {
	type alias DBMessage
	return msgpack.Marshal((*alias)(m))
}

func (m *DBMessage) UnmarshalBinary(data []byte) error {
	type alias DBMessage
	return msgpack.Unmarshal(data, (*alias)(m))
}

type DBActivity struct {
	Seq       uint64 `msgpack:"seq"`
	UserID    string `msgpack:"userId"`
	Action    string `msgpack:"action"`
	ProjectID string `msgpack:"projectId"`
	Timestamp int64  `msgpack:"timestamp"` // Unix timestamp (seconds)
}

func (a *DBActivity) Key() []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, a.Seq)
	return key
}

func (a *DBActivity) MarshalBinary() (data []byte, err error) {
	type alias DBActivity
	return msgpack.Marshal((*alias)(a))
}

func (a *DBActivity) UnmarshalBinary(data []byte) error {
	type alias DBActivity
	return msgpack.Unmarshal(data, (*alias)(a))
}
