package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"pmchat/internal/auth"
	"pmchat/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDirectory struct {
	rooms    []models.Room
	messages []models.ChatMessage
	denied   bool
}

func (f *fakeDirectory) ListRooms(ctx context.Context, companyID, userID string) ([]models.Room, error) {
	return f.rooms, nil
}

func (f *fakeDirectory) MessageHistory(ctx context.Context, roomID string, limit int) ([]models.ChatMessage, error) {
	return f.messages, nil
}

func (f *fakeDirectory) RoomAccess(ctx context.Context, roomID, companyID, userID string) (models.Room, error) {
	if f.denied {
		return models.Room{}, models.ErrAccessDenied
	}
	return models.Room{RoomID: roomID, CompanyID: companyID}, nil
}

type fakeStatus struct {
	status models.RoomStatus
}

func (f *fakeStatus) RoomStatus(roomID string) models.RoomStatus {
	return f.status
}

func newTestAPI(dir *fakeDirectory, status *fakeStatus) (*API, string) {
	verifier := auth.NewVerifier("test-secret")
	token, _ := verifier.Sign(models.Principal{UserID: "u1", CompanyID: "c1"}, time.Hour)
	return New(verifier, status, dir, 100), token
}

func doRequest(a *API, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/rooms/{id}/messages", a.RequireAuth(a.RoomMessagesHandler))
	mux.HandleFunc("GET /api/rooms/{id}/users", a.RequireAuth(a.RoomUsersHandler))
	mux.HandleFunc("GET /api/rooms", a.RequireAuth(a.RoomsHandler))
	mux.ServeHTTP(rec, req)
	return rec
}

func TestRequireAuth(t *testing.T) {
	a, _ := newTestAPI(&fakeDirectory{}, &fakeStatus{})

	rec := doRequest(a, "/api/rooms", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doRequest(a, "/api/rooms", "garbage")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRoomsHandler(t *testing.T) {
	dir := &fakeDirectory{rooms: []models.Room{{RoomID: "r1", CompanyID: "c1", Name: "General"}}}
	a, token := newTestAPI(dir, &fakeStatus{})

	rec := doRequest(a, "/api/rooms", token)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Success bool          `json:"success"`
		Rooms   []models.Room `json:"rooms"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Success)
	require.Len(t, body.Rooms, 1)
	assert.Equal(t, "General", body.Rooms[0].Name)
}

func TestRoomMessagesHandler(t *testing.T) {
	dir := &fakeDirectory{messages: []models.ChatMessage{
		{MessageID: "m2", Message: "newer"},
		{MessageID: "m1", Message: "older"},
	}}
	a, token := newTestAPI(dir, &fakeStatus{})

	rec := doRequest(a, "/api/rooms/r1/messages", token)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Success  bool                 `json:"success"`
		Messages []models.ChatMessage `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Messages, 2)
	assert.Equal(t, "older", body.Messages[0].Message, "oldest first over REST too")
}

func TestRoomMessagesHandler_Denied(t *testing.T) {
	a, token := newTestAPI(&fakeDirectory{denied: true}, &fakeStatus{})

	rec := doRequest(a, "/api/rooms/r1/messages", token)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRoomUsersHandler(t *testing.T) {
	status := &fakeStatus{status: models.RoomStatus{ActiveUsers: []string{"u1", "u2"}, TypingUsers: []string{"u2"}}}
	a, token := newTestAPI(&fakeDirectory{}, status)

	rec := doRequest(a, "/api/rooms/r1/users", token)
	require.Equal(t, http.StatusOK, rec.Code)

	var body models.RoomStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, []string{"u1", "u2"}, body.ActiveUsers)
	assert.Equal(t, []string{"u2"}, body.TypingUsers)
}
