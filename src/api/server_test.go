package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/parleychat/parley/src/auth"
	"github.com/parleychat/parley/src/hub"
	"github.com/parleychat/parley/src/service"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).
		WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	tokens := auth.NewTokenManager("test-secret", time.Hour)
	svc := service.New(db, nil, tokens, zerolog.Nop())
	return New(svc, hub.New(zerolog.Nop()), zerolog.Nop())
}

// do issues a JSON request against the fiber app and decodes the response
// body into a generic map.
func do(t *testing.T, s *Server, method, path, token string, body any) (int, map[string]any) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.App().Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		decoded = nil
	}
	return resp.StatusCode, decoded
}

// doList is do for endpoints that respond with a JSON array.
func doList(t *testing.T, s *Server, method, path, token string) (int, []map[string]any) {
	t.Helper()

	req := httptest.NewRequest(method, path, nil)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := s.App().Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded []map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp.StatusCode, decoded
}

// signUp registers a user and returns the session token and user id.
func signUp(t *testing.T, s *Server, name, email string) (token, userID string) {
	t.Helper()

	status, _ := do(t, s, http.MethodPost, "/api/register", "", map[string]string{
		"name": name, "email": email, "password": "p4ssw0rd!",
	})
	require.Equal(t, http.StatusCreated, status)

	status, body := do(t, s, http.MethodPost, "/api/login", "", map[string]string{
		"email": email, "password": "p4ssw0rd!",
	})
	require.Equal(t, http.StatusOK, status)

	token, _ = body["token"].(string)
	require.NotEmpty(t, token)
	user, _ := body["user"].(map[string]any)
	userID, _ = user["id"].(string)
	require.NotEmpty(t, userID)
	return token, userID
}

func TestRegisterValidation(t *testing.T) {
	req := require.New(t)
	s := newTestServer(t)

	status, _ := do(t, s, http.MethodPost, "/api/register", "", map[string]string{
		"name": "alice", "email": "not-an-email", "password": "p4ssw0rd!",
	})
	req.Equal(http.StatusBadRequest, status)

	status, _ = do(t, s, http.MethodPost, "/api/register", "", map[string]string{
		"name": "alice", "email": "alice@example.com", "password": "short",
	})
	req.Equal(http.StatusBadRequest, status)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	req := require.New(t)
	s := newTestServer(t)
	signUp(t, s, "alice", "alice@example.com")

	status, _ := do(t, s, http.MethodPost, "/api/register", "", map[string]string{
		"name": "alice2", "email": "alice@example.com", "password": "p4ssw0rd!",
	})
	req.Equal(http.StatusBadRequest, status)
}

func TestLoginBadPassword(t *testing.T) {
	req := require.New(t)
	s := newTestServer(t)
	signUp(t, s, "alice", "alice@example.com")

	status, _ := do(t, s, http.MethodPost, "/api/login", "", map[string]string{
		"email": "alice@example.com", "password": "wrong-password",
	})
	req.Equal(http.StatusUnauthorized, status)
}

func TestAuthedRoutesRejectMissingOrBadToken(t *testing.T) {
	req := require.New(t)
	s := newTestServer(t)

	status, _ := do(t, s, http.MethodGet, "/api/rooms", "", nil)
	req.Equal(http.StatusUnauthorized, status)

	status, _ = do(t, s, http.MethodGet, "/api/rooms", "not-a-token", nil)
	req.Equal(http.StatusUnauthorized, status)
}

func TestRoomLifecycle(t *testing.T) {
	req := require.New(t)
	s := newTestServer(t)
	aliceTok, _ := signUp(t, s, "alice", "alice@example.com")
	bobTok, _ := signUp(t, s, "bob", "bob@example.com")

	status, room := do(t, s, http.MethodPost, "/api/rooms", aliceTok, map[string]string{
		"name": "general", "description": "town square",
	})
	req.Equal(http.StatusCreated, status)
	roomID, _ := room["id"].(string)
	req.NotEmpty(roomID)

	// Bob sees no rooms until invited.
	status, rooms := doList(t, s, http.MethodGet, "/api/rooms", bobTok)
	req.Equal(http.StatusOK, status)
	req.Empty(rooms)

	status, _ = do(t, s, http.MethodPost, "/api/rooms/"+roomID+"/invite", aliceTok,
		map[string]string{"email": "bob@example.com"})
	req.Equal(http.StatusOK, status)

	status, rooms = doList(t, s, http.MethodGet, "/api/rooms", bobTok)
	req.Equal(http.StatusOK, status)
	req.Len(rooms, 1)

	// Re-inviting is a client error, not a silent success.
	status, _ = do(t, s, http.MethodPost, "/api/rooms/"+roomID+"/invite", aliceTok,
		map[string]string{"email": "bob@example.com"})
	req.Equal(http.StatusBadRequest, status)

	// Only the creator may rename or delete.
	status, _ = do(t, s, http.MethodPatch, "/api/rooms/"+roomID, bobTok,
		map[string]string{"name": "bob's room"})
	req.Equal(http.StatusForbidden, status)

	status, renamed := do(t, s, http.MethodPatch, "/api/rooms/"+roomID, aliceTok,
		map[string]string{"name": "announcements"})
	req.Equal(http.StatusOK, status)
	req.Equal("announcements", renamed["name"])

	status, _ = do(t, s, http.MethodPost, "/api/rooms/"+roomID+"/leave", bobTok, nil)
	req.Equal(http.StatusOK, status)

	// Leaving twice means the caller is no longer a participant.
	status, _ = do(t, s, http.MethodPost, "/api/rooms/"+roomID+"/leave", bobTok, nil)
	req.Equal(http.StatusForbidden, status)

	status, _ = do(t, s, http.MethodDelete, "/api/rooms/"+roomID, aliceTok, nil)
	req.Equal(http.StatusOK, status)

	status, _ = do(t, s, http.MethodGet, "/api/rooms/"+roomID+"/messages", aliceTok, nil)
	req.Equal(http.StatusNotFound, status)
}

func TestRoomMessages(t *testing.T) {
	req := require.New(t)
	s := newTestServer(t)
	aliceTok, _ := signUp(t, s, "alice", "alice@example.com")
	malloryTok, _ := signUp(t, s, "mallory", "mallory@example.com")

	_, room := do(t, s, http.MethodPost, "/api/rooms", aliceTok,
		map[string]string{"name": "general"})
	roomID, _ := room["id"].(string)

	status, posted := do(t, s, http.MethodPost, "/api/rooms/"+roomID+"/messages",
		aliceTok, map[string]string{"content": "hello"})
	req.Equal(http.StatusCreated, status)
	req.Equal("user", posted["type"])

	// Rejected type values fail validation.
	status, _ = do(t, s, http.MethodPost, "/api/rooms/"+roomID+"/messages",
		aliceTok, map[string]string{"content": "x", "type": "broadcast"})
	req.Equal(http.StatusBadRequest, status)

	// Non-participants may neither read nor write.
	status, _ = do(t, s, http.MethodPost, "/api/rooms/"+roomID+"/messages",
		malloryTok, map[string]string{"content": "intruding"})
	req.Equal(http.StatusForbidden, status)
	status, _ = do(t, s, http.MethodGet, "/api/rooms/"+roomID+"/messages",
		malloryTok, nil)
	req.Equal(http.StatusForbidden, status)

	status, messages := doList(t, s, http.MethodGet, "/api/rooms/"+roomID+"/messages", aliceTok)
	req.Equal(http.StatusOK, status)
	req.Len(messages, 1)
	req.Equal("hello", messages[0]["content"])
}

func TestDirectMessageFlow(t *testing.T) {
	req := require.New(t)
	s := newTestServer(t)
	aliceTok, aliceID := signUp(t, s, "alice", "alice@example.com")
	bobTok, bobID := signUp(t, s, "bob", "bob@example.com")

	status, _ := do(t, s, http.MethodPost, "/api/direct-messages", aliceTok,
		map[string]string{"receiverId": bobID, "content": "hi bob"})
	req.Equal(http.StatusCreated, status)

	status, counts := do(t, s, http.MethodGet, "/api/direct-messages/unread", bobTok, nil)
	req.Equal(http.StatusOK, status)
	req.Equal(float64(1), counts[aliceID])

	status, conversation := doList(t, s,
		http.MethodGet, "/api/direct-messages/"+aliceID, bobTok)
	req.Equal(http.StatusOK, status)
	req.Len(conversation, 1)
	req.Equal("hi bob", conversation[0]["content"])

	status, _ = do(t, s, http.MethodPost, "/api/direct-messages/"+aliceID+"/read", bobTok, nil)
	req.Equal(http.StatusOK, status)

	status, counts = do(t, s, http.MethodGet, "/api/direct-messages/unread", bobTok, nil)
	req.Equal(http.StatusOK, status)
	req.Empty(counts)
}

func TestDirectChats(t *testing.T) {
	req := require.New(t)
	s := newTestServer(t)
	aliceTok, _ := signUp(t, s, "alice", "alice@example.com")
	bobTok, bobID := signUp(t, s, "bob", "bob@example.com")

	status, _ := do(t, s, http.MethodPost, "/api/direct-chats", aliceTok,
		map[string]string{"userId": bobID})
	req.Equal(http.StatusCreated, status)

	// Opening the same chat again is a 200, not a duplicate.
	status, _ = do(t, s, http.MethodPost, "/api/direct-chats", aliceTok,
		map[string]string{"userId": bobID})
	req.Equal(http.StatusOK, status)

	status, _ = do(t, s, http.MethodPost, "/api/direct-chats", aliceTok,
		map[string]string{"userId": "no-such-user"})
	req.Equal(http.StatusNotFound, status)

	status, chats := doList(t, s, http.MethodGet, "/api/direct-chats", bobTok)
	req.Equal(http.StatusOK, status)
	req.Len(chats, 1)
}

func TestBlocksStopDirectMessages(t *testing.T) {
	req := require.New(t)
	s := newTestServer(t)
	aliceTok, aliceID := signUp(t, s, "alice", "alice@example.com")
	bobTok, bobID := signUp(t, s, "bob", "bob@example.com")

	status, _ := do(t, s, http.MethodPost, "/api/blocks", bobTok,
		map[string]string{"blockedUserId": aliceID})
	req.Equal(http.StatusCreated, status)

	status, _ = do(t, s, http.MethodPost, "/api/direct-messages", aliceTok,
		map[string]string{"receiverId": bobID, "content": "hello?"})
	req.Equal(http.StatusForbidden, status)

	status, blockStatus := do(t, s, http.MethodGet, "/api/blocks/"+bobID, aliceTok, nil)
	req.Equal(http.StatusOK, status)
	req.Equal(false, blockStatus["isBlocked"])
	req.Equal(true, blockStatus["isBlockedBy"])

	status, _ = do(t, s, http.MethodDelete, "/api/blocks/"+aliceID, bobTok, nil)
	req.Equal(http.StatusOK, status)

	status, _ = do(t, s, http.MethodPost, "/api/direct-messages", aliceTok,
		map[string]string{"receiverId": bobID, "content": "hello again"})
	req.Equal(http.StatusCreated, status)
}

func TestUserDirectory(t *testing.T) {
	req := require.New(t)
	s := newTestServer(t)
	aliceTok, _ := signUp(t, s, "alice", "alice@example.com")
	signUp(t, s, "bob", "bob@example.com")

	status, users := doList(t, s, http.MethodGet, "/api/users", aliceTok)
	req.Equal(http.StatusOK, status)
	req.Len(users, 2)
	for _, u := range users {
		req.NotContains(u, "passwordHash")
	}

	status, found := do(t, s, http.MethodPost, "/api/user/find", aliceTok,
		map[string]string{"email": "bob@example.com"})
	req.Equal(http.StatusOK, status)
	req.Equal("bob", found["username"])

	status, _ = do(t, s, http.MethodPost, "/api/user/find", aliceTok,
		map[string]string{"email": "nobody@example.com"})
	req.Equal(http.StatusNotFound, status)
}

func TestSocketInfo(t *testing.T) {
	req := require.New(t)
	s := newTestServer(t)

	status, info := do(t, s, http.MethodGet, "/ws/info", "", nil)
	req.Equal(http.StatusOK, status)
	req.Equal(true, info["websocket"])
	req.Equal("/ws", info["endpoint"])
	req.Equal(float64(0), info["clients"])
}

func TestSocketRouteRequiresUpgrade(t *testing.T) {
	req := require.New(t)
	s := newTestServer(t)

	status, _ := do(t, s, http.MethodGet, "/ws", "", nil)
	req.Equal(http.StatusUpgradeRequired, status)
}
