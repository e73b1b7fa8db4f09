// Package service holds the chat business rules: who may read or mutate
// which documents. The socket hub deliberately enforces none of this;
// every authorization decision lives here, behind the REST API.
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/parleychat/parley/src/auth"
	"github.com/parleychat/parley/src/cache"
	"github.com/parleychat/parley/src/store"
	"github.com/rs/zerolog"
)

var (
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrBlocked            = errors.New("conversation is blocked")
)

// Service wires the document repositories, the optional cache and the
// token manager into one API for the HTTP handlers.
type Service struct {
	users   store.UserRepository
	rooms   store.RoomRepository
	msgs    store.MessageRepository
	directs store.DirectMessageRepository
	friends store.FriendRepository
	blocks  store.BlockRepository

	cache  *cache.Cache
	tokens auth.TokenManager
	logger zerolog.Logger
}

// New builds a Service on top of an open badger database.
func New(db *badger.DB, c *cache.Cache, tokens auth.TokenManager, logger zerolog.Logger) *Service {
	return &Service{
		users:   store.NewUserRepository(db),
		rooms:   store.NewRoomRepository(db),
		msgs:    store.NewMessageRepository(db),
		directs: store.NewDirectMessageRepository(db),
		friends: store.NewFriendRepository(db),
		blocks:  store.NewBlockRepository(db),
		cache:   c,
		tokens:  tokens,
		logger:  logger.With().Str("component", "service").Logger(),
	}
}

func messagesCacheKey(roomID string) string { return "room-messages:" + roomID }

// --- accounts ---

// Register creates a user with an argon2id password hash.
func (s *Service) Register(username, email, password string) (store.User, error) {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return store.User{}, fmt.Errorf("hash password: %w", err)
	}
	u, err := s.users.CreateUser(username, email, hash)
	if err != nil {
		return store.User{}, err
	}
	s.logger.Info().Str("user_id", u.ID).Msg("user registered")
	return u, nil
}

// Login verifies credentials and issues a session token.
func (s *Service) Login(email, password string) (string, store.User, error) {
	u, err := s.users.GetByEmail(email)
	if errors.Is(err, store.ErrNotFound) {
		return "", store.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return "", store.User{}, err
	}

	ok, err := auth.VerifyPassword(password, u.PasswordHash)
	if err != nil {
		return "", store.User{}, err
	}
	if !ok {
		return "", store.User{}, ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(u.ID, u.Username)
	if err != nil {
		return "", store.User{}, fmt.Errorf("issue token: %w", err)
	}
	return token, u, nil
}

// VerifySession parses a session token, for the HTTP middleware and the
// hub's identity verifier.
func (s *Service) VerifySession(token string) (*auth.SessionClaims, error) {
	return s.tokens.Verify(token)
}

func (s *Service) ListUsers() ([]store.User, error) {
	return s.users.ListUsers()
}

func (s *Service) FindUserByEmail(email string) (store.User, error) {
	return s.users.GetByEmail(email)
}

func (s *Service) GetUser(id string) (store.User, error) {
	return s.users.GetByID(id)
}

// --- rooms ---

func (s *Service) CreateRoom(name, description, creatorID string) (store.Room, error) {
	return s.rooms.CreateRoom(name, description, creatorID)
}

func (s *Service) RoomsFor(userID string) ([]store.Room, error) {
	return s.rooms.RoomsFor(userID)
}

// RenameRoom renames a room; only the creator may do this.
func (s *Service) RenameRoom(roomID, callerID, name string) (store.Room, error) {
	if err := s.requireCreator(roomID, callerID); err != nil {
		return store.Room{}, err
	}
	return s.rooms.Rename(roomID, name)
}

// DeleteRoom removes the room and its message history; creator only.
func (s *Service) DeleteRoom(ctx context.Context, roomID, callerID string) error {
	if err := s.requireCreator(roomID, callerID); err != nil {
		return err
	}
	if err := s.rooms.DeleteRoom(roomID); err != nil {
		return err
	}
	if err := s.msgs.DeleteRoomMessages(roomID); err != nil {
		return fmt.Errorf("delete room messages: %w", err)
	}
	s.cache.Invalidate(ctx, messagesCacheKey(roomID))
	return nil
}

// InviteToRoom adds the user registered under email to the room.
func (s *Service) InviteToRoom(roomID, email string) error {
	invited, err := s.users.GetByEmail(email)
	if err != nil {
		return err
	}
	return s.rooms.AddParticipant(roomID, invited.ID)
}

func (s *Service) LeaveRoom(roomID, userID string) error {
	return s.rooms.RemoveParticipant(roomID, userID)
}

// RemoveParticipant kicks a participant; only the room creator may.
func (s *Service) RemoveParticipant(roomID, callerID, participantID string) error {
	if err := s.requireCreator(roomID, callerID); err != nil {
		return err
	}
	return s.rooms.RemoveParticipant(roomID, participantID)
}

func (s *Service) requireCreator(roomID, callerID string) error {
	room, err := s.rooms.GetRoom(roomID)
	if err != nil {
		return err
	}
	if room.CreatedBy != callerID {
		return ErrForbidden
	}
	return nil
}

func (s *Service) requireParticipant(roomID, callerID string) error {
	room, err := s.rooms.GetRoom(roomID)
	if err != nil {
		return err
	}
	if !room.HasParticipant(callerID) {
		return ErrForbidden
	}
	return nil
}

// --- room messages ---

// RoomMessages returns a room's history, read through the cache when one
// is configured. Only participants may read.
func (s *Service) RoomMessages(ctx context.Context, roomID, callerID string) ([]store.Message, error) {
	if err := s.requireParticipant(roomID, callerID); err != nil {
		return nil, err
	}

	var messages []store.Message
	if s.cache.Get(ctx, messagesCacheKey(roomID), &messages) {
		return messages, nil
	}

	messages, err := s.msgs.RoomMessages(roomID)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, messagesCacheKey(roomID), messages); err != nil {
		s.logger.Warn().Err(err).Str("room_id", roomID).Msg("cache fill failed")
	}
	return messages, nil
}

// PostMessage persists a room message and invalidates the cached history.
// The live cue to other clients travels over the socket layer, emitted by
// the sending client itself; persistence here is the durable half.
func (s *Service) PostMessage(ctx context.Context, roomID, callerID, content, msgType string) (store.Message, error) {
	if err := s.requireParticipant(roomID, callerID); err != nil {
		return store.Message{}, err
	}

	senderID := callerID
	if msgType == store.MessageTypeSystem {
		senderID = ""
	}
	m, err := s.msgs.StoreMessage(roomID, senderID, content, msgType)
	if err != nil {
		return store.Message{}, err
	}
	s.cache.Invalidate(ctx, messagesCacheKey(roomID))
	return m, nil
}

// --- direct messages ---

// SendDirectMessage stores a direct message unless either side has
// blocked the other.
func (s *Service) SendDirectMessage(senderID, receiverID, content string) (store.DirectMessage, error) {
	blocked, err := s.eitherBlocked(senderID, receiverID)
	if err != nil {
		return store.DirectMessage{}, err
	}
	if blocked {
		return store.DirectMessage{}, ErrBlocked
	}
	return s.directs.StoreDirectMessage(senderID, receiverID, content)
}

func (s *Service) Conversation(userID, otherID string) ([]store.DirectMessage, error) {
	return s.directs.Conversation(userID, otherID)
}

// MarkConversationRead flags everything the other user sent to the caller
// as read.
func (s *Service) MarkConversationRead(callerID, otherID string) error {
	return s.directs.MarkConversationRead(otherID, callerID)
}

func (s *Service) UnreadCounts(userID string) (map[string]int, error) {
	return s.directs.UnreadCounts(userID)
}

// --- direct chats (friendships) ---

// CreateDirectChat opens a bidirectional, auto-accepted friendship.
// Opening the same chat twice returns the existing friendship.
func (s *Service) CreateDirectChat(userID, targetID string) (store.Friend, bool, error) {
	if _, err := s.users.GetByID(targetID); err != nil {
		return store.Friend{}, false, err
	}
	return s.friends.CreateFriendship(userID, targetID)
}

func (s *Service) DirectChats(userID string) ([]store.Friend, error) {
	return s.friends.FriendsOf(userID)
}

// --- blocks ---

func (s *Service) BlockUser(userID, blockedID string) (store.Block, error) {
	return s.blocks.CreateBlock(userID, blockedID)
}

func (s *Service) UnblockUser(userID, blockedID string) error {
	return s.blocks.DeleteBlock(userID, blockedID)
}

func (s *Service) BlocksOf(userID string) ([]store.Block, error) {
	return s.blocks.BlocksOf(userID)
}

// BlockStatus reports the block relation in both directions.
func (s *Service) BlockStatus(userID, otherID string) (isBlocked, isBlockedBy bool, err error) {
	isBlocked, err = s.blocks.IsBlocked(userID, otherID)
	if err != nil {
		return false, false, err
	}
	isBlockedBy, err = s.blocks.IsBlocked(otherID, userID)
	return isBlocked, isBlockedBy, err
}

func (s *Service) eitherBlocked(a, b string) (bool, error) {
	blocked, blockedBy, err := s.BlockStatus(a, b)
	if err != nil {
		return false, err
	}
	return blocked || blockedBy, nil
}
