package store

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCreateRoomMakesCreatorParticipant(t *testing.T) {
	req := require.New(t)
	repo := NewRoomRepository(testDB(t))

	room, err := repo.CreateRoom("general", "the default room", "u1")
	req.NoError(err)
	req.Equal("u1", room.CreatedBy)
	req.True(room.HasParticipant("u1"))

	got, err := repo.GetRoom(room.ID)
	req.NoError(err)
	req.Equal(room.Name, got.Name)
}

func TestRoomsForFiltersByParticipation(t *testing.T) {
	req := require.New(t)
	repo := NewRoomRepository(testDB(t))

	r1, err := repo.CreateRoom("one", "", "u1")
	req.NoError(err)
	_, err = repo.CreateRoom("two", "", "u2")
	req.NoError(err)
	req.NoError(repo.AddParticipant(r1.ID, "u3"))

	rooms, err := repo.RoomsFor("u1")
	req.NoError(err)
	req.Len(rooms, 1)
	req.Equal("one", rooms[0].Name)

	rooms, err = repo.RoomsFor("u3")
	req.NoError(err)
	req.Len(rooms, 1)

	rooms, err = repo.RoomsFor("nobody")
	req.NoError(err)
	req.Empty(rooms)
}

func TestAddParticipantTwice(t *testing.T) {
	req := require.New(t)
	repo := NewRoomRepository(testDB(t))

	room, err := repo.CreateRoom("general", "", "u1")
	req.NoError(err)

	req.NoError(repo.AddParticipant(room.ID, "u2"))
	req.ErrorIs(repo.AddParticipant(room.ID, "u2"), ErrAlreadyParticipant)
	req.ErrorIs(repo.AddParticipant(room.ID, "u1"), ErrAlreadyParticipant)
}

func TestRemoveParticipant(t *testing.T) {
	req := require.New(t)
	repo := NewRoomRepository(testDB(t))

	room, err := repo.CreateRoom("general", "", "u1")
	req.NoError(err)
	req.NoError(repo.AddParticipant(room.ID, "u2"))

	req.NoError(repo.RemoveParticipant(room.ID, "u2"))
	req.ErrorIs(repo.RemoveParticipant(room.ID, "u2"), ErrNotParticipant)

	got, err := repo.GetRoom(room.ID)
	req.NoError(err)
	req.False(got.HasParticipant("u2"))
}

func TestRenameRoom(t *testing.T) {
	req := require.New(t)
	repo := NewRoomRepository(testDB(t))

	room, err := repo.CreateRoom("general", "", "u1")
	req.NoError(err)

	renamed, err := repo.Rename(room.ID, "announcements")
	req.NoError(err)
	req.Equal("announcements", renamed.Name)

	_, err = repo.Rename("missing", "x")
	req.ErrorIs(err, ErrNotFound)
}

func TestDeleteRoom(t *testing.T) {
	req := require.New(t)
	repo := NewRoomRepository(testDB(t))

	room, err := repo.CreateRoom("general", "", "u1")
	req.NoError(err)

	req.NoError(repo.DeleteRoom(room.ID))
	_, err = repo.GetRoom(room.ID)
	req.ErrorIs(err, ErrNotFound)
	req.ErrorIs(repo.DeleteRoom(room.ID), ErrNotFound)
}
