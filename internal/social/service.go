package social

import (
	"errors"

	"github.com/Dima4663737373/linera-skribble/logger"
)

// RoomDirectory is the live-room view the invitation flows need. The room
// manager satisfies it.
type RoomDirectory interface {
	RoomExists(roomID string) bool
	InRoom(roomID, playerID string) bool
}

// Service owns the friend and invitation flows. rooms answers whether a room
// id still exists and who is in it, so sending an invite from a room the
// caller is not in, or accepting a stale invitation, fails cleanly.
type Service struct {
	repo  Repository
	rooms RoomDirectory
}

func NewService(repo Repository, rooms RoomDirectory) *Service {
	if rooms == nil {
		rooms = noRooms{}
	}
	return &Service{repo: repo, rooms: rooms}
}

type noRooms struct{}

func (noRooms) RoomExists(string) bool     { return false }
func (noRooms) InRoom(string, string) bool { return false }

// SendFriendRequest creates a pending request. Re-sending an identical
// pending request returns the existing one. A pending request in the
// opposite direction is treated as mutual interest and accepted directly.
func (s *Service) SendFriendRequest(fromID, fromName, toID string) (*FriendRequest, error) {
	if fromID == toID {
		return nil, ErrSelfRequest
	}
	friends, err := s.repo.AreFriends(fromID, toID)
	if err != nil {
		return nil, err
	}
	if friends {
		return nil, ErrAlreadyFriends
	}

	if existing, err := s.repo.PendingFriendRequest(fromID, toID); err == nil {
		return existing, nil
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	if reverse, err := s.repo.PendingFriendRequest(toID, fromID); err == nil {
		if err := s.befriend(fromID, fromName, toID, reverse.FromName); err != nil {
			return nil, err
		}
		if err := s.repo.DeleteFriendRequest(reverse.ID); err != nil {
			return nil, err
		}
		return reverse, nil
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	req := &FriendRequest{FromID: fromID, FromName: fromName, ToID: toID}
	if err := s.repo.SaveFriendRequest(req); err != nil {
		return nil, err
	}
	return req, nil
}

func (s *Service) AcceptFriendRequest(playerID, playerName string, reqID uint) error {
	req, err := s.repo.FriendRequestByID(reqID)
	if err != nil {
		return err
	}
	if req.ToID != playerID {
		return ErrNotAddressee
	}
	if err := s.befriend(req.FromID, req.FromName, playerID, playerName); err != nil {
		return err
	}
	return s.repo.DeleteFriendRequest(req.ID)
}

func (s *Service) befriend(aID, aName, bID, bName string) error {
	return s.repo.SaveFriendship(
		&Friendship{PlayerID: aID, FriendID: bID, FriendName: bName},
		&Friendship{PlayerID: bID, FriendID: aID, FriendName: aName},
	)
}

func (s *Service) DeclineFriendRequest(playerID string, reqID uint) error {
	req, err := s.repo.FriendRequestByID(reqID)
	if err != nil {
		return err
	}
	if req.ToID != playerID {
		return ErrNotAddressee
	}
	return s.repo.DeleteFriendRequest(req.ID)
}

func (s *Service) FriendRequests(playerID string) (received, sent []FriendRequest, err error) {
	received, err = s.repo.FriendRequestsReceived(playerID)
	if err != nil {
		return nil, nil, err
	}
	sent, err = s.repo.FriendRequestsSent(playerID)
	if err != nil {
		return nil, nil, err
	}
	return received, sent, nil
}

func (s *Service) Friends(playerID string) ([]Friendship, error) {
	return s.repo.Friends(playerID)
}

func (s *Service) RemoveFriend(playerID, friendID string) error {
	friends, err := s.repo.AreFriends(playerID, friendID)
	if err != nil {
		return err
	}
	if !friends {
		return ErrNotFriends
	}
	return s.repo.DeleteFriendship(playerID, friendID)
}

// SendInvitation invites a friend into the sender's room. Only friends can
// be invited, and only into a room the sender is actually in; a duplicate
// pending invite is returned as-is.
func (s *Service) SendInvitation(fromID, fromName, toID, roomID string) (*Invitation, error) {
	if fromID == toID {
		return nil, ErrSelfRequest
	}
	friends, err := s.repo.AreFriends(fromID, toID)
	if err != nil {
		return nil, err
	}
	if !friends {
		return nil, ErrNotFriends
	}
	if !s.rooms.RoomExists(roomID) {
		return nil, ErrRoomGone
	}
	if !s.rooms.InRoom(roomID, fromID) {
		return nil, ErrNotInRoom
	}

	if existing, err := s.repo.PendingInvitation(fromID, toID, roomID); err == nil {
		return existing, nil
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	inv := &Invitation{RoomID: roomID, FromID: fromID, FromName: fromName, ToID: toID}
	if err := s.repo.SaveInvitation(inv); err != nil {
		return nil, err
	}
	return inv, nil
}

func (s *Service) Invitations(playerID string) ([]Invitation, error) {
	return s.repo.InvitationsFor(playerID)
}

func (s *Service) SentInvitations(playerID string) ([]Invitation, error) {
	return s.repo.InvitationsFrom(playerID)
}

// AcceptInvitation resolves the invite to a joinable room id. An invite to
// a room that has since died is deleted and reported as gone.
func (s *Service) AcceptInvitation(playerID string, invID uint) (string, error) {
	inv, err := s.repo.InvitationByID(invID)
	if err != nil {
		return "", err
	}
	if inv.ToID != playerID {
		return "", ErrNotAddressee
	}
	if !s.rooms.RoomExists(inv.RoomID) {
		if err := s.repo.DeleteInvitation(inv.ID); err != nil {
			logger.Warn("social: deleting stale invitation %d: %v", inv.ID, err)
		}
		return "", ErrRoomGone
	}
	if err := s.repo.DeleteInvitation(inv.ID); err != nil {
		return "", err
	}
	return inv.RoomID, nil
}

func (s *Service) DeclineInvitation(playerID string, invID uint) error {
	inv, err := s.repo.InvitationByID(invID)
	if err != nil {
		return err
	}
	if inv.ToID != playerID {
		return ErrNotAddressee
	}
	return s.repo.DeleteInvitation(inv.ID)
}

// ClearSentInvitations drops every pending invitation the host sent. Called
// when their game starts.
func (s *Service) ClearSentInvitations(hostID string) error {
	return s.repo.DeleteInvitationsFrom(hostID)
}
