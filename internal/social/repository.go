package social

// Repository is the persistence surface for the friend graph and the
// invitation lists. Lookups return ErrNotFound when nothing matches.
type Repository interface {
	SaveFriendRequest(req *FriendRequest) error
	FriendRequestByID(id uint) (*FriendRequest, error)
	PendingFriendRequest(fromID, toID string) (*FriendRequest, error)
	FriendRequestsReceived(playerID string) ([]FriendRequest, error)
	FriendRequestsSent(playerID string) ([]FriendRequest, error)
	DeleteFriendRequest(id uint) error

	// SaveFriendship writes both directions atomically.
	SaveFriendship(a, b *Friendship) error
	AreFriends(playerID, friendID string) (bool, error)
	Friends(playerID string) ([]Friendship, error)
	DeleteFriendship(playerID, friendID string) error

	SaveInvitation(inv *Invitation) error
	InvitationByID(id uint) (*Invitation, error)
	PendingInvitation(fromID, toID, roomID string) (*Invitation, error)
	InvitationsFor(playerID string) ([]Invitation, error)
	InvitationsFrom(playerID string) ([]Invitation, error)
	DeleteInvitation(id uint) error
	DeleteInvitationsFrom(playerID string) error
}
