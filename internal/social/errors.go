package social

import "errors"

var (
	ErrNotFound       = errors.New("social: not found")
	ErrSelfRequest    = errors.New("social: cannot befriend yourself")
	ErrAlreadyFriends = errors.New("social: already friends")
	ErrNotFriends     = errors.New("social: not friends")
	ErrNotAddressee   = errors.New("social: not addressed to this player")
	ErrNotInRoom      = errors.New("social: sender is not in that room")
	ErrRoomGone       = errors.New("social: room no longer exists")
)
