package social

import "time"

// FriendRequest is a pending request; accepting turns it into two
// Friendship rows and deletes it.
type FriendRequest struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	FromID    string    `gorm:"size:64;not null;index" json:"fromId"`
	FromName  string    `gorm:"size:64" json:"fromName"`
	ToID      string    `gorm:"size:64;not null;index" json:"toId"`
	CreatedAt time.Time `json:"createdAt"`
}

func (FriendRequest) TableName() string { return "friend_requests" }

// Friendship is directional; befriending writes both directions so either
// side's friend list is a single indexed query.
type Friendship struct {
	ID         uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	PlayerID   string    `gorm:"size:64;not null;uniqueIndex:idx_friend_pair" json:"playerId"`
	FriendID   string    `gorm:"size:64;not null;uniqueIndex:idx_friend_pair" json:"friendId"`
	FriendName string    `gorm:"size:64" json:"friendName"`
	CreatedAt  time.Time `json:"createdAt"`
}

func (Friendship) TableName() string { return "friendships" }

// Invitation invites a friend into the sender's live room. Resolved
// invitations are deleted, and all of a host's pending invitations are
// cleared when their game starts.
type Invitation struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	RoomID    string    `gorm:"size:32;not null" json:"roomId"`
	FromID    string    `gorm:"size:64;not null;index" json:"fromId"`
	FromName  string    `gorm:"size:64" json:"fromName"`
	ToID      string    `gorm:"size:64;not null;index" json:"toId"`
	CreatedAt time.Time `json:"createdAt"`
}

func (Invitation) TableName() string { return "room_invitations" }
