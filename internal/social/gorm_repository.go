package social

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

type GormRepository struct {
	db *gorm.DB
}

func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

// Migrate creates the social tables.
func (r *GormRepository) Migrate() error {
	return r.db.AutoMigrate(&FriendRequest{}, &Friendship{}, &Invitation{})
}

func (r *GormRepository) SaveFriendRequest(req *FriendRequest) error {
	if err := r.db.Create(req).Error; err != nil {
		return fmt.Errorf("save friend request: %w", err)
	}
	return nil
}

func (r *GormRepository) FriendRequestByID(id uint) (*FriendRequest, error) {
	var req FriendRequest
	err := r.db.First(&req, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("friend request %d: %w", id, err)
	}
	return &req, nil
}

func (r *GormRepository) PendingFriendRequest(fromID, toID string) (*FriendRequest, error) {
	var req FriendRequest
	err := r.db.Where("from_id = ? AND to_id = ?", fromID, toID).First(&req).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("pending friend request %s->%s: %w", fromID, toID, err)
	}
	return &req, nil
}

func (r *GormRepository) FriendRequestsReceived(playerID string) ([]FriendRequest, error) {
	var reqs []FriendRequest
	if err := r.db.Where("to_id = ?", playerID).Order("created_at").Find(&reqs).Error; err != nil {
		return nil, fmt.Errorf("friend requests received by %s: %w", playerID, err)
	}
	return reqs, nil
}

func (r *GormRepository) FriendRequestsSent(playerID string) ([]FriendRequest, error) {
	var reqs []FriendRequest
	if err := r.db.Where("from_id = ?", playerID).Order("created_at").Find(&reqs).Error; err != nil {
		return nil, fmt.Errorf("friend requests sent by %s: %w", playerID, err)
	}
	return reqs, nil
}

func (r *GormRepository) DeleteFriendRequest(id uint) error {
	if err := r.db.Delete(&FriendRequest{}, id).Error; err != nil {
		return fmt.Errorf("delete friend request %d: %w", id, err)
	}
	return nil
}

func (r *GormRepository) SaveFriendship(a, b *Friendship) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(a).Error; err != nil {
			return err
		}
		return tx.Create(b).Error
	})
	if err != nil {
		return fmt.Errorf("save friendship %s<->%s: %w", a.PlayerID, a.FriendID, err)
	}
	return nil
}

func (r *GormRepository) AreFriends(playerID, friendID string) (bool, error) {
	var count int64
	err := r.db.Model(&Friendship{}).
		Where("player_id = ? AND friend_id = ?", playerID, friendID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("are friends %s/%s: %w", playerID, friendID, err)
	}
	return count > 0, nil
}

func (r *GormRepository) Friends(playerID string) ([]Friendship, error) {
	var out []Friendship
	if err := r.db.Where("player_id = ?", playerID).Order("created_at").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("friends of %s: %w", playerID, err)
	}
	return out, nil
}

func (r *GormRepository) DeleteFriendship(playerID, friendID string) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("player_id = ? AND friend_id = ?", playerID, friendID).
			Delete(&Friendship{}).Error; err != nil {
			return err
		}
		return tx.Where("player_id = ? AND friend_id = ?", friendID, playerID).
			Delete(&Friendship{}).Error
	})
	if err != nil {
		return fmt.Errorf("delete friendship %s<->%s: %w", playerID, friendID, err)
	}
	return nil
}

func (r *GormRepository) SaveInvitation(inv *Invitation) error {
	if err := r.db.Create(inv).Error; err != nil {
		return fmt.Errorf("save invitation: %w", err)
	}
	return nil
}

func (r *GormRepository) InvitationByID(id uint) (*Invitation, error) {
	var inv Invitation
	err := r.db.First(&inv, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("invitation %d: %w", id, err)
	}
	return &inv, nil
}

func (r *GormRepository) PendingInvitation(fromID, toID, roomID string) (*Invitation, error) {
	var inv Invitation
	err := r.db.Where("from_id = ? AND to_id = ? AND room_id = ?", fromID, toID, roomID).
		First(&inv).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("pending invitation %s->%s: %w", fromID, toID, err)
	}
	return &inv, nil
}

func (r *GormRepository) InvitationsFor(playerID string) ([]Invitation, error) {
	var out []Invitation
	if err := r.db.Where("to_id = ?", playerID).Order("created_at").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("invitations for %s: %w", playerID, err)
	}
	return out, nil
}

func (r *GormRepository) InvitationsFrom(playerID string) ([]Invitation, error) {
	var out []Invitation
	if err := r.db.Where("from_id = ?", playerID).Order("created_at").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("invitations from %s: %w", playerID, err)
	}
	return out, nil
}

func (r *GormRepository) DeleteInvitation(id uint) error {
	if err := r.db.Delete(&Invitation{}, id).Error; err != nil {
		return fmt.Errorf("delete invitation %d: %w", id, err)
	}
	return nil
}

func (r *GormRepository) DeleteInvitationsFrom(playerID string) error {
	if err := r.db.Where("from_id = ?", playerID).Delete(&Invitation{}).Error; err != nil {
		return fmt.Errorf("clear invitations from %s: %w", playerID, err)
	}
	return nil
}
