// services/user_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"connect4-server/connect4"
	"connect4-server/models"

	"github.com/gosimple/slug"
	"golang.org/x/text/unicode/norm"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const maxBioLength = 500

type UserService struct {
	DB *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{DB: db}
}

// CreateUser registers uid. Usernames are NFC-normalised and must map to a
// handle no other account uses.
func (s *UserService) CreateUser(ctx context.Context, uid, username, email string) (*models.User, error) {
	uid = strings.TrimSpace(uid)
	username = norm.NFC.String(strings.TrimSpace(username))
	if uid == "" || username == "" {
		return nil, fmt.Errorf("%w: uid and username are required", ErrInvalidInput)
	}
	handle := slug.Make(username)
	if handle == "" {
		return nil, fmt.Errorf("%w: username %q has no usable characters", ErrInvalidInput, username)
	}

	user := models.User{
		UID:      uid,
		Username: username,
		Handle:   handle,
		Email:    strings.TrimSpace(email),
	}
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&models.User{}).Where("uid = ?", uid).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return fmt.Errorf("user %s: %w", uid, ErrDuplicate)
		}
		if err := tx.Model(&models.User{}).Where("handle = ?", handle).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return fmt.Errorf("username %q: %w", username, ErrDuplicate)
		}
		return tx.Create(&user).Error
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *UserService) GetUser(ctx context.Context, uid string) (*models.User, error) {
	return findUser(s.DB.WithContext(ctx), uid)
}

func (s *UserService) UpdateBio(ctx context.Context, uid, bio string) (*models.User, error) {
	bio = norm.NFC.String(strings.TrimSpace(bio))
	if utf8.RuneCountInString(bio) > maxBioLength {
		return nil, fmt.Errorf("%w: bio longer than %d characters", ErrInvalidInput, maxBioLength)
	}

	var user *models.User
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		u, err := findUser(tx, uid)
		if err != nil {
			return err
		}
		if err := tx.Model(u).Update("bio", bio).Error; err != nil {
			return err
		}
		u.Bio = bio
		user = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// DeleteUser removes the record and returns it as it was. Tickets still
// waiting in the queue go with it; games already started are kept.
func (s *UserService) DeleteUser(ctx context.Context, uid string) (*models.User, error) {
	var user *models.User
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		u, err := findUser(tx.Clauses(clause.Locking{Strength: "UPDATE"}), uid)
		if err != nil {
			return err
		}
		if err := tx.Where("uid = ? AND game_uuid = ''", uid).Delete(&models.Ticket{}).Error; err != nil {
			return fmt.Errorf("withdraw tickets of %s: %w", uid, err)
		}
		if err := tx.Where("uid = ?", uid).Delete(&models.User{}).Error; err != nil {
			return err
		}
		user = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Recorder returns a connect4.ResultRecorder bound to tx, so counters commit
// or roll back together with the game transition.
func (s *UserService) Recorder(tx *gorm.DB) connect4.ResultRecorder {
	return statsRecorder{tx: tx}
}

type statsRecorder struct {
	tx *gorm.DB
}

// RecordResult bumps wins or losses. Draws leave counters alone, and a
// player whose account was deleted mid-game is skipped.
func (r statsRecorder) RecordResult(uid string, result connect4.Result) error {
	var column string
	switch result {
	case connect4.ResultWin:
		column = "wins"
	case connect4.ResultLoss:
		column = "losses"
	default:
		return nil
	}
	return r.tx.Model(&models.User{}).
		Where("uid = ?", uid).
		Update(column, gorm.Expr(column+" + ?", 1)).Error
}

func findUser(db *gorm.DB, uid string) (*models.User, error) {
	var user models.User
	if err := db.Where("uid = ?", uid).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user %s: %w", uid, ErrNotFound)
		}
		return nil, err
	}
	return &user, nil
}
