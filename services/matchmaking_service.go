// services/matchmaking_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"connect4-server/models"

	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MatchmakingService pairs waiting tickets first-in first-out.
type MatchmakingService struct {
	DB    *gorm.DB
	Games *GameService
	TTL   time.Duration
	Now   func() time.Time
}

func NewMatchmakingService(db *gorm.DB, games *GameService, ttl time.Duration) *MatchmakingService {
	return &MatchmakingService{
		DB:    db,
		Games: games,
		TTL:   ttl,
		Now:   func() time.Time { return time.Now().UTC() },
	}
}

// CreateTicket queues uid, pairing it straight away with the oldest live
// ticket of another user when there is one.
func (s *MatchmakingService) CreateTicket(ctx context.Context, uid string) (*models.Ticket, error) {
	if uid == "" {
		return nil, fmt.Errorf("%w: uid is required", ErrInvalidInput)
	}

	for attempt := 0; attempt < maxAttempts; attempt++ {
		var ticket models.Ticket
		var game *models.Game

		err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			now := s.Now()
			// Concurrent requests of one user queue up behind this row lock.
			if _, err := findUser(tx.Clauses(clause.Locking{Strength: "UPDATE"}), uid); err != nil {
				return err
			}

			if err := tx.Where("uid = ? AND game_uuid = '' AND expires_at <= ?", uid, now).
				Delete(&models.Ticket{}).Error; err != nil {
				return err
			}
			var queued int64
			if err := tx.Model(&models.Ticket{}).
				Where("uid = ? AND game_uuid = ''", uid).
				Count(&queued).Error; err != nil {
				return err
			}
			if queued > 0 {
				return ErrAlreadyQueued
			}

			ticket = models.Ticket{
				UUID:      uuid.NewString(),
				UID:       uid,
				CreatedAt: now,
				PolledAt:  now,
				ExpiresAt: now.Add(s.TTL),
			}
			var err error
			if game, err = s.claimOpponent(tx, &ticket, now); err != nil {
				return err
			}
			return tx.Create(&ticket).Error
		})
		if errors.Is(err, errStale) {
			continue
		}
		if err != nil {
			return nil, err
		}
		s.paired(game)
		return &ticket, nil
	}
	return nil, ErrConflict
}

// PollTicket returns the ticket and, while it waits, extends its lease and
// retries pairing it.
func (s *MatchmakingService) PollTicket(ctx context.Context, id, uid string) (*models.Ticket, error) {
	for attempt := 0; attempt < maxAttempts; attempt++ {
		var ticket *models.Ticket
		var game *models.Game
		err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			now := s.Now()
			var err error
			if ticket, err = findOwnTicket(tx.Clauses(clause.Locking{Strength: "UPDATE"}), id, uid); err != nil {
				return err
			}
			if ticket.Paired() {
				return nil
			}
			if !ticket.ExpiresAt.After(now) {
				return fmt.Errorf("ticket %s expired: %w", id, ErrNotFound)
			}

			if game, err = s.claimOpponent(tx, ticket, now); err != nil {
				return err
			}
			res := tx.Model(&models.Ticket{}).
				Where("uuid = ? AND version = ? AND game_uuid = ''", id, ticket.Version).
				Updates(map[string]interface{}{
					"polled_at":  now,
					"expires_at": now.Add(s.TTL),
					"game_uuid":  ticket.GameUUID,
					"version":    ticket.Version + 1,
				})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return errStale
			}
			ticket.PolledAt = now
			ticket.ExpiresAt = now.Add(s.TTL)
			ticket.Version++
			return nil
		})
		if errors.Is(err, errStale) {
			continue
		}
		if err != nil {
			return nil, err
		}
		s.paired(game)
		return ticket, nil
	}
	return nil, ErrConflict
}

// claimOpponent takes the oldest live ticket of another registered user,
// starts a game between the two owners and marks both tickets with it. The
// owner of the earlier ticket moves first. It returns nil when nobody waits.
func (s *MatchmakingService) claimOpponent(tx *gorm.DB, t *models.Ticket, now time.Time) (*models.Game, error) {
	var waiting models.Ticket
	err := tx.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
		Where("game_uuid = '' AND uuid <> ? AND uid <> ? AND expires_at > ?", t.UUID, t.UID, now).
		Where("uid IN (?)", tx.Model(&models.User{}).Select("uid")).
		Order("created_at ASC").
		Order("uuid ASC").
		Take(&waiting).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	playerOne, playerTwo := waiting.UID, t.UID
	if t.Before(&waiting) {
		playerOne, playerTwo = t.UID, waiting.UID
	}
	game, err := s.Games.createGame(tx, playerOne, playerTwo, now)
	if err != nil {
		return nil, err
	}
	res := tx.Model(&models.Ticket{}).
		Where("uuid = ? AND version = ? AND game_uuid = ''", waiting.UUID, waiting.Version).
		Updates(map[string]interface{}{
			"game_uuid": game.UUID,
			"version":   waiting.Version + 1,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, errStale
	}
	t.GameUUID = game.UUID
	return game, nil
}

func (s *MatchmakingService) paired(game *models.Game) {
	if game == nil {
		return
	}
	log.Infof("[Matchmaking] paired %s with %s in game %s", game.PlayerOne, game.PlayerTwo, game.UUID)
	s.Games.committed(game)
}

// DeleteTicket withdraws an unpaired ticket from the queue.
func (s *MatchmakingService) DeleteTicket(ctx context.Context, id, uid string) (*models.Ticket, error) {
	for attempt := 0; attempt < maxAttempts; attempt++ {
		var ticket *models.Ticket
		err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var err error
			if ticket, err = findOwnTicket(tx, id, uid); err != nil {
				return err
			}
			if ticket.Paired() {
				return ErrAlreadyPaired
			}
			res := tx.Where("uuid = ? AND game_uuid = ''", id).Delete(&models.Ticket{})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return errStale
			}
			return nil
		})
		if errors.Is(err, errStale) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return ticket, nil
	}
	return nil, ErrConflict
}

// ExpireTickets drops unpaired tickets whose owners stopped polling.
func (s *MatchmakingService) ExpireTickets(ctx context.Context) (int64, error) {
	res := s.DB.WithContext(ctx).
		Where("game_uuid = '' AND expires_at <= ?", s.Now()).
		Delete(&models.Ticket{})
	return res.RowsAffected, res.Error
}

func findOwnTicket(tx *gorm.DB, id, uid string) (*models.Ticket, error) {
	var ticket models.Ticket
	if err := tx.Where("uuid = ?", id).First(&ticket).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("ticket %s: %w", id, ErrNotFound)
		}
		return nil, err
	}
	if ticket.UID != uid {
		return nil, ErrNotOwner
	}
	return &ticket, nil
}
