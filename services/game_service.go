// services/game_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"connect4-server/connect4"
	"connect4-server/models"

	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// maxAttempts bounds compare-and-swap retries before ErrConflict.
const maxAttempts = 5

// GamePublisher is notified after every committed game change.
type GamePublisher interface {
	Publish(game *models.Game)
}

// GameArchiver stores the move log of a finished game.
type GameArchiver interface {
	ArchiveGame(ctx context.Context, game *models.Game) error
}

type GameService struct {
	DB      *gorm.DB
	Users   *UserService
	Timeout time.Duration

	Events  GamePublisher
	Archive GameArchiver
	Now     func() time.Time
}

func NewGameService(db *gorm.DB, users *UserService, timeout time.Duration) *GameService {
	return &GameService{
		DB:      db,
		Users:   users,
		Timeout: timeout,
		Now:     func() time.Time { return time.Now().UTC() },
	}
}

// GetGame loads a game, ending it first if the pending player has timed out.
func (s *GameService) GetGame(ctx context.Context, id string) (*models.Game, error) {
	row, err := findGame(s.DB.WithContext(ctx), id)
	if err != nil {
		return nil, err
	}
	game, err := row.ToDomain()
	if err != nil {
		return nil, err
	}
	if !game.Expired(s.Now(), s.Timeout) {
		return row, nil
	}
	row, _, err = s.TimeoutGame(ctx, id)
	return row, err
}

// ViewGame is GetGame for one of the two players. Anyone else is refused
// before the timeout rule can touch the game.
func (s *GameService) ViewGame(ctx context.Context, id, uid string) (*models.Game, error) {
	row, err := findGame(s.DB.WithContext(ctx), id)
	if err != nil {
		return nil, err
	}
	if uid == "" || (row.PlayerOne != uid && row.PlayerTwo != uid) {
		return nil, fmt.Errorf("game %s: %w", id, connect4.ErrNotParticipant)
	}
	return s.GetGame(ctx, id)
}

func (s *GameService) MakeMove(ctx context.Context, id, uid string, column int) (*models.Game, error) {
	return s.act(ctx, id, func(g *connect4.Game, rec connect4.ResultRecorder, now time.Time) error {
		return g.SubmitMove(uid, column, now, rec)
	})
}

func (s *GameService) Forfeit(ctx context.Context, id, uid string) (*models.Game, error) {
	return s.act(ctx, id, func(g *connect4.Game, rec connect4.ResultRecorder, now time.Time) error {
		return g.Forfeit(uid, now, rec)
	})
}

// act settles a pending timeout before running a player action. A game that
// times out here stays ended and the action fails with ErrGameOver.
func (s *GameService) act(ctx context.Context, id string, action func(*connect4.Game, connect4.ResultRecorder, time.Time) error) (*models.Game, error) {
	timedOut := false
	row, _, err := s.transition(ctx, id, func(g *connect4.Game, rec connect4.ResultRecorder, now time.Time) (bool, error) {
		expired, err := g.CheckTimeout(now, s.Timeout, rec)
		timedOut = expired
		if err != nil || expired {
			return expired, err
		}
		return true, action(g, rec, now)
	})
	if err != nil {
		return nil, err
	}
	if timedOut {
		return nil, fmt.Errorf("game %s timed out: %w", id, connect4.ErrGameOver)
	}
	return row, nil
}

// TimeoutGame applies the timeout rule to one game and reports whether it ended.
func (s *GameService) TimeoutGame(ctx context.Context, id string) (*models.Game, bool, error) {
	return s.transition(ctx, id, func(g *connect4.Game, rec connect4.ResultRecorder, now time.Time) (bool, error) {
		return g.CheckTimeout(now, s.Timeout, rec)
	})
}

// SweepTimeouts ends every running game whose pending player is out of time.
func (s *GameService) SweepTimeouts(ctx context.Context) (int, error) {
	cutoff := s.Now().Add(-s.Timeout)
	var ids []string
	err := s.DB.WithContext(ctx).Model(&models.Game{}).
		Where("state IN ? AND last_move_at < ?", []string{string(connect4.StateMoveOne), string(connect4.StateMoveTwo)}, cutoff).
		Pluck("uuid", &ids).Error
	if err != nil {
		return 0, fmt.Errorf("list stale games: %w", err)
	}

	ended := 0
	for _, id := range ids {
		_, changed, err := s.TimeoutGame(ctx, id)
		if err != nil {
			log.Errorf("[Sweeper] timeout of game %s failed: %v", id, err)
			continue
		}
		if changed {
			ended++
		}
	}
	return ended, nil
}

// ListGamesForUser returns the games uid played in, newest first.
func (s *GameService) ListGamesForUser(ctx context.Context, uid string, limit int) ([]models.Game, error) {
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	var games []models.Game
	err := s.DB.WithContext(ctx).
		Where("player_one = ? OR player_two = ?", uid, uid).
		Order("created_at DESC").
		Limit(limit).
		Find(&games).Error
	if err != nil {
		return nil, err
	}
	return games, nil
}

// createGame inserts a fresh game inside the caller's transaction.
func (s *GameService) createGame(tx *gorm.DB, playerOne, playerTwo string, now time.Time) (*models.Game, error) {
	row := models.GameFromDomain(connect4.NewGame(uuid.NewString(), playerOne, playerTwo, now))
	if err := tx.Create(row).Error; err != nil {
		return nil, fmt.Errorf("create game: %w", err)
	}
	return row, nil
}

type stepFunc func(g *connect4.Game, rec connect4.ResultRecorder, now time.Time) (bool, error)

// transition runs step against the locked row and writes the result with a
// version compare-and-swap. Stats recorded by step share the transaction.
func (s *GameService) transition(ctx context.Context, id string, step stepFunc) (*models.Game, bool, error) {
	for attempt := 0; attempt < maxAttempts; attempt++ {
		var row *models.Game
		changed := false

		err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var err error
			row, err = findGame(tx.Clauses(clause.Locking{Strength: "UPDATE"}), id)
			if err != nil {
				return err
			}
			game, err := row.ToDomain()
			if err != nil {
				return err
			}
			now := s.Now()
			changed, err = step(game, s.Users.Recorder(tx), now)
			if err != nil || !changed {
				return err
			}

			prev := row.Version
			row.Apply(game)
			row.Version = prev + 1
			row.UpdatedAt = now
			res := tx.Model(&models.Game{}).
				Where("uuid = ? AND version = ?", id, prev).
				Updates(map[string]interface{}{
					"board":        row.Board,
					"state":        row.State,
					"last_move_at": row.LastMoveAt,
					"version":      row.Version,
					"updated_at":   now,
				})
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
			return nil, false, err
		}
		if changed {
			s.committed(row)
		}
		return row, changed, nil
	}
	return nil, false, ErrConflict
}

// committed fans a change out to subscribers and archives finished games.
func (s *GameService) committed(row *models.Game) {
	if s.Events != nil {
		s.Events.Publish(row)
	}
	if s.Archive == nil || !connect4.State(row.State).Terminal() {
		return
	}
	snapshot := *row
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := s.Archive.ArchiveGame(ctx, &snapshot); err != nil {
			log.Warnf("[Archive] game %s not archived: %v", snapshot.UUID, err)
		}
	}()
}

func findGame(db *gorm.DB, id string) (*models.Game, error) {
	var row models.Game
	if err := db.Where("uuid = ?", id).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("game %s: %w", id, ErrNotFound)
		}
		return nil, err
	}
	return &row, nil
}
