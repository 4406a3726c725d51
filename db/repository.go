package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/habedi/smoke/pkg/naming"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GameRepository defines the catalogue cache operations.
type GameRepository interface {
	Put(ctx context.Context, g Game) error
	ReplaceAll(ctx context.Context, games []Game) error
	GetByID(ctx context.Context, id int) (*Game, error)
	List(ctx context.Context) ([]Game, error)
	SearchByName(ctx context.Context, query string) ([]Game, error)
	Clear(ctx context.Context) error
}

// gormGameRepo is a GORM-backed implementation of GameRepository.
// Use constructor NewGameRepository to obtain an instance.
type gormGameRepo struct{ db *gorm.DB }

// NewGameRepository creates a GameRepository. Accepts *gorm.DB to avoid global access.
func NewGameRepository(db *gorm.DB) GameRepository { return &gormGameRepo{db: db} }

var errNotInitialized = errors.New("repository not initialized")

func (r *gormGameRepo) Put(ctx context.Context, g Game) error {
	if r.db == nil {
		return errNotInitialized
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&g).Error
}

// ReplaceAll swaps the whole cache for games in one transaction.
func (r *gormGameRepo) ReplaceAll(ctx context.Context, games []Game) error {
	if r.db == nil {
		return errNotInitialized
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Unscoped().Delete(&Game{}).Error; err != nil {
			return err
		}
		if len(games) == 0 {
			return nil
		}
		return tx.Clauses(clause.OnConflict{UpdateAll: true}).CreateInBatches(games, 100).Error
	})
	if err != nil {
		log.Error().Err(err).Int("count", len(games)).Msg("Failed to replace catalogue cache")
		return fmt.Errorf("failed to replace catalogue cache: %w", err)
	}
	log.Debug().Int("count", len(games)).Msg("Catalogue cache replaced")
	return nil
}

// GetByID returns nil, nil when no game has the id.
func (r *gormGameRepo) GetByID(ctx context.Context, id int) (*Game, error) {
	if r.db == nil {
		return nil, errNotInitialized
	}
	var game Game
	err := r.db.WithContext(ctx).First(&game, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &game, nil
}

// List returns every cached game ordered by name, case-insensitively.
func (r *gormGameRepo) List(ctx context.Context) ([]Game, error) {
	if r.db == nil {
		return nil, errNotInitialized
	}
	var games []Game
	if err := r.db.WithContext(ctx).Order("name COLLATE NOCASE").Order("id").Find(&games).Error; err != nil {
		return nil, err
	}
	return games, nil
}

// SearchByName matches the way titles are compared everywhere else, ignoring case, separators
// and version tags, so the filtering happens here rather than in SQL.
func (r *gormGameRepo) SearchByName(ctx context.Context, query string) ([]Game, error) {
	all, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	var games []Game
	for _, g := range all {
		if naming.MatchesQuery(g.Name, query) {
			games = append(games, g)
		}
	}
	return games, nil
}

func (r *gormGameRepo) Clear(ctx context.Context) error {
	if r.db == nil {
		return errNotInitialized
	}
	return r.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).Unscoped().Delete(&Game{}).Error
}
