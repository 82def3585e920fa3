package repositories

import (
	"context"

	"github.com/anonto42/playmaker/backend/internal/models"
	"gorm.io/gorm"
)

// PlayerRepository defines the interface for player profile operations
type PlayerRepository interface {
	CreatePlayer(ctx context.Context, player *models.Player) error
	GetPlayers(ctx context.Context) ([]models.Player, error)
	GetPlayerByID(ctx context.Context, id uint) (*models.Player, error)
	GetPlayerByUserID(ctx context.Context, userID uint) (*models.Player, error)
	UpdatePlayer(ctx context.Context, player *models.Player) error
	DeletePlayer(ctx context.Context, id uint) error
}

// PostgresPlayerRepository implements PlayerRepository for PostgreSQL
type PostgresPlayerRepository struct {
	db *gorm.DB
}

// NewPostgresPlayerRepository creates a new PostgresPlayerRepository
func NewPostgresPlayerRepository(db *gorm.DB) *PostgresPlayerRepository {
	return &PostgresPlayerRepository{db: db}
}

func (r *PostgresPlayerRepository) CreatePlayer(ctx context.Context, player *models.Player) error {
	return r.db.WithContext(ctx).Create(player).Error
}

func (r *PostgresPlayerRepository) GetPlayers(ctx context.Context) ([]models.Player, error) {
	var players []models.Player
	if err := r.db.WithContext(ctx).Order("id").Find(&players).Error; err != nil {
		return nil, err
	}
	return players, nil
}

func (r *PostgresPlayerRepository) GetPlayerByID(ctx context.Context, id uint) (*models.Player, error) {
	var player models.Player
	if err := r.db.WithContext(ctx).First(&player, id).Error; err != nil {
		return nil, err
	}
	return &player, nil
}

func (r *PostgresPlayerRepository) GetPlayerByUserID(ctx context.Context, userID uint) (*models.Player, error) {
	var player models.Player
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&player).Error; err != nil {
		return nil, err
	}
	return &player, nil
}

func (r *PostgresPlayerRepository) UpdatePlayer(ctx context.Context, player *models.Player) error {
	return r.db.WithContext(ctx).Save(player).Error
}

func (r *PostgresPlayerRepository) DeletePlayer(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Player{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
