package repositories

import (
	"context"
	"errors"
	"testing"

	"github.com/anonto42/playmaker/backend/internal/models"
	"gorm.io/gorm"
)

func TestPlayerRepositoryLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := NewPostgresPlayerRepository(openTestDB(t))

	player := &models.Player{UserID: 3, Nickname: "Zico", Position: "midfielder", ShirtNumber: 10, IsAthlete: true}
	if err := repo.CreatePlayer(ctx, player); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	byUser, err := repo.GetPlayerByUserID(ctx, 3)
	if err != nil {
		t.Fatalf("get by user failed: %v", err)
	}
	if byUser.ID != player.ID {
		t.Fatalf("expected player %d, got %d", player.ID, byUser.ID)
	}

	byUser.ShirtNumber = 8
	if err := repo.UpdatePlayer(ctx, byUser); err != nil {
		t.Fatalf("update failed: %v", err)
	}
	reloaded, err := repo.GetPlayerByID(ctx, player.ID)
	if err != nil || reloaded.ShirtNumber != 8 {
		t.Fatalf("expected shirt 8, got %+v (%v)", reloaded, err)
	}

	players, err := repo.GetPlayers(ctx)
	if err != nil || len(players) != 1 {
		t.Fatalf("expected one player, got %d (%v)", len(players), err)
	}

	if err := repo.DeletePlayer(ctx, player.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, err := repo.GetPlayerByID(ctx, player.ID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}
