package handlers

import (
	"net/http"
	"strconv"

	"github.com/anonto42/playmaker/backend/internal/middleware"
	"github.com/anonto42/playmaker/backend/internal/models"
	"github.com/anonto42/playmaker/backend/internal/repositories"
	"github.com/labstack/echo/v4"
)

// PlayerHandler handles HTTP requests related to player profiles
type PlayerHandler struct {
	playerRepository repositories.PlayerRepository
	userRepository   repositories.UserRepository
}

// NewPlayerHandler creates a new PlayerHandler
func NewPlayerHandler(playerRepo repositories.PlayerRepository, userRepo repositories.UserRepository) *PlayerHandler {
	return &PlayerHandler{playerRepository: playerRepo, userRepository: userRepo}
}

// RegisterPublicPlayerRoutes registers the player routes that need no token
func (h *PlayerHandler) RegisterPublicPlayerRoutes(g *echo.Group) {
	g.POST("/players", h.CreatePlayer)
}

// RegisterPlayerRoutes registers the authenticated player routes
func (h *PlayerHandler) RegisterPlayerRoutes(g *echo.Group) {
	g.GET("/players", h.GetPlayers)
	g.GET("/players/user/:id", h.GetPlayerByUser)
	g.GET("/players/:id", h.GetPlayer)
	g.PATCH("/players/:id", h.UpdatePlayer)
	g.DELETE("/players/:id", h.DeletePlayer)
}

// CreatePlayer attaches a player profile to an existing user
func (h *PlayerHandler) CreatePlayer(c echo.Context) error {
	var req models.CreatePlayerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	ctx := c.Request().Context()

	user, err := h.userRepository.FindByID(ctx, req.UserID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if user == nil {
		return echo.NewHTTPError(http.StatusNotFound, "User not found")
	}

	if _, err := h.playerRepository.GetPlayerByUserID(ctx, req.UserID); err == nil {
		return echo.NewHTTPError(http.StatusConflict, "User already has a player profile")
	} else if !repositories.IsNotFound(err) {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	player := &models.Player{
		UserID:      req.UserID,
		Nickname:    req.Nickname,
		Position:    req.Position,
		ShirtNumber: req.ShirtNumber,
		IsAthlete:   true,
	}
	if req.IsAthlete != nil {
		player.IsAthlete = *req.IsAthlete
	}

	if err := h.playerRepository.CreatePlayer(ctx, player); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusCreated, player)
}

// GetPlayers lists every player profile
func (h *PlayerHandler) GetPlayers(c echo.Context) error {
	players, err := h.playerRepository.GetPlayers(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, players)
}

func (h *PlayerHandler) GetPlayer(c echo.Context) error {
	player, err := h.findPlayer(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, player)
}

// GetPlayerByUser returns the player profile of a user
func (h *PlayerHandler) GetPlayerByUser(c echo.Context) error {
	userID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid user ID")
	}
	player, err := h.playerRepository.GetPlayerByUserID(c.Request().Context(), uint(userID))
	if err != nil {
		if repositories.IsNotFound(err) {
			return echo.NewHTTPError(http.StatusNotFound, "Player not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, player)
}

// UpdatePlayer edits the authenticated user's own player profile
func (h *PlayerHandler) UpdatePlayer(c echo.Context) error {
	player, err := h.findOwnedPlayer(c)
	if err != nil {
		return err
	}

	var req models.UpdatePlayerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	if req.Nickname != nil {
		player.Nickname = *req.Nickname
	}
	if req.Position != nil {
		player.Position = *req.Position
	}
	if req.ShirtNumber != nil {
		player.ShirtNumber = *req.ShirtNumber
	}
	if req.IsAthlete != nil {
		player.IsAthlete = *req.IsAthlete
	}

	if err := h.playerRepository.UpdatePlayer(c.Request().Context(), player); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, player)
}

// DeletePlayer removes the authenticated user's own player profile
func (h *PlayerHandler) DeletePlayer(c echo.Context) error {
	player, err := h.findOwnedPlayer(c)
	if err != nil {
		return err
	}
	if err := h.playerRepository.DeletePlayer(c.Request().Context(), player.ID); err != nil {
		if repositories.IsNotFound(err) {
			return echo.NewHTTPError(http.StatusNotFound, "Player not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *PlayerHandler) findPlayer(c echo.Context) (*models.Player, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "Invalid player ID")
	}
	player, err := h.playerRepository.GetPlayerByID(c.Request().Context(), uint(id))
	if err != nil {
		if repositories.IsNotFound(err) {
			return nil, echo.NewHTTPError(http.StatusNotFound, "Player not found")
		}
		return nil, echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return player, nil
}

func (h *PlayerHandler) findOwnedPlayer(c echo.Context) (*models.Player, error) {
	currentUserID := middleware.UserIDFromContext(c)
	if currentUserID == 0 {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	player, err := h.findPlayer(c)
	if err != nil {
		return nil, err
	}
	if player.UserID != currentUserID {
		return nil, echo.NewHTTPError(http.StatusForbidden, "You are not authorized to modify this player")
	}
	return player, nil
}
