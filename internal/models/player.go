package models

import "time"

// Player is the athlete profile attached to a user (PostgreSQL)
type Player struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	UserID      uint      `json:"userId" gorm:"uniqueIndex"`
	Nickname    string    `json:"nickname" gorm:"size:50"`
	Position    string    `json:"position" gorm:"size:30"`
	ShirtNumber int       `json:"shirtNumber"`
	IsAthlete   bool      `json:"isAthlete"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type CreatePlayerRequest struct {
	UserID      uint   `json:"userId" validate:"required"`
	Nickname    string `json:"nickname" validate:"required,min=1,max=50"`
	Position    string `json:"position" validate:"omitempty,max=30"`
	ShirtNumber int    `json:"shirtNumber" validate:"min=0,max=99"`
	IsAthlete   *bool  `json:"isAthlete,omitempty"`
}

type UpdatePlayerRequest struct {
	Nickname    *string `json:"nickname,omitempty" validate:"omitempty,min=1,max=50"`
	Position    *string `json:"position,omitempty" validate:"omitempty,max=30"`
	ShirtNumber *int    `json:"shirtNumber,omitempty" validate:"omitempty,min=0,max=99"`
	IsAthlete   *bool   `json:"isAthlete,omitempty"`
}
