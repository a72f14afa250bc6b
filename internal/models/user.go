package models

import (
	"time"
)

type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// Timestamps maintained by the store on insert and update
type Timestamps struct {
	CreatedAt time.Time
	UpdatedAt time.Time
}

type User struct {
	ID           int64
	Username     string
	PasswordHash string
	Nickname     string
	Email        string
	Name         string
	Role         Role
	IsActive     bool

	Timestamps
}
