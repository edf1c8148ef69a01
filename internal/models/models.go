package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	UID        uuid.UUID
	Username   string
	Email      string
	FirstName  string
	LastName   string
	Role       string
	IsVerified bool
	PassHash   string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type Chat struct {
	ID        uuid.UUID
	ChatID    uuid.UUID
	UserID    string
	UserInput string
	Response  string
	CreatedAt time.Time
}

type EmailMessage struct {
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	Body    string   `json:"body"`
}
