package domain

import "github.com/google/uuid"

type UserRegisteredDomainEvent struct {
	UserID    uuid.UUID `json:"userId"`
	Email     string    `json:"email"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
}

func (UserRegisteredDomainEvent) EventName() string { return "UserRegisteredDomainEvent" }
