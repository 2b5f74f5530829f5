package entities

import (
	"strings"
	"time"
)

const RemoteLocation = "Remote"

type User struct {
	ID        uint
	Email     string   `gorm:"uniqueIndex" validate:"required,email"`
	JobRoles  []string `gorm:"serializer:json" validate:"min=1,max=5,dive,required"`
	JobTypes  []string `gorm:"serializer:json" validate:"min=1,dive,required"`
	Locations []string `gorm:"serializer:json" validate:"min=1,dive,required"`
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

func NewUser(email string, roles, types, locations []string) User {
	return User{
		Email:     strings.TrimSpace(email),
		JobRoles:  trimAll(roles),
		JobTypes:  trimAll(types),
		Locations: trimAll(locations),
		Active:    true,
	}
}

func (u User) PrefersRemote() bool {
	for _, location := range u.Locations {
		if strings.EqualFold(strings.TrimSpace(location), RemoteLocation) {
			return true
		}
	}
	return false
}

func trimAll(values []string) []string {
	result := make([]string, 0, len(values))
	for _, value := range values {
		if value = strings.TrimSpace(value); value != "" {
			result = append(result, value)
		}
	}
	return result
}
