// Package profile holds the account and physical-profile rules shared by the
// API and the operator tools. Error messages are user-facing.
package profile

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"lg/fitness-tracker-api/internal/metabolism"
)

const (
	MinNameLen     = 2
	MaxNameLen     = 100
	MinPasswordLen = 6

	MinHeightCm = 50
	MaxHeightCm = 300
	MinWeightKg = 20
	MaxWeightKg = 500
)

var (
	ErrName     = fmt.Errorf("name must be between %d and %d characters", MinNameLen, MaxNameLen)
	ErrEmail    = errors.New("invalid email")
	ErrPassword = fmt.Errorf("password must be at least %d characters", MinPasswordLen)
	ErrHeight   = fmt.Errorf("height_cm must be between %d and %d", MinHeightCm, MaxHeightCm)
	ErrWeight   = fmt.Errorf("weight_kg must be between %d and %d", MinWeightKg, MaxWeightKg)
	ErrGoal     = errors.New("goal must be one of: lose_weight, gain_weight, maintain_weight, gain_muscle")
)

// CheckName validates a trimmed display name.
func CheckName(name string) error {
	if n := len(strings.TrimSpace(name)); n < MinNameLen || n > MaxNameLen {
		return ErrName
	}
	return nil
}

// CheckEmail accepts a bare address only. Display-name forms such as
// "Bob <bob@example.com>" parse as valid RFC 5322 but would be stored as
// typed and never match a login.
func CheckEmail(email string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return ErrEmail
	}
	return nil
}

func CheckPassword(password string) error {
	if len(password) < MinPasswordLen {
		return ErrPassword
	}
	return nil
}

func CheckHeight(cm float64) error {
	if cm < MinHeightCm || cm > MaxHeightCm {
		return ErrHeight
	}
	return nil
}

func CheckWeight(kg float64) error {
	if kg < MinWeightKg || kg > MaxWeightKg {
		return ErrWeight
	}
	return nil
}

// CheckGoal accepts the goals the metabolism core knows.
func CheckGoal(goal string) error {
	if !metabolism.ValidGoal(goal) {
		return ErrGoal
	}
	return nil
}
