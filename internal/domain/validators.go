package domain

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	emailRegex    = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	joinCodeRegex = regexp.MustCompile(`^[A-Z0-9]{6}$`)
)

// ValidateEmail checks if an email address is valid.
func ValidateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("email is required")
	}
	if !emailRegex.MatchString(email) {
		return fmt.Errorf("invalid email format")
	}
	return nil
}

// ValidateTeamName checks the team name length bounds.
func ValidateTeamName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("team name is required")
	}
	if len(name) > 100 {
		return fmt.Errorf("team name must be at most 100 characters")
	}
	return nil
}

// ValidateJoinCode checks a player-entered join code.
func ValidateJoinCode(code string) error {
	if !joinCodeRegex.MatchString(code) {
		return fmt.Errorf("join code must be 6 uppercase alphanumeric characters")
	}
	return nil
}

// ValidateLicenseCount bounds bulk pool stocking to 1-100 per call.
func ValidateLicenseCount(count int) error {
	if count < 1 || count > 100 {
		return fmt.Errorf("count must be between 1 and 100, got %d", count)
	}
	return nil
}
