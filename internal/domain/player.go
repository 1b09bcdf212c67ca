// Package domain contains entity without logic, just meta-data
package domain

import (
	"errors"
	"strings"
	"unicode/utf8"
)

const MaxPlayerNameLen = 36

var (
	ErrNameEmpty   = errors.New("player name is required")
	ErrNameTooLong = errors.New("player name too long")
)

type PlayerID string

// PlayerIdentity is assigned by the server on room create/join. Only IsHost
// changes afterwards.
type PlayerIdentity struct {
	ID     PlayerID `json:"id"`
	Name   string   `json:"name"`
	IsHost bool     `json:"isHost"`
}

// NormalizeName trims the name and checks it is usable before any network call.
func NormalizeName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrNameEmpty
	}
	if utf8.RuneCountInString(name) > MaxPlayerNameLen {
		return "", ErrNameTooLong
	}
	return name, nil
}
