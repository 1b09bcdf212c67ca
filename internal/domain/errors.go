package domain

import (
	"errors"
	"net/http"
	"strings"
)

// ServerError carries the server's error text verbatim.
type ServerError struct {
	Status  int
	Message string
}

func (e *ServerError) Error() string { return e.Message }

// Unwrap maps "room does not exist" answers onto ErrRoomNotFound.
func (e *ServerError) Unwrap() error {
	if e.Status == http.StatusNotFound || strings.Contains(strings.ToLower(e.Message), "does not exist") {
		return ErrRoomNotFound
	}
	return nil
}

// UserMessage is what a player should see for err: the server's own text when
// it sent one, fallback otherwise.
func UserMessage(err error, fallback string) string {
	var se *ServerError
	if errors.As(err, &se) && se.Message != "" {
		return se.Message
	}
	return fallback
}
