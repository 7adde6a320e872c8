package session

import "errors"

var (
	ErrExpired       = errors.New("session has expired")
	ErrNotFound      = errors.New("session not found")
	ErrSaveSession   = errors.New("failed to save session")
	ErrDeleteSession = errors.New("failed to delete session")
)
