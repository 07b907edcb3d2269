package model

import "errors"

// Common errors used across the application
var (
	// Player errors
	ErrPlayerNotFound  = errors.New("player not found")
	ErrPlayerNameTaken = errors.New("player with this name already exists")
	ErrInvalidJersey   = errors.New("jersey number must be between 1 and 99")
	ErrNameRequired    = errors.New("full name is required")

	// Registration errors
	ErrRegistrationNotFound = errors.New("registration not found")
	ErrRegistrationExists   = errors.New("registration already exists for player, sport and season")

	// User errors
	ErrUserNotFound = errors.New("user not found")

	// Ingestion errors
	ErrEmptyEmail = errors.New("no email content")
)
