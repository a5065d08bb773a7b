package service

import (
	"errors"
	"fmt"
)

var (
	ErrGenerationNotFound   = errors.New("generation not found")
	ErrConversationNotFound = errors.New("conversation not found")
	ErrPurchaseNotFound     = errors.New("purchase not found")
	ErrAlreadyTerminal      = errors.New("generation already finished")
	ErrAlreadyRunning       = errors.New("generation pipeline already running")
	ErrUnknownAlgorithm     = errors.New("unknown algorithm")
	ErrAlgorithmInactive    = errors.New("algorithm is not active")
	ErrUnknownPackage       = errors.New("unknown credit package")
	ErrInsufficientFunds    = errors.New("insufficient credits")
	ErrInvalidSignature     = errors.New("invalid notification signature")
	ErrForbidden            = errors.New("resource belongs to another user")
)

// InsufficientFundsError reports how far short a debit fell. It matches ErrInsufficientFunds.
type InsufficientFundsError struct {
	Required  int
	Available int
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient credits: required %d, available %d", e.Required, e.Available)
}

func (e *InsufficientFundsError) Is(target error) bool {
	return target == ErrInsufficientFunds
}

// ValidationError is raised before any state is touched.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}
