package entity

import (
	"time"

	"github.com/google/uuid"
)

type GenerationStatus string

const (
	GenerationStatusQueued     GenerationStatus = "queued"
	GenerationStatusProcessing GenerationStatus = "processing"
	GenerationStatusCompleted  GenerationStatus = "completed"
	GenerationStatusFailed     GenerationStatus = "failed"
	GenerationStatusCancelled  GenerationStatus = "cancelled"
)

// allowedTransitions is the full lifecycle graph. Terminal states have no exits.
var allowedTransitions = map[GenerationStatus][]GenerationStatus{
	GenerationStatusQueued:     {GenerationStatusProcessing, GenerationStatusCancelled},
	GenerationStatusProcessing: {GenerationStatusCompleted, GenerationStatusFailed, GenerationStatusCancelled},
	GenerationStatusCompleted:  {},
	GenerationStatusFailed:     {},
	GenerationStatusCancelled:  {},
}

func (s GenerationStatus) IsTerminal() bool {
	return s == GenerationStatusCompleted || s == GenerationStatusFailed || s == GenerationStatusCancelled
}

func (s GenerationStatus) IsValid() bool {
	_, ok := allowedTransitions[s]
	return ok
}

func (s GenerationStatus) CanTransitionTo(next GenerationStatus) bool {
	for _, allowed := range allowedTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// SourcesOf returns every state that may move into target.
func SourcesOf(target GenerationStatus) []GenerationStatus {
	var sources []GenerationStatus
	for from, targets := range allowedTransitions {
		for _, t := range targets {
			if t == target {
				sources = append(sources, from)
			}
		}
	}
	return sources
}

type Generation struct {
	Id              uuid.UUID
	UserId          uuid.UUID
	ConversationId  *uuid.UUID
	AlgorithmId     string
	Prompt          string
	ReferenceInputs []string
	Parameters      map[string]interface{}
	Status          GenerationStatus
	Progress        int
	ErrorMessage    *string
	ResultURL       *string
	ResultMetadata  map[string]interface{}
	CreditsUsed     int
	CreatedAt       time.Time
	StartedAt       *time.Time
	CompletedAt     *time.Time
}

type GenerationStats struct {
	TotalGenerations      int64
	SuccessfulGenerations int64
	FailedGenerations     int64
	TotalCreditsUsed      int64
	MostUsedAlgorithm     string
}
