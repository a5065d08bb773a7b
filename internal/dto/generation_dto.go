package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateGenerationRequest struct {
	AlgorithmId     string                 `json:"algorithm_id" validate:"required,oneof=basic premium pro"`
	Prompt          string                 `json:"prompt" validate:"required,min=3,max=2000"`
	ConversationId  *uuid.UUID             `json:"conversation_id,omitempty"`
	ReferenceImages []string               `json:"reference_images,omitempty" validate:"omitempty,max=4,dive,required"`
	Parameters      map[string]interface{} `json:"parameters,omitempty"`
}

type CreateGenerationResponse struct {
	Id          uuid.UUID `json:"id"`
	Status      string    `json:"status"`
	CreditsUsed int       `json:"credits_used"`
	Balance     int       `json:"balance"`
}

type GenerationStatusResponse struct {
	GenerationId uuid.UUID  `json:"generation_id"`
	Status       string     `json:"status"`
	Progress     int        `json:"progress"`
	ErrorMessage *string    `json:"error_message,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}

type GenerationResponse struct {
	Id              uuid.UUID              `json:"id"`
	ConversationId  *uuid.UUID             `json:"conversation_id,omitempty"`
	AlgorithmId     string                 `json:"algorithm_id"`
	Prompt          string                 `json:"prompt"`
	ReferenceImages []string               `json:"reference_images,omitempty"`
	Parameters      map[string]interface{} `json:"parameters,omitempty"`
	Status          string                 `json:"status"`
	Progress        int                    `json:"progress"`
	ErrorMessage    *string                `json:"error_message,omitempty"`
	ResultURL       *string                `json:"result_url,omitempty"`
	ResultMetadata  map[string]interface{} `json:"result_metadata,omitempty"`
	CreditsUsed     int                    `json:"credits_used"`
	CreatedAt       time.Time              `json:"created_at"`
	StartedAt       *time.Time             `json:"started_at,omitempty"`
	CompletedAt     *time.Time             `json:"completed_at,omitempty"`
}

type ListGenerationsRequest struct {
	Page   int    `query:"page" validate:"omitempty,min=1"`
	Limit  int    `query:"limit" validate:"omitempty,min=1,max=100"`
	Status string `query:"status" validate:"omitempty,oneof=queued processing completed failed cancelled"`
}

type ListGenerationsResponse struct {
	Items []*GenerationResponse `json:"items"`
	Total int64                 `json:"total"`
	Page  int                   `json:"page"`
	Limit int                   `json:"limit"`
}

type GenerationStatsResponse struct {
	TotalGenerations      int64  `json:"total_generations"`
	SuccessfulGenerations int64  `json:"successful_generations"`
	FailedGenerations     int64  `json:"failed_generations"`
	TotalCreditsUsed      int64  `json:"total_credits_used"`
	MostUsedAlgorithm     string `json:"most_used_algorithm,omitempty"`
}

type AlgorithmResponse struct {
	Id          string                 `json:"id"`
	DisplayName string                 `json:"display_name"`
	Description string                 `json:"description"`
	CostCredits int                    `json:"cost_credits"`
	Parameters  map[string]interface{} `json:"parameters,omitempty"`
}

// GenerationJobMessage is the queue payload handed to the pipeline worker.
type GenerationJobMessage struct {
	GenerationId uuid.UUID `json:"generation_id"`
}
