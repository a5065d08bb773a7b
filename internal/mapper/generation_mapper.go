package mapper

import (
	"ai-thumbnail-be/internal/entity"
	"ai-thumbnail-be/internal/model"
)

type GenerationMapper struct{}

func NewGenerationMapper() *GenerationMapper {
	return &GenerationMapper{}
}

func (m *GenerationMapper) ToEntity(g *model.Generation) *entity.Generation {
	if g == nil {
		return nil
	}
	return &entity.Generation{
		Id:              g.Id,
		UserId:          g.UserId,
		ConversationId:  g.ConversationId,
		AlgorithmId:     g.AlgorithmId,
		Prompt:          g.Prompt,
		ReferenceInputs: stringsFromJSON(g.ReferenceInputs),
		Parameters:      mapFromJSON(g.Parameters),
		Status:          entity.GenerationStatus(g.Status),
		Progress:        g.Progress,
		ErrorMessage:    g.ErrorMessage,
		ResultURL:       g.ResultURL,
		ResultMetadata:  mapFromJSON(g.ResultMetadata),
		CreditsUsed:     g.CreditsUsed,
		CreatedAt:       g.CreatedAt,
		StartedAt:       g.StartedAt,
		CompletedAt:     g.CompletedAt,
	}
}

func (m *GenerationMapper) ToModel(g *entity.Generation) *model.Generation {
	if g == nil {
		return nil
	}
	res := &model.Generation{
		Id:             g.Id,
		UserId:         g.UserId,
		ConversationId: g.ConversationId,
		AlgorithmId:    g.AlgorithmId,
		Prompt:         g.Prompt,
		Status:         string(g.Status),
		Progress:       g.Progress,
		ErrorMessage:   g.ErrorMessage,
		ResultURL:      g.ResultURL,
		CreditsUsed:    g.CreditsUsed,
		CreatedAt:      g.CreatedAt,
		StartedAt:      g.StartedAt,
		CompletedAt:    g.CompletedAt,
	}
	if len(g.ReferenceInputs) > 0 {
		res.ReferenceInputs = toJSON(g.ReferenceInputs)
	}
	if len(g.Parameters) > 0 {
		res.Parameters = toJSON(g.Parameters)
	}
	if len(g.ResultMetadata) > 0 {
		res.ResultMetadata = toJSON(g.ResultMetadata)
	}
	return res
}
