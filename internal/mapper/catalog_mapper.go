package mapper

import (
	"ai-thumbnail-be/internal/entity"
	"ai-thumbnail-be/internal/model"
)

type CatalogMapper struct{}

func NewCatalogMapper() *CatalogMapper {
	return &CatalogMapper{}
}

func (m *CatalogMapper) AlgorithmToEntity(a *model.Algorithm) *entity.Algorithm {
	if a == nil {
		return nil
	}
	return &entity.Algorithm{
		Id:          a.Id,
		DisplayName: a.DisplayName,
		Description: a.Description,
		CostCredits: a.CostCredits,
		IsActive:    a.IsActive,
		Parameters:  mapFromJSON(a.Parameters),
		CreatedAt:   a.CreatedAt,
	}
}

func (m *CatalogMapper) AlgorithmToModel(a *entity.Algorithm) *model.Algorithm {
	if a == nil {
		return nil
	}
	return &model.Algorithm{
		Id:          a.Id,
		DisplayName: a.DisplayName,
		Description: a.Description,
		CostCredits: a.CostCredits,
		IsActive:    a.IsActive,
		Parameters:  toJSON(a.Parameters),
		CreatedAt:   a.CreatedAt,
	}
}

func (m *CatalogMapper) TemplateToEntity(t *model.Template) *entity.Template {
	if t == nil {
		return nil
	}
	return &entity.Template{
		Id:           t.Id,
		Name:         t.Name,
		Category:     t.Category,
		Style:        t.Style,
		Mood:         t.Mood,
		Elements:     stringsFromJSON(t.Elements),
		Colors:       stringsFromJSON(t.Colors),
		PrimaryColor: t.PrimaryColor,
		PreviewURL:   t.PreviewURL,
		Rating:       t.Rating,
		UsageCount:   t.UsageCount,
		IsActive:     t.IsActive,
		CreatedAt:    t.CreatedAt,
	}
}

func (m *CatalogMapper) TemplateToModel(t *entity.Template) *model.Template {
	if t == nil {
		return nil
	}
	return &model.Template{
		Id:           t.Id,
		Name:         t.Name,
		Category:     t.Category,
		Style:        t.Style,
		Mood:         t.Mood,
		Elements:     toJSON(t.Elements),
		Colors:       toJSON(t.Colors),
		PrimaryColor: t.PrimaryColor,
		PreviewURL:   t.PreviewURL,
		Rating:       t.Rating,
		UsageCount:   t.UsageCount,
		IsActive:     t.IsActive,
		CreatedAt:    t.CreatedAt,
	}
}
