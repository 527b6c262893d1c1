package service

import (
	"context"

	"freight/internal/domain"
	"freight/internal/redis"
	"freight/internal/repository"
)

// StagePipeline is an organization's ordered report stage catalog resolved
// at call time. The engine never assumes a hardcoded stage sequence.
type StagePipeline struct {
	stages      []domain.ReportStage
	orderByType map[domain.TripStatusType]int
}

func newStagePipeline(stages []domain.ReportStage) *StagePipeline {
	orderByType := make(map[domain.TripStatusType]int, len(stages))
	for _, stage := range stages {
		// First occurrence wins when a type appears twice.
		if _, ok := orderByType[stage.Type]; !ok {
			orderByType[stage.Type] = stage.DisplayOrder
		}
	}

	return &StagePipeline{stages: stages, orderByType: orderByType}
}

// Stages returns the stages ordered by display order.
func (p *StagePipeline) Stages() []domain.ReportStage {
	return p.stages
}

// DisplayOrder returns the configured display order for a stage type.
func (p *StagePipeline) DisplayOrder(t domain.TripStatusType) (int, bool) {
	order, ok := p.orderByType[t]
	return order, ok
}

// Contains reports whether the pipeline includes the stage type.
func (p *StagePipeline) Contains(t domain.TripStatusType) bool {
	_, ok := p.orderByType[t]
	return ok
}

// StageCatalog loads report stage pipelines per organization, with a Redis
// read-through cache in front of the database.
type StageCatalog struct {
	repo  repository.StageRepository
	cache redis.CacheStoreInterface
}

// NewStageCatalog creates a new StageCatalog. cache may be nil.
func NewStageCatalog(repo repository.StageRepository, cache redis.CacheStoreInterface) *StageCatalog {
	return &StageCatalog{repo: repo, cache: cache}
}

// ForOrg returns the organization's stage pipeline.
func (c *StageCatalog) ForOrg(ctx context.Context, orgID string) (*StagePipeline, error) {
	if c.cache != nil {
		if stages, err := c.cache.GetStages(ctx, orgID); err == nil && stages != nil {
			return newStagePipeline(stages), nil
		}
	}

	stages, err := c.repo.ListByOrg(ctx, orgID)
	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		_ = c.cache.SetStages(ctx, orgID, stages)
	}

	return newStagePipeline(stages), nil
}
