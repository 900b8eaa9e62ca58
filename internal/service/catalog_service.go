// FILE: internal/service/catalog_service.go
package service

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"ai-deskmate-be/internal/entity"
	"ai-deskmate-be/internal/pkg/logger"
	"ai-deskmate-be/internal/repository/unitofwork"
	"ai-deskmate-be/pkg/embedding"
	"ai-deskmate-be/pkg/metrics"
	"ai-deskmate-be/pkg/prototype"
	"ai-deskmate-be/pkg/routing"
)

type ICatalogService interface {
	// Rebuild re-reads the active catalog, embeds rows that still lack a
	// vector, and swaps a fresh snapshot into the router. The old snapshot
	// stays live until the new one validates.
	Rebuild(ctx context.Context) (*prototype.Snapshot, error)
}

type catalogService struct {
	uowFactory unitofwork.RepositoryFactory
	embedder   embedding.EmbeddingProvider
	prototypes *prototype.Store
	logger     logger.ILogger
	seq        atomic.Uint64
}

func NewCatalogService(
	uowFactory unitofwork.RepositoryFactory,
	embedder embedding.EmbeddingProvider,
	prototypes *prototype.Store,
	log logger.ILogger,
) ICatalogService {
	return &catalogService{
		uowFactory: uowFactory,
		embedder:   embedder,
		prototypes: prototypes,
		logger:     log,
	}
}

func (s *catalogService) Rebuild(ctx context.Context) (*prototype.Snapshot, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	repo := uow.PrototypeRepository()

	rows, err := repo.FindActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("load prototype catalog: %w", err)
	}

	embedded := 0
	for _, row := range rows {
		if len(row.Embedding) > 0 {
			continue
		}
		res, err := s.embedder.Generate(ctx, row.Text, "RETRIEVAL_DOCUMENT")
		if err != nil {
			return nil, fmt.Errorf("embed prototype %s: %w", row.Id, err)
		}
		row.Embedding = embedding.Normalize(res.Embedding.Values)
		if err := repo.Update(ctx, row); err != nil {
			// The vector still serves this snapshot; the next rebuild
			// simply embeds the row again.
			s.logger.Warn("CatalogService", "Failed to persist prototype embedding", map[string]interface{}{
				"prototype_id": row.Id,
				"error":        err,
			})
		}
		embedded++
	}

	version := fmt.Sprintf("%s-%d", time.Now().UTC().Format("20060102T150405"), s.seq.Add(1))
	snap, err := BuildSnapshot(version, rows)
	if err != nil {
		return nil, fmt.Errorf("build snapshot %s: %w", version, err)
	}
	if err := s.prototypes.Swap(snap); err != nil {
		return nil, fmt.Errorf("swap snapshot %s: %w", version, err)
	}

	for _, category := range routing.AllCategories() {
		metrics.PrototypeCatalogSize.WithLabelValues(string(category)).Set(float64(len(snap.ExamplesFor(category))))
	}

	s.logger.Info("CatalogService", "Prototype snapshot swapped", map[string]interface{}{
		"version":  snap.Version(),
		"examples": snap.Count(),
		"embedded": embedded,
	})
	return snap, nil
}

// BuildSnapshot converts catalog rows into a validated routing snapshot.
// Rows without an embedding are skipped here; NewSnapshot still rejects the
// result when that leaves a category empty.
func BuildSnapshot(version string, rows []*entity.PrototypeExample) (*prototype.Snapshot, error) {
	examples := make([]prototype.Example, 0, len(rows))
	for _, row := range rows {
		if len(row.Embedding) == 0 {
			continue
		}
		category, err := routing.ParseCategory(row.Category)
		if err != nil {
			return nil, fmt.Errorf("prototype %s: %w", row.Id, err)
		}
		examples = append(examples, prototype.Example{
			Category:  category,
			Text:      row.Text,
			Embedding: row.Embedding,
			Weight:    row.Weight,
		})
	}
	return prototype.NewSnapshot(version, examples)
}
