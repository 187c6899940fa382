package backup

import (
	"context"
	"math"

	"go.uber.org/zap"

	"github.com/Bionic-AI-Solutions/FAISS-RAG-sub001/internal/tenantctx"
)

// embedBatchSize bounds how many documents are embedded per call during a
// rebuild.
const embedBatchSize = 100

// RebuildReport summarizes an index rebuild.
type RebuildReport struct {
	TenantID           string   `json:"tenant_id"`
	DocumentsProcessed int      `json:"documents_processed"`
	IndexSize          int      `json:"index_size"`
	IntegrityValidated bool     `json:"integrity_validated"`
	Warnings           []string `json:"warnings,omitempty"`
}

// Rebuild regenerates the tenant's vector index from source data.
// Incremental rebuilds degrade to full with a warning.
func (s *Service) Rebuild(ctx context.Context, tenantID, rebuildType string) (*RebuildReport, error) {
	if err := tenantctx.CheckTenant(ctx, tenantID); err != nil {
		return nil, err
	}
	report, err := s.rebuildVectors(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if rebuildType == "incremental" {
		report.Warnings = append(report.Warnings, "incremental rebuild not supported, performed full rebuild")
	}
	return report, nil
}

// rebuildVectors drops and repopulates the vector index. Embeddings are
// regenerated from object store content, falling back to the title when an
// object is missing. The rebuilt count must land within 10% of the live
// document count to be considered valid.
func (s *Service) rebuildVectors(ctx context.Context, tenantID string) (*RebuildReport, error) {
	docs, err := s.store.ActiveDocuments(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if err := s.vector.DeleteIndex(ctx, tenantID); err != nil {
		s.logger.Warn("dropping vector index before rebuild failed",
			zap.String("tenant_id", tenantID), zap.Error(err))
	}
	if err := s.vector.Ensure(ctx, tenantID, s.embedder.Dimension()); err != nil {
		return nil, err
	}

	report := &RebuildReport{TenantID: tenantID}
	for start := 0; start < len(docs); start += embedBatchSize {
		end := min(start+embedBatchSize, len(docs))
		batch := docs[start:end]

		texts := make([]string, len(batch))
		for i, d := range batch {
			if content, err := s.objects.GetDocument(ctx, tenantID, d.ID); err == nil {
				texts[i] = string(content)
			} else {
				texts[i] = d.Title
			}
		}
		vecs, err := s.embedder.Embed(ctx, texts)
		if err != nil {
			return nil, err
		}
		for i, d := range batch {
			if err := s.vector.Add(ctx, tenantID, d.ID, vecs[i]); err != nil {
				return nil, err
			}
			report.DocumentsProcessed++
		}
	}
	if err := s.vector.Save(ctx, tenantID); err != nil {
		return nil, err
	}

	count, err := s.vector.Count(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	report.IndexSize = count
	expected := len(docs)
	if expected == 0 {
		report.IntegrityValidated = count == 0
	} else {
		report.IntegrityValidated = math.Abs(float64(count-expected)) <= 0.1*float64(expected)
	}
	s.logger.Info("vector index rebuilt",
		zap.String("tenant_id", tenantID),
		zap.Int("documents_processed", report.DocumentsProcessed),
		zap.Int("index_size", report.IndexSize),
		zap.Bool("integrity_validated", report.IntegrityValidated))
	return report, nil
}
