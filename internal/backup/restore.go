package backup

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/Bionic-AI-Solutions/FAISS-RAG-sub001/internal/keyword"
	"github.com/Bionic-AI-Solutions/FAISS-RAG-sub001/internal/ragerr"
	"github.com/Bionic-AI-Solutions/FAISS-RAG-sub001/internal/store"
	"github.com/Bionic-AI-Solutions/FAISS-RAG-sub001/internal/tenantctx"
)

// RestoreReport is the per-component outcome of a restore.
type RestoreReport struct {
	BackupID       string            `json:"backup_id"`
	TenantID       string            `json:"tenant_id"`
	SafetyBackupID string            `json:"safety_backup_id"`
	Components     map[string]string `json:"components"`
	Status         string            `json:"status"`
	Errors         []string          `json:"errors,omitempty"`
}

// Restore rewrites the tenant's backends from a backup. A safety backup of
// the current state is taken first; on partial failure no rollback is
// attempted and the safety backup ID is the documented recovery path.
func (s *Service) Restore(ctx context.Context, tenantID, backupID string) (*RestoreReport, error) {
	if err := tenantctx.CheckTenant(ctx, tenantID); err != nil {
		return nil, err
	}
	validation, err := s.Validate(ctx, tenantID, backupID, ValidateFull)
	if err != nil {
		return nil, err
	}
	if validation.Status != "passed" {
		return nil, ragerr.Validation("backup_id", "backup %s failed validation: %s",
			backupID, strings.Join(validation.Problems, "; "))
	}
	m, dir, err := s.loadManifest(backupID)
	if err != nil {
		return nil, err
	}

	safety, err := s.Backup(ctx, tenantID, "full", "")
	if err != nil {
		return nil, ragerr.Wrap(err, ragerr.KindInternal, "safety_backup_failed",
			"refusing to restore without a safety backup")
	}

	report := &RestoreReport{
		BackupID:       backupID,
		TenantID:       tenantID,
		SafetyBackupID: safety.BackupID,
		Components:     make(map[string]string),
		Status:         StatusSuccess,
	}
	run := func(name string, fn func() error) {
		c, ok := m.Components[name]
		if !ok || c.Status != StatusSuccess {
			report.Components[name] = StatusSkipped
			return
		}
		if err := fn(); err != nil {
			s.logger.Error("restore component failed",
				zap.String("tenant_id", tenantID),
				zap.String("component", name), zap.Error(err))
			report.Components[name] = StatusFailed
			report.Errors = append(report.Errors, name+": "+err.Error())
			report.Status = StatusPartial
			return
		}
		report.Components[name] = StatusSuccess
	}

	// Relational and objects first: they are the sources the index restores
	// derive from.
	run(ComponentRelational, func() error {
		return s.restoreRelational(ctx, dir)
	})
	run(ComponentObjects, func() error {
		return s.restoreObjects(ctx, tenantID, m.Components[ComponentObjects].FilePath)
	})
	run(ComponentKeyword, func() error {
		return s.restoreKeyword(ctx, tenantID, m.Components[ComponentKeyword].FilePath)
	})
	run(ComponentVector, func() error {
		_, err := s.rebuildVectors(ctx, tenantID)
		return err
	})

	s.logger.Info("tenant restore completed",
		zap.String("tenant_id", tenantID),
		zap.String("backup_id", backupID),
		zap.String("status", report.Status))
	return report, nil
}

func (s *Service) restoreRelational(ctx context.Context, dir string) error {
	raw, err := os.ReadFile(filepath.Join(dir, componentFiles[ComponentRelational]))
	if err != nil {
		return ragerr.Internal(err, "reading relational dump")
	}
	var export store.TenantExport
	if err := json.Unmarshal(raw, &export); err != nil {
		return ragerr.Internal(err, "decoding relational dump")
	}
	return s.store.ImportTenant(ctx, &export)
}

func (s *Service) restoreObjects(ctx context.Context, tenantID, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return ragerr.Internal(err, "opening object archive")
	}
	defer f.Close()
	gz, err := gzip.NewReader(f)
	if err != nil {
		return ragerr.Internal(err, "opening archive compressor")
	}
	defer gz.Close()

	if err := s.objects.EnsureBucket(ctx, tenantID); err != nil {
		return err
	}
	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return ragerr.Internal(err, "reading archive")
		}
		id := strings.TrimPrefix(hdr.Name, "documents/")
		if id == "" || id == hdr.Name {
			continue
		}
		content, err := io.ReadAll(tr)
		if err != nil {
			return ragerr.Internal(err, "reading archive entry")
		}
		if err := s.objects.PutDocument(ctx, tenantID, id, content); err != nil {
			return err
		}
	}
}

func (s *Service) restoreKeyword(ctx context.Context, tenantID, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return ragerr.Internal(err, "reading keyword dump")
	}
	var docs []keyword.Document
	if err := json.Unmarshal(raw, &docs); err != nil {
		return ragerr.Internal(err, "decoding keyword dump")
	}
	if err := s.keyword.DeleteIndex(ctx, tenantID); err != nil {
		return err
	}
	if err := s.keyword.Ensure(ctx, tenantID); err != nil {
		return err
	}
	for _, d := range docs {
		if err := s.keyword.IndexDocument(ctx, tenantID, d); err != nil {
			return err
		}
	}
	return nil
}
