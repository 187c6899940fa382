// Package backup implements tenant data protection: backup with a checksum
// manifest, validation, restore with a safety backup, and vector index
// rebuild.
//
// A backup is a directory backup_{tenant}_{timestamp} holding one dump file
// per backend component plus manifest.json. Component names follow the
// deployed backend products: postgresql, faiss, minio, meilisearch.
package backup

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/Bionic-AI-Solutions/FAISS-RAG-sub001/internal/embeddings"
	"github.com/Bionic-AI-Solutions/FAISS-RAG-sub001/internal/keyword"
	"github.com/Bionic-AI-Solutions/FAISS-RAG-sub001/internal/objectstore"
	"github.com/Bionic-AI-Solutions/FAISS-RAG-sub001/internal/ragerr"
	"github.com/Bionic-AI-Solutions/FAISS-RAG-sub001/internal/store"
	"github.com/Bionic-AI-Solutions/FAISS-RAG-sub001/internal/tenantctx"
	"github.com/Bionic-AI-Solutions/FAISS-RAG-sub001/internal/vectorstore"
)

// Backend component names as they appear in manifests.
const (
	ComponentRelational = "postgresql"
	ComponentVector     = "faiss"
	ComponentObjects    = "minio"
	ComponentKeyword    = "meilisearch"
)

const (
	StatusSuccess = "success"
	StatusSkipped = "skipped"
	StatusPartial = "partial"
	StatusFailed  = "failed"
)

var componentFiles = map[string]string{
	ComponentRelational: "relational.json",
	ComponentVector:     "vectors.json",
	ComponentObjects:    "objects.tar.gz",
	ComponentKeyword:    "keyword.json",
}

// Component is one backend's entry in a manifest.
type Component struct {
	FilePath string `json:"file_path"`
	FileSize int64  `json:"file_size"`
	Checksum string `json:"checksum"`
	Status   string `json:"status"`
	Error    string `json:"error,omitempty"`
}

// Manifest describes one completed backup.
type Manifest struct {
	BackupID   string               `json:"backup_id"`
	TenantID   string               `json:"tenant_id"`
	BackupType string               `json:"backup_type"`
	Timestamp  time.Time            `json:"timestamp"`
	Components map[string]Component `json:"components"`
	TotalSize  int64                `json:"total_size"`
	Status     string               `json:"status"`
	Warnings   []string             `json:"warnings,omitempty"`
}

// vectorDump is the faiss component payload: enough to verify counts and
// drive a rebuild, since vectors are regenerable from content.
type vectorDump struct {
	Count       int      `json:"count"`
	DocumentIDs []string `json:"document_ids"`
}

// Service runs backup lifecycle operations.
type Service struct {
	root     string
	store    *store.Store
	vector   vectorstore.Index
	keyword  keyword.Index
	objects  *objectstore.Client
	embedder embeddings.Provider
	logger   *zap.Logger
}

// New builds the service. root is the backup directory root.
func New(root string, st *store.Store, vec vectorstore.Index, kw keyword.Index, obj *objectstore.Client, emb embeddings.Provider, logger *zap.Logger) (*Service, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, ragerr.Internal(err, "creating backup root")
	}
	return &Service{root: root, store: st, vector: vec, keyword: kw, objects: obj, embedder: emb, logger: logger}, nil
}

// Backup dumps all four backends for the tenant and writes the manifest.
// Incremental backups degrade to full with a warning; per-component
// failures mark the component skipped rather than failing the whole run.
func (s *Service) Backup(ctx context.Context, tenantID, backupType, location string) (*Manifest, error) {
	if err := tenantctx.CheckTenant(ctx, tenantID); err != nil {
		return nil, err
	}
	m := &Manifest{
		TenantID:   tenantID,
		BackupType: backupType,
		Timestamp:  time.Now().UTC(),
		Components: make(map[string]Component),
		Status:     StatusSuccess,
	}
	if backupType == "incremental" {
		m.BackupType = "full"
		m.Warnings = append(m.Warnings, "incremental backup not supported, performed full backup")
	}
	m.BackupID = fmt.Sprintf("backup_%s_%s", tenantID, m.Timestamp.Format("20060102T150405"))

	root := s.root
	if location != "" {
		root = location
	}
	dir := filepath.Join(root, m.BackupID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, ragerr.Internal(err, "creating backup directory")
	}

	s.runComponent(m, ComponentRelational, dir, func(path string) error {
		export, err := s.store.ExportTenant(ctx, tenantID)
		if err != nil {
			return err
		}
		return writeJSON(path, export)
	})
	s.runComponent(m, ComponentVector, dir, func(path string) error {
		ids, err := s.store.ActiveDocumentIDs(ctx, tenantID)
		if err != nil {
			return err
		}
		return writeJSON(path, vectorDump{Count: len(ids), DocumentIDs: ids})
	})
	s.runComponent(m, ComponentObjects, dir, func(path string) error {
		return s.archiveObjects(ctx, tenantID, path)
	})
	s.runComponent(m, ComponentKeyword, dir, func(path string) error {
		docs, err := s.keywordDocuments(ctx, tenantID)
		if err != nil {
			return err
		}
		return writeJSON(path, docs)
	})

	for _, c := range m.Components {
		m.TotalSize += c.FileSize
		if c.Status != StatusSuccess {
			m.Status = StatusPartial
		}
	}
	if err := writeJSON(filepath.Join(dir, "manifest.json"), m); err != nil {
		return nil, err
	}
	s.logger.Info("tenant backup completed",
		zap.String("tenant_id", tenantID),
		zap.String("backup_id", m.BackupID),
		zap.String("status", m.Status),
		zap.Int64("total_size", m.TotalSize))
	return m, nil
}

// runComponent executes one component dump and records its manifest entry.
func (s *Service) runComponent(m *Manifest, name, dir string, dump func(path string) error) {
	path := filepath.Join(dir, componentFiles[name])
	entry := Component{FilePath: path, Status: StatusSuccess}
	if err := dump(path); err != nil {
		s.logger.Warn("backup component skipped",
			zap.String("tenant_id", m.TenantID),
			zap.String("component", name), zap.Error(err))
		entry.Status = StatusSkipped
		entry.Error = err.Error()
		m.Components[name] = entry
		return
	}
	size, sum, err := fileChecksum(path)
	if err != nil {
		entry.Status = StatusSkipped
		entry.Error = err.Error()
		m.Components[name] = entry
		return
	}
	entry.FileSize = size
	entry.Checksum = sum
	m.Components[name] = entry
}

// archiveObjects writes every object in the tenant's bucket into a gzip tar.
func (s *Service) archiveObjects(ctx context.Context, tenantID, path string) error {
	ids, err := s.objects.ListDocumentIDs(ctx, tenantID)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return ragerr.Internal(err, "creating object archive")
	}
	defer f.Close()
	gz := gzip.NewWriter(f)
	tw := tar.NewWriter(gz)

	for _, id := range ids {
		content, err := s.objects.GetDocument(ctx, tenantID, id)
		if err != nil {
			return err
		}
		hdr := &tar.Header{
			Name:    "documents/" + id,
			Mode:    0o644,
			Size:    int64(len(content)),
			ModTime: time.Now().UTC(),
		}
		if err := tw.WriteHeader(hdr); err != nil {
			return ragerr.Internal(err, "writing archive header")
		}
		if _, err := tw.Write(content); err != nil {
			return ragerr.Internal(err, "writing archive entry")
		}
	}
	if err := tw.Close(); err != nil {
		return ragerr.Internal(err, "closing archive")
	}
	if err := gz.Close(); err != nil {
		return ragerr.Internal(err, "closing archive compressor")
	}
	return nil
}

// keywordDocuments rebuilds the keyword corpus from relational metadata and
// object content.
func (s *Service) keywordDocuments(ctx context.Context, tenantID string) ([]keyword.Document, error) {
	docs, err := s.store.ActiveDocuments(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	out := make([]keyword.Document, 0, len(docs))
	for _, d := range docs {
		kd := keyword.Document{
			ID:        d.ID,
			TenantID:  d.TenantID,
			Title:     d.Title,
			Metadata:  string(d.Metadata),
			CreatedAt: d.CreatedAt,
		}
		if content, err := s.objects.GetDocument(ctx, tenantID, d.ID); err == nil {
			kd.Content = string(content)
		}
		out = append(out, kd)
	}
	return out, nil
}

func writeJSON(path string, v any) error {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return ragerr.Internal(err, "encoding %s", filepath.Base(path))
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return ragerr.Internal(err, "writing %s", filepath.Base(path))
	}
	return nil
}

// fileChecksum returns the file size and lowercase hex SHA-256.
func fileChecksum(path string) (int64, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, "", ragerr.Internal(err, "opening %s", filepath.Base(path))
	}
	defer f.Close()
	h := sha256.New()
	size, err := io.Copy(h, f)
	if err != nil {
		return 0, "", ragerr.Internal(err, "hashing %s", filepath.Base(path))
	}
	return size, hex.EncodeToString(h.Sum(nil)), nil
}

// loadManifest locates a backup directory by ID and decodes its manifest.
func (s *Service) loadManifest(backupID string) (*Manifest, string, error) {
	dir := filepath.Join(s.root, backupID)
	raw, err := os.ReadFile(filepath.Join(dir, "manifest.json"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, "", ragerr.NotFound("backup", backupID)
		}
		return nil, "", ragerr.Internal(err, "reading manifest for %s", backupID)
	}
	var m Manifest
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, "", ragerr.Internal(err, "decoding manifest for %s", backupID)
	}
	return &m, dir, nil
}
