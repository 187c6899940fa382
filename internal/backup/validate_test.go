package backup

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Bionic-AI-Solutions/FAISS-RAG-sub001/internal/ragerr"
	"github.com/Bionic-AI-Solutions/FAISS-RAG-sub001/internal/tenantctx"
)

func tenantCtx(tenantID string, role tenantctx.Role) context.Context {
	return tenantctx.WithPrincipal(context.Background(), &tenantctx.Principal{
		TenantID: tenantID,
		UserID:   "u1",
		Role:     role,
	})
}

func newTestService(t *testing.T) *Service {
	t.Helper()
	s, err := New(t.TempDir(), nil, nil, nil, nil, nil, nil)
	require.NoError(t, err)
	return s
}

// writeBackup lays down a complete backup directory with a consistent
// manifest, returning the backup ID.
func writeBackup(t *testing.T, s *Service, tenantID string) string {
	t.Helper()
	backupID := "backup_" + tenantID + "_20260810T120000"
	dir := filepath.Join(s.root, backupID)
	require.NoError(t, os.MkdirAll(dir, 0o755))

	m := &Manifest{
		BackupID:   backupID,
		TenantID:   tenantID,
		BackupType: "full",
		Timestamp:  time.Date(2026, 8, 10, 12, 0, 0, 0, time.UTC),
		Components: make(map[string]Component),
		Status:     StatusSuccess,
	}
	for name, file := range componentFiles {
		path := filepath.Join(dir, file)
		require.NoError(t, writeJSON(path, map[string]string{"component": name}))
		size, sum, err := fileChecksum(path)
		require.NoError(t, err)
		m.Components[name] = Component{FilePath: path, FileSize: size, Checksum: sum, Status: StatusSuccess}
		m.TotalSize += size
	}
	require.NoError(t, writeJSON(filepath.Join(dir, "manifest.json"), m))
	return backupID
}

func TestValidatePasses(t *testing.T) {
	s := newTestService(t)
	ctx := tenantCtx("t1", tenantctx.RoleTenantAdmin)
	backupID := writeBackup(t, s, "t1")

	report, err := s.Validate(ctx, "t1", backupID, "")
	require.NoError(t, err)
	assert.Equal(t, "passed", report.Status)
	assert.Equal(t, ValidateFull, report.ValidationType)
	assert.Empty(t, report.Problems)
	for _, check := range []string{"manifest", "tenant_match", "files", "checksums", "completeness"} {
		assert.Equal(t, "passed", report.Checks[check], check)
	}
}

func TestValidateDetectsCorruption(t *testing.T) {
	s := newTestService(t)
	ctx := tenantCtx("t1", tenantctx.RoleTenantAdmin)
	backupID := writeBackup(t, s, "t1")

	// Corrupt the relational dump after the manifest was written.
	path := filepath.Join(s.root, backupID, componentFiles[ComponentRelational])
	require.NoError(t, os.WriteFile(path, []byte("tampered"), 0o644))

	report, err := s.Validate(ctx, "t1", backupID, ValidateIntegrity)
	require.NoError(t, err)
	assert.Equal(t, "failed", report.Status)
	assert.Equal(t, "failed", report.Checks["checksums"])
	assert.NotEmpty(t, report.Problems)

	// Completeness-only validation does not recompute checksums.
	report, err = s.Validate(ctx, "t1", backupID, ValidateCompleteness)
	require.NoError(t, err)
	assert.Equal(t, "passed", report.Status)
}

func TestValidateDetectsMissingFile(t *testing.T) {
	s := newTestService(t)
	ctx := tenantCtx("t1", tenantctx.RoleTenantAdmin)
	backupID := writeBackup(t, s, "t1")

	require.NoError(t, os.Remove(filepath.Join(s.root, backupID, componentFiles[ComponentObjects])))

	report, err := s.Validate(ctx, "t1", backupID, ValidateFull)
	require.NoError(t, err)
	assert.Equal(t, "failed", report.Status)
	assert.Equal(t, "failed", report.Checks["files"])
}

func TestValidateDetectsMissingComponent(t *testing.T) {
	s := newTestService(t)
	ctx := tenantCtx("t1", tenantctx.RoleTenantAdmin)
	backupID := writeBackup(t, s, "t1")

	m, dir, err := s.loadManifest(backupID)
	require.NoError(t, err)
	delete(m.Components, ComponentKeyword)
	require.NoError(t, writeJSON(filepath.Join(dir, "manifest.json"), m))

	report, err := s.Validate(ctx, "t1", backupID, ValidateCompleteness)
	require.NoError(t, err)
	assert.Equal(t, "failed", report.Status)
	assert.Equal(t, "failed", report.Checks["completeness"])
}

func TestValidateTenantMismatch(t *testing.T) {
	s := newTestService(t)
	backupID := writeBackup(t, s, "t1")

	// A non-admin addressing another tenant is blocked before any file IO.
	_, err := s.Validate(tenantCtx("t2", tenantctx.RoleTenantAdmin), "t1", backupID, "")
	require.Error(t, err)
	assert.Equal(t, ragerr.KindTenantIsolation, ragerr.KindOf(err))

	// uber_admin passes the guard but the manifest tenant still must match
	// the addressed tenant.
	report, err := s.Validate(tenantCtx("", tenantctx.RoleUberAdmin), "t2", backupID, "")
	require.NoError(t, err)
	assert.Equal(t, "failed", report.Status)
	assert.Equal(t, "failed", report.Checks["tenant_match"])
}

func TestValidateUnknownBackup(t *testing.T) {
	s := newTestService(t)
	_, err := s.Validate(tenantCtx("t1", tenantctx.RoleTenantAdmin), "t1", "backup_t1_nope", "")
	require.Error(t, err)
	assert.Equal(t, ragerr.KindNotFound, ragerr.KindOf(err))
}

func TestValidateBadValidationType(t *testing.T) {
	s := newTestService(t)
	_, err := s.Validate(tenantCtx("t1", tenantctx.RoleTenantAdmin), "t1", "any", "partial")
	require.Error(t, err)
	assert.Equal(t, ragerr.KindValidation, ragerr.KindOf(err))
}

func TestFileChecksumStable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "f.json")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o644))

	size, sum, err := fileChecksum(path)
	require.NoError(t, err)
	assert.Equal(t, int64(5), size)
	// sha256("hello")
	assert.Equal(t, "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824", sum)
}
