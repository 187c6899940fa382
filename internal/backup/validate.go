package backup

import (
	"context"
	"os"

	"github.com/Bionic-AI-Solutions/FAISS-RAG-sub001/internal/ragerr"
	"github.com/Bionic-AI-Solutions/FAISS-RAG-sub001/internal/tenantctx"
)

// Validation types.
const (
	ValidateFull         = "full"
	ValidateIntegrity    = "integrity"
	ValidateCompleteness = "completeness"
)

// ValidationReport is the result of a backup validation run.
type ValidationReport struct {
	BackupID       string            `json:"backup_id"`
	ValidationType string            `json:"validation_type"`
	Status         string            `json:"status"`
	Checks         map[string]string `json:"checks"`
	Problems       []string          `json:"problems,omitempty"`
}

// Validate checks a backup: manifest structure and tenant match, file
// existence, checksum recomputation (integrity and full), and component-set
// completeness (completeness and full).
func (s *Service) Validate(ctx context.Context, tenantID, backupID, validationType string) (*ValidationReport, error) {
	if err := tenantctx.CheckTenant(ctx, tenantID); err != nil {
		return nil, err
	}
	switch validationType {
	case "":
		validationType = ValidateFull
	case ValidateFull, ValidateIntegrity, ValidateCompleteness:
	default:
		return nil, ragerr.Validation("validation_type", "validation_type must be full, integrity or completeness")
	}

	report := &ValidationReport{
		BackupID:       backupID,
		ValidationType: validationType,
		Checks:         make(map[string]string),
	}
	fail := func(check, problem string) {
		report.Checks[check] = "failed"
		report.Problems = append(report.Problems, problem)
	}

	m, _, err := s.loadManifest(backupID)
	if err != nil {
		return nil, err
	}
	report.Checks["manifest"] = "passed"
	if m.TenantID != tenantID {
		fail("tenant_match", "manifest tenant does not match requested tenant")
	} else {
		report.Checks["tenant_match"] = "passed"
	}

	report.Checks["files"] = "passed"
	for name, c := range m.Components {
		if c.Status != StatusSuccess {
			continue
		}
		if _, err := os.Stat(c.FilePath); err != nil {
			fail("files", "missing file for component "+name)
		}
	}

	if validationType == ValidateFull || validationType == ValidateIntegrity {
		report.Checks["checksums"] = "passed"
		for name, c := range m.Components {
			if c.Status != StatusSuccess {
				continue
			}
			_, sum, err := fileChecksum(c.FilePath)
			if err != nil || sum != c.Checksum {
				fail("checksums", "checksum mismatch for component "+name)
			}
		}
	}

	if validationType == ValidateFull || validationType == ValidateCompleteness {
		report.Checks["completeness"] = "passed"
		for _, name := range []string{ComponentRelational, ComponentVector, ComponentObjects, ComponentKeyword} {
			if _, ok := m.Components[name]; !ok {
				fail("completeness", "manifest missing component "+name)
			}
		}
	}

	report.Status = "passed"
	if len(report.Problems) > 0 {
		report.Status = "failed"
	}
	return report, nil
}
