package storage

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/medscan/apiserver/config"
)

// Object key layout: uploaded diagnosis images live under
// patients/<seq>/, generated report PDFs under reports/<seq>/, both keyed
// by the owning account's sequential identifier.

// DiagnosisKey builds the object key for an uploaded diagnosis image,
// preserving the original file extension.
func DiagnosisKey(patientSeq int64, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	return fmt.Sprintf("patients/%d/%d%s", patientSeq, time.Now().UnixNano(), ext)
}

// ReportKey builds the object key for a generated report PDF.
func ReportKey(patientSeq int64) string {
	return fmt.Sprintf("reports/%d/%s.pdf", patientSeq, uuid.NewString())
}

// New constructs a Storage over the backend selected in config.
func New(ctx context.Context, cfg config.StorageConfig) (*Storage, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "minio":
		backend, err := NewMinioClient(cfg.Minio)
		if err != nil {
			return nil, err
		}
		return NewStorage(backend), nil
	case "gcs":
		backend, err := NewGCSClient(ctx, cfg.GCS)
		if err != nil {
			return nil, err
		}
		return NewStorage(backend), nil
	default:
		return nil, errors.New("unknown storage backend: " + cfg.Backend)
	}
}
