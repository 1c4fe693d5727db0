// Package blob is the entry point for photo storage. It re-exports the core
// abstractions and selects an infra backend from configuration.
package blob

import (
	"fmt"
	"strings"

	"guardianpaws/internal/blob/core"
)

type (
	// Driver identifies a blob backend driver.
	Driver = core.Driver
	// PutOptions configures a blob write.
	PutOptions = core.PutOptions
	// SignedURLOptions configures URL pre-signing.
	SignedURLOptions = core.SignedURLOptions
	// Info describes stored blob metadata.
	Info = core.Info
	// Store is the interface for blob storage backends.
	Store = core.Store
)

const (
	DriverFilesystem = core.DriverFilesystem
	DriverS3         = core.DriverS3
	DriverMemory     = core.DriverMemory
)

var (
	ErrUnsupported = core.ErrUnsupported
	ErrNotFound    = core.ErrNotFound
	ErrExists      = core.ErrExists
)

// PhotoPrefix is the key prefix under which report photos live.
const PhotoPrefix = "reports/"

const photoSuffix = "/photo"

// PhotoKey returns the blob key for a report's photo.
func PhotoKey(reportID string) string {
	return PhotoPrefix + reportID + photoSuffix
}

// ReportIDFromKey extracts the report id from a photo key.
func ReportIDFromKey(key string) (string, error) {
	if !strings.HasPrefix(key, PhotoPrefix) || !strings.HasSuffix(key, photoSuffix) {
		return "", fmt.Errorf("not a photo key: %q", key)
	}
	id := strings.TrimSuffix(strings.TrimPrefix(key, PhotoPrefix), photoSuffix)
	if id == "" || strings.Contains(id, "/") {
		return "", fmt.Errorf("not a photo key: %q", key)
	}
	return id, nil
}
