package core

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"guardianpaws/internal/blob"
	"guardianpaws/internal/triage"
	"guardianpaws/pkg/domain"

	"github.com/golang/geo/s2"
	"github.com/google/uuid"
)

// SubmitReportInput describes a new rescue report. Either Photo bytes or a
// PhotoURL must be supplied. A non-empty TriageNote skips the analyzer.
type SubmitReportInput struct {
	ReporterID       string
	Photo            []byte
	PhotoContentType string
	PhotoURL         string
	Description      string
	Location         domain.Location
	TriageNote       string
}

// ValidateLocation checks that loc is a real WGS84 coordinate.
func ValidateLocation(loc domain.Location) error {
	if math.IsNaN(loc.Latitude) || math.IsNaN(loc.Longitude) ||
		!s2.LatLngFromDegrees(loc.Latitude, loc.Longitude).IsValid() {
		return fmt.Errorf("%w: location (%v, %v) is not a valid coordinate", domain.ErrInvalidInput, loc.Latitude, loc.Longitude)
	}
	return nil
}

// validatePhotoURL accepts absolute http(s) links only; the photo endpoint
// redirects clients to them.
func validatePhotoURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: photo url must be an absolute http(s) url", domain.ErrInvalidInput)
	}
	return nil
}

func (s *Service) photoContentType(in SubmitReportInput) (string, error) {
	if int64(len(in.Photo)) > s.maxPhotoBytes {
		return "", fmt.Errorf("%w: photo exceeds %d bytes", domain.ErrInvalidInput, s.maxPhotoBytes)
	}
	contentType := strings.TrimSpace(in.PhotoContentType)
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(in.Photo)
	}
	if !strings.HasPrefix(contentType, "image/") {
		return "", fmt.Errorf("%w: photo content type %q is not an image", domain.ErrInvalidInput, contentType)
	}
	return contentType, nil
}

// SubmitReport files a new Pending report for the reporter and awards the
// submission points in the same transaction. Triage and the photo upload
// happen before the transaction; the photo is removed again if it fails.
func (s *Service) SubmitReport(ctx context.Context, in SubmitReportInput) (domain.RescueReport, error) {
	if _, ok := s.store.GetReporter(in.ReporterID); !ok {
		return domain.RescueReport{}, domain.NotFoundError{Entity: domain.EntityReporter, ID: in.ReporterID}
	}
	if err := ValidateLocation(in.Location); err != nil {
		return domain.RescueReport{}, err
	}
	if len(in.Photo) == 0 && strings.TrimSpace(in.PhotoURL) == "" {
		return domain.RescueReport{}, fmt.Errorf("%w: a photo is required", domain.ErrInvalidInput)
	}
	photo := domain.Photo{SourceURL: strings.TrimSpace(in.PhotoURL)}
	if photo.SourceURL != "" {
		if err := validatePhotoURL(photo.SourceURL); err != nil {
			return domain.RescueReport{}, err
		}
	}
	if len(in.Photo) > 0 {
		contentType, err := s.photoContentType(in)
		if err != nil {
			return domain.RescueReport{}, err
		}
		photo.ContentType = contentType
		photo.Size = int64(len(in.Photo))
	}

	var created domain.RescueReport
	err := s.run(ctx, opSubmitReport, func(ctx context.Context) (string, error) {
		id := uuid.NewString()
		note := strings.TrimSpace(in.TriageNote)
		if note == "" {
			note = s.triageNote(ctx, id, in, photo.ContentType)
		}
		if len(in.Photo) > 0 {
			photo.Key = blob.PhotoKey(id)
			if _, err := s.photos.Put(ctx, photo.Key, bytes.NewReader(in.Photo), blob.PutOptions{
				ContentType: photo.ContentType,
				Metadata:    map[string]string{"reporter": in.ReporterID},
			}); err != nil {
				return id, fmt.Errorf("store photo: %w", err)
			}
		}
		_, err := s.store.RunInTransaction(ctx, func(tx Transaction) error {
			if _, ok := tx.FindReporter(in.ReporterID); !ok {
				return domain.NotFoundError{Entity: domain.EntityReporter, ID: in.ReporterID}
			}
			var err error
			created, err = tx.CreateReport(domain.RescueReport{
				ID:          id,
				ReporterID:  in.ReporterID,
				Photo:       photo,
				Description: strings.TrimSpace(in.Description),
				Location:    in.Location,
				Status:      domain.StatusPending,
				TriageNote:  note,
			})
			if err != nil {
				return err
			}
			return s.awardPoints(tx, in.ReporterID, domain.PointsForReport)
		})
		if err != nil && photo.Key != "" {
			if _, delErr := s.photos.Delete(context.WithoutCancel(ctx), photo.Key); delErr != nil {
				s.logger.Warn("orphaned report photo", "key", photo.Key, "error", delErr)
			}
		}
		return id, err
	})
	if err != nil {
		return domain.RescueReport{}, err
	}
	return created, nil
}

func (s *Service) triageNote(ctx context.Context, reportID string, in SubmitReportInput, contentType string) string {
	if s.analyzer == nil {
		return ""
	}
	ctx, cancel := context.WithTimeout(ctx, s.triageTimeout)
	defer cancel()
	note, err := s.analyzer.Analyze(ctx, in.Photo, contentType, in.Description)
	if err != nil || strings.TrimSpace(note) == "" {
		s.logger.Warn("triage failed, storing fallback note", "report_id", reportID, "analyzer", s.analyzer.Name(), "error", err)
		return triage.FallbackNote
	}
	return strings.TrimSpace(note)
}

// GetReport returns a copy of the report.
func (s *Service) GetReport(_ context.Context, id string) (domain.RescueReport, error) {
	report, ok := s.store.GetReport(id)
	if !ok {
		return domain.RescueReport{}, domain.NotFoundError{Entity: domain.EntityReport, ID: id}
	}
	return report, nil
}

// ListReportsByReporter returns the reporter's reports, newest first.
func (s *Service) ListReportsByReporter(_ context.Context, reporterID string) []domain.RescueReport {
	return filterReports(s.store.ListReports(), func(r domain.RescueReport) bool {
		return r.ReporterID == reporterID
	})
}

// ListPendingReports returns every unclaimed report, newest first.
func (s *Service) ListPendingReports(_ context.Context) []domain.RescueReport {
	return filterReports(s.store.ListReports(), isPending)
}

// ListReportsByNGO returns the reports an NGO has acted on (assigned and no
// longer Pending), newest first.
func (s *Service) ListReportsByNGO(_ context.Context, ngoID string) []domain.RescueReport {
	return filterReports(s.store.ListReports(), func(r domain.RescueReport) bool {
		return assignedAndActive(r, ngoID)
	})
}

// ListNGODashboard returns pending reports plus the NGO's own, newest first.
func (s *Service) ListNGODashboard(_ context.Context, ngoID string) []domain.RescueReport {
	return filterReports(s.store.ListReports(), func(r domain.RescueReport) bool {
		return isPending(r) || assignedAndActive(r, ngoID)
	})
}

func isPending(r domain.RescueReport) bool { return r.Status == domain.StatusPending }

func assignedAndActive(r domain.RescueReport, ngoID string) bool {
	return r.AssignedTo(ngoID) && r.Status != domain.StatusPending
}

// filterReports keeps matching reports in their existing order, once each.
func filterReports(reports []domain.RescueReport, keep func(domain.RescueReport) bool) []domain.RescueReport {
	out := make([]domain.RescueReport, 0, len(reports))
	seen := make(map[string]struct{}, len(reports))
	for _, r := range reports {
		if _, dup := seen[r.ID]; dup || !keep(r) {
			continue
		}
		seen[r.ID] = struct{}{}
		out = append(out, r)
	}
	return out
}

// OpenPhoto streams a report's stored photo. The caller closes the reader.
func (s *Service) OpenPhoto(ctx context.Context, reportID string) (blob.Info, io.ReadCloser, error) {
	report, err := s.GetReport(ctx, reportID)
	if err != nil {
		return blob.Info{}, nil, err
	}
	if report.Photo.Key == "" {
		return blob.Info{}, nil, fmt.Errorf("photo for report %s: %w", reportID, domain.ErrNotFound)
	}
	info, rc, err := s.photos.Get(ctx, report.Photo.Key)
	if errors.Is(err, blob.ErrNotFound) {
		return blob.Info{}, nil, fmt.Errorf("photo for report %s: %w", reportID, domain.ErrNotFound)
	}
	return info, rc, err
}

// PhotoURL returns a direct link to the report photo: the original source
// URL, or a presigned URL when the blob store supports one. It returns
// blob.ErrUnsupported when the photo can only be streamed.
func (s *Service) PhotoURL(ctx context.Context, reportID string, expiry time.Duration) (string, error) {
	report, err := s.GetReport(ctx, reportID)
	if err != nil {
		return "", err
	}
	if report.Photo.Key == "" {
		if report.Photo.SourceURL == "" {
			return "", fmt.Errorf("photo for report %s: %w", reportID, domain.ErrNotFound)
		}
		return report.Photo.SourceURL, nil
	}
	return s.photos.PresignURL(ctx, report.Photo.Key, blob.SignedURLOptions{Expiry: expiry})
}

// PrunePhotos deletes stored photos whose report does not exist, typically
// left behind by a crash between upload and commit. Blobs younger than
// DefaultPhotoPruneWait are skipped so in-flight submissions are untouched.
func (s *Service) PrunePhotos(ctx context.Context) (int, error) {
	removed := 0
	err := s.run(ctx, opPrunePhotos, func(ctx context.Context) (string, error) {
		infos, err := s.photos.List(ctx, blob.PhotoPrefix)
		if err != nil {
			return "", err
		}
		cutoff := s.clock.Now().Add(-DefaultPhotoPruneWait)
		for _, info := range infos {
			reportID, err := blob.ReportIDFromKey(info.Key)
			if err != nil || info.LastModified.After(cutoff) {
				continue
			}
			if _, ok := s.store.GetReport(reportID); ok {
				continue
			}
			existed, err := s.photos.Delete(ctx, info.Key)
			if err != nil {
				return info.Key, err
			}
			if existed {
				removed++
				s.logger.Info("pruned orphaned photo", "key", info.Key)
			}
		}
		return "", nil
	})
	return removed, err
}
