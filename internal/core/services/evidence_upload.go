package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/SscSPs/issue_tracker/internal/apperrors"
	"github.com/SscSPs/issue_tracker/internal/core/domain"
	portssvc "github.com/SscSPs/issue_tracker/internal/core/ports/services"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// MaxEvidenceFiles caps the receipt files accepted in one upload.
const MaxEvidenceFiles = 10

// AllowedEvidenceTypes are the detected content types accepted as receipts.
var AllowedEvidenceTypes = []string{
	"image/jpeg",
	"image/png",
	"image/webp",
	"image/heic",
	"application/pdf",
}

type preparedEvidence struct {
	file portssvc.EvidenceFile
	mime *mimetype.MIME
}

// UploadEvidence stores a new receipt set and moves the issue to review_evidence.
// New blobs are written and verified before the record is touched; the blobs the
// conditional update overwrote are only removed once it has succeeded.
func (s *issueService) UploadEvidence(
	ctx context.Context,
	issueID string,
	actor domain.Actor,
	files []portssvc.EvidenceFile,
	remainingAmount decimal.Decimal,
) (*portssvc.EvidenceUploadResult, error) {
	prepared, err := s.prepareEvidence(files, remainingAmount)
	if err != nil {
		return nil, err
	}

	issue, err := s.loadIssue(ctx, issueID)
	if err != nil {
		return nil, err
	}
	tr, err := s.lifecycle.Decide(issue, actor, domain.ActionUploadEvidence)
	if err != nil {
		return nil, err
	}
	if err := domain.ValidateRemainingAmount(remainingAmount, issue.Amount); err != nil {
		return nil, err
	}

	paths := make([]string, len(prepared))
	for i, p := range prepared {
		paths[i] = fmt.Sprintf("receipts/%s/%s%s", issue.OwnerID, uuid.NewString(), p.mime.Extension())
	}

	if err := s.writeBlobs(ctx, prepared, paths); err != nil {
		s.LogError(ctx, err, "Failed to store receipt files",
			slog.String("issue_id", issueID),
			slog.Int("count", len(paths)))
		s.deleteBlobs(ctx, paths, "Failed to clean up receipt files after upload error")
		return nil, apperrors.NewDependencyError("failed to store receipt files", err)
	}

	if err := s.verifyBlobs(ctx, paths); err != nil {
		s.LogError(ctx, err, "Stored receipt files could not be verified",
			slog.String("issue_id", issueID))
		s.deleteBlobs(ctx, paths, "Failed to clean up unverified receipt files")
		return nil, apperrors.NewDependencyError("failed to verify stored receipt files", err)
	}

	update := domain.EvidenceUpdate{Paths: paths, RemainingAmount: remainingAmount}
	superseded, err := s.issueRepo.ReplaceEvidence(ctx, issueID, tr.From, tr.To, update, s.now().UTC())
	if err != nil {
		s.LogError(ctx, err, "Failed to record receipt evidence",
			slog.String("issue_id", issueID),
			slog.String("expected_status", tr.From.String()))
		s.deleteBlobs(ctx, paths, "Failed to roll back receipt files")
		return nil, err
	}

	// Delete what the update overwrote, which may differ from the evidence loaded above.
	if len(superseded) > 0 {
		s.deleteBlobs(ctx, superseded, "Failed to delete superseded receipt files")
	}

	s.LogInfo(ctx, "Receipt evidence uploaded",
		slog.String("issue_id", issueID),
		slog.Int("count", len(paths)),
		slog.String("remaining_amount", remainingAmount.String()),
		slog.String("from", tr.From.String()))
	s.trackTransition(actor, issueID, tr)
	return &portssvc.EvidenceUploadResult{Transition: tr, Paths: paths}, nil
}

// prepareEvidence checks the payload without touching any store.
func (s *issueService) prepareEvidence(files []portssvc.EvidenceFile, remainingAmount decimal.Decimal) ([]preparedEvidence, error) {
	if len(files) == 0 {
		return nil, apperrors.NewValidationFailedError("at least one receipt file is required")
	}
	if len(files) > MaxEvidenceFiles {
		return nil, apperrors.NewValidationFailedError(fmt.Sprintf("at most %d receipt files can be uploaded at once", MaxEvidenceFiles))
	}
	if remainingAmount.IsNegative() {
		return nil, apperrors.NewValidationFailedError("remaining_amount must not be negative")
	}
	if err := domain.ValidateAmountPrecision("remaining_amount", remainingAmount); err != nil {
		return nil, err
	}

	prepared := make([]preparedEvidence, 0, len(files))
	for _, f := range files {
		if f.Size <= 0 {
			return nil, apperrors.NewValidationFailedError(fmt.Sprintf("receipt %q is empty", f.Filename))
		}
		if s.maxUploadBytes > 0 && f.Size > s.maxUploadBytes {
			return nil, apperrors.NewValidationFailedError(fmt.Sprintf("receipt %q exceeds the maximum size of %d bytes", f.Filename, s.maxUploadBytes))
		}
		mt, err := detectContentType(f)
		if err != nil {
			return nil, apperrors.NewValidationFailedError(fmt.Sprintf("receipt %q could not be read", f.Filename))
		}
		if !mimetype.EqualsAny(mt.String(), AllowedEvidenceTypes...) {
			return nil, apperrors.NewValidationFailedError(fmt.Sprintf("receipt %q has unsupported type %s", f.Filename, mt.String()))
		}
		prepared = append(prepared, preparedEvidence{file: f, mime: mt})
	}
	return prepared, nil
}

func detectContentType(f portssvc.EvidenceFile) (*mimetype.MIME, error) {
	if f.Open == nil {
		return nil, fmt.Errorf("no content for %s", f.Filename)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return mimetype.DetectReader(rc)
}

func (s *issueService) writeBlobs(ctx context.Context, prepared []preparedEvidence, paths []string) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.uploadConcurrency)
	for i, p := range prepared {
		i, p := i, p
		g.Go(func() error {
			rc, err := p.file.Open()
			if err != nil {
				return fmt.Errorf("open %s: %w", p.file.Filename, err)
			}
			defer rc.Close()
			if err := s.blobStore.Upload(gctx, paths[i], rc, p.mime.String()); err != nil {
				return fmt.Errorf("upload %s: %w", paths[i], err)
			}
			return nil
		})
	}
	return g.Wait()
}

func (s *issueService) verifyBlobs(ctx context.Context, paths []string) error {
	for _, p := range paths {
		ok, err := s.blobStore.Exists(ctx, p)
		if err != nil {
			return fmt.Errorf("check %s: %w", p, err)
		}
		if !ok {
			return fmt.Errorf("stored file %s is missing", p)
		}
	}
	return nil
}

// deleteBlobs is best effort: a failure is logged and never returned.
func (s *issueService) deleteBlobs(ctx context.Context, paths []string, failureMsg string) {
	if err := s.blobStore.Delete(context.WithoutCancel(ctx), paths); err != nil {
		s.LogWarn(ctx, err, failureMsg, slog.Any("paths", paths))
	}
}
