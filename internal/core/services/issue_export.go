package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/SscSPs/issue_tracker/internal/apperrors"
	"github.com/SscSPs/issue_tracker/internal/core/domain"
	"github.com/xuri/excelize/v2"
)

const exportSheetName = "Issues"

var exportHeaders = []any{
	"ID", "Title", "Reason", "Amount", "Remaining Amount", "Status",
	"Owner", "Owner Email", "Receipts", "Created At", "Updated At",
}

// ExportIssues writes every issue matching the status filter to w as an XLSX workbook,
// newest first, reading the store page by page.
func (s *issueService) ExportIssues(ctx context.Context, actor domain.Actor, status string, w io.Writer) error {
	if !actor.IsTreasurer() {
		return apperrors.NewForbiddenError("only treasurers can export issues")
	}
	statuses, err := domain.ParseStatusFilter(status)
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", exportSheetName); err != nil {
		return fmt.Errorf("failed to prepare export sheet: %w", err)
	}
	sw, err := f.NewStreamWriter(exportSheetName)
	if err != nil {
		return fmt.Errorf("failed to open export sheet: %w", err)
	}
	if err := sw.SetColWidth(2, 3, 40); err != nil {
		return fmt.Errorf("failed to size export columns: %w", err)
	}
	if err := sw.SetRow("A1", exportHeaders); err != nil {
		return fmt.Errorf("failed to write export header: %w", err)
	}

	filter := domain.IssueListFilter{Statuses: statuses, Limit: maxListLimit}
	row := 2
	for {
		issues, next, err := s.issueRepo.ListIssues(ctx, filter)
		if err != nil {
			s.LogError(ctx, err, "Failed to list issues for export", slog.String("status", status))
			return err
		}
		for i := range issues {
			cell, err := excelize.CoordinatesToCellName(1, row)
			if err != nil {
				return err
			}
			if err := sw.SetRow(cell, exportRow(&issues[i], s.blobStore.PublicURL)); err != nil {
				return fmt.Errorf("failed to write export row %d: %w", row, err)
			}
			row++
		}
		if next == nil {
			break
		}
		filter.NextToken = next
	}

	if err := sw.Flush(); err != nil {
		return fmt.Errorf("failed to flush export sheet: %w", err)
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write export workbook: %w", err)
	}

	s.LogInfo(ctx, "Issues exported",
		slog.String("status", status),
		slog.Int("rows", row-2),
		slog.String("actor_id", actor.ID))
	return nil
}

func exportRow(i *domain.IssueWithOwner, publicURL func(string) string) []any {
	var remaining any = ""
	if i.RemainingAmount != nil {
		remaining = i.RemainingAmount.InexactFloat64()
	}
	receipts := make([]string, len(i.ReceiptEvidence))
	for n, path := range i.ReceiptEvidence {
		receipts[n] = publicURL(path)
	}
	return []any{
		i.IssueID,
		i.Title,
		i.Reason,
		i.Amount.InexactFloat64(),
		remaining,
		i.Status.String(),
		i.Owner.Name,
		i.Owner.Email,
		strings.Join(receipts, "\n"),
		i.CreatedAt.UTC().Format("2006-01-02 15:04:05"),
		i.UpdatedAt.UTC().Format("2006-01-02 15:04:05"),
	}
}
