package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/SscSPs/issue_tracker/internal/core/domain"
	portssvc "github.com/SscSPs/issue_tracker/internal/core/ports/services"
	"github.com/SscSPs/issue_tracker/internal/core/services"
	"github.com/SscSPs/issue_tracker/internal/dto"
	"github.com/SscSPs/issue_tracker/internal/middleware"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// multipartOverhead is allowed on top of the file payload for form fields and part headers.
const multipartOverhead = 1 << 20

// issueHandler handles HTTP requests related to issues.
type issueHandler struct {
	issueService   portssvc.IssueSvcFacade
	maxUploadBytes int64
}

func newIssueHandler(is portssvc.IssueSvcFacade, maxUploadBytes int64) *issueHandler {
	return &issueHandler{
		issueService:   is,
		maxUploadBytes: maxUploadBytes,
	}
}

// RegisterIssueRoutes registers routes related to issues. The group must already run
// AuthMiddleware and ActorMiddleware.
func RegisterIssueRoutes(rg *gin.RouterGroup, issueService portssvc.IssueSvcFacade, maxUploadBytes int64) {
	h := newIssueHandler(issueService, maxUploadBytes)

	issues := rg.Group("/issues")
	{
		issues.POST("", h.createIssue)
		issues.GET("", h.listIssues)
		issues.GET("/export", h.exportIssues)
		issues.GET("/:id", h.getIssue)
		issues.POST("/:id/accept", h.acceptIssue)
		issues.POST("/:id/reject", h.rejectIssue)
		issues.POST("/:id/need_revision", h.requestRevision)
		issues.POST("/:id/complete", h.completeIssue)
		issues.POST("/:id/upload-receipt", h.uploadReceipt)
	}
}

// createIssue godoc
// @Summary Submit a reimbursement issue
// @Description Creates a pending issue owned by the calling employee
// @Tags issues
// @Accept  json
// @Produce  json
// @Param   issue body dto.CreateIssueRequest true "Issue details"
// @Success 201 {object} dto.IssueResponse
// @Failure 400 {object} ErrorResponse "Invalid input"
// @Failure 401 {object} ErrorResponse "Unauthorized"
// @Failure 403 {object} ErrorResponse "Only employees can submit issues"
// @Security BearerAuth
// @Router /issues [post]
func (h *issueHandler) createIssue(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req dto.CreateIssueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for CreateIssue", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request format: " + err.Error()})
		return
	}

	issue, err := h.issueService.CreateIssue(c.Request.Context(), actor, req)
	if err != nil {
		respondWithError(c, err, "Failed to create issue")
		return
	}

	logger.Info("Issue created successfully", slog.String("issue_id", issue.IssueID))
	c.JSON(http.StatusCreated, dto.ToIssueResponse(issue, h.issueService.EvidenceURL, h.issueService.AllowedActions(issue, actor)))
}

// listIssues godoc
// @Summary List issues
// @Description Lists issues newest first. Treasurers see every issue, employees their own.
// @Tags issues
// @Produce  json
// @Param   status query string false "Status filter: all, pending, accepted, rejected, review_evidence, need_revision, completed" default(all)
// @Param   limit query int false "Page size (max 100)" default(20)
// @Param   nextToken query string false "Token from the previous page"
// @Success 200 {object} dto.ListIssuesResponse
// @Failure 400 {object} ErrorResponse "Invalid filter or token"
// @Failure 401 {object} ErrorResponse "Unauthorized"
// @Security BearerAuth
// @Router /issues [get]
func (h *issueHandler) listIssues(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var params dto.ListIssuesParams
	if err := c.ShouldBindQuery(&params); err != nil {
		logger.Warn("Failed to bind query params for ListIssues", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid query parameters: " + err.Error()})
		return
	}

	issues, nextToken, err := h.issueService.ListIssues(c.Request.Context(), actor, params)
	if err != nil {
		respondWithError(c, err, "Failed to list issues")
		return
	}

	resp := dto.ListIssuesResponse{
		Issues:    make([]dto.IssueResponse, len(issues)),
		NextToken: nextToken,
	}
	for i := range issues {
		allowed := h.issueService.AllowedActions(&issues[i].Issue, actor)
		resp.Issues[i] = dto.ToIssueWithOwnerResponse(&issues[i], h.issueService.EvidenceURL, allowed)
	}

	logger.Info("Issues listed successfully", slog.Int("count", len(issues)))
	c.JSON(http.StatusOK, resp)
}

// exportIssues godoc
// @Summary Export issues as a spreadsheet
// @Description Downloads every issue matching the status filter as an XLSX workbook. Treasurer only.
// @Tags issues
// @Produce  application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param   status query string false "Status filter" default(all)
// @Success 200 {file} file
// @Failure 400 {object} ErrorResponse "Invalid filter"
// @Failure 401 {object} ErrorResponse "Unauthorized"
// @Failure 403 {object} ErrorResponse "Treasurer role required"
// @Security BearerAuth
// @Router /issues/export [get]
func (h *issueHandler) exportIssues(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var params dto.ExportIssuesParams
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid query parameters: " + err.Error()})
		return
	}

	var buf bytes.Buffer
	if err := h.issueService.ExportIssues(c.Request.Context(), actor, params.Status, &buf); err != nil {
		respondWithError(c, err, "Failed to export issues")
		return
	}

	status := params.Status
	if status == "" {
		status = "all"
	}
	filename := fmt.Sprintf("issues-%s-%s.xlsx", status, time.Now().UTC().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// getIssue godoc
// @Summary Get an issue by ID
// @Tags issues
// @Produce  json
// @Param   id path string true "Issue ID"
// @Success 200 {object} dto.IssueResponse
// @Failure 401 {object} ErrorResponse "Unauthorized"
// @Failure 403 {object} ErrorResponse "Not the owner"
// @Failure 404 {object} ErrorResponse "Issue not found"
// @Security BearerAuth
// @Router /issues/{id} [get]
func (h *issueHandler) getIssue(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	issue, err := h.issueService.GetIssue(c.Request.Context(), c.Param("id"), actor)
	if err != nil {
		respondWithError(c, err, "Failed to get issue")
		return
	}

	c.JSON(http.StatusOK, dto.ToIssueResponse(issue, h.issueService.EvidenceURL, h.issueService.AllowedActions(issue, actor)))
}

type transitionFunc func(c *gin.Context, issueID string, actor domain.Actor) (*domain.Transition, error)

// transition runs one of the status-only lifecycle actions and writes the common response.
func (h *issueHandler) transition(c *gin.Context, fn transitionFunc, successMsg string) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	issueID := c.Param("id")

	tr, err := fn(c, issueID, actor)
	if err != nil {
		respondWithError(c, err, "Issue transition failed")
		return
	}

	logger.Info(successMsg,
		slog.String("issue_id", issueID),
		slog.String("from", tr.From.String()),
		slog.String("to", tr.To.String()))
	c.JSON(http.StatusOK, dto.TransitionResponse{Message: successMsg, IssueID: issueID, Status: tr.To})
}

// acceptIssue godoc
// @Summary Accept a pending issue
// @Tags issues
// @Produce  json
// @Param   id path string true "Issue ID"
// @Success 200 {object} dto.TransitionResponse
// @Failure 400 {object} ErrorResponse "Issue is not pending"
// @Failure 401 {object} ErrorResponse "Unauthorized"
// @Failure 403 {object} ErrorResponse "Treasurer role required"
// @Failure 404 {object} ErrorResponse "Issue not found"
// @Security BearerAuth
// @Router /issues/{id}/accept [post]
func (h *issueHandler) acceptIssue(c *gin.Context) {
	h.transition(c, func(c *gin.Context, id string, actor domain.Actor) (*domain.Transition, error) {
		return h.issueService.Accept(c.Request.Context(), id, actor)
	}, "Issue accepted")
}

// rejectIssue godoc
// @Summary Reject a pending issue
// @Tags issues
// @Produce  json
// @Param   id path string true "Issue ID"
// @Success 200 {object} dto.TransitionResponse
// @Failure 400 {object} ErrorResponse "Issue is not pending"
// @Failure 401 {object} ErrorResponse "Unauthorized"
// @Failure 403 {object} ErrorResponse "Treasurer role required"
// @Failure 404 {object} ErrorResponse "Issue not found"
// @Security BearerAuth
// @Router /issues/{id}/reject [post]
func (h *issueHandler) rejectIssue(c *gin.Context) {
	h.transition(c, func(c *gin.Context, id string, actor domain.Actor) (*domain.Transition, error) {
		return h.issueService.Reject(c.Request.Context(), id, actor)
	}, "Issue rejected")
}

// requestRevision godoc
// @Summary Ask the owner to resubmit evidence
// @Tags issues
// @Produce  json
// @Param   id path string true "Issue ID"
// @Success 200 {object} dto.TransitionResponse
// @Failure 400 {object} ErrorResponse "Issue is not under review"
// @Failure 401 {object} ErrorResponse "Unauthorized"
// @Failure 403 {object} ErrorResponse "Treasurer role required"
// @Failure 404 {object} ErrorResponse "Issue not found"
// @Failure 500 {object} ErrorResponse "Storage failure"
// @Security BearerAuth
// @Router /issues/{id}/need_revision [post]
func (h *issueHandler) requestRevision(c *gin.Context) {
	h.transition(c, func(c *gin.Context, id string, actor domain.Actor) (*domain.Transition, error) {
		return h.issueService.RequestRevision(c.Request.Context(), id, actor)
	}, "Revision requested")
}

// completeIssue godoc
// @Summary Validate the evidence and complete the issue
// @Tags issues
// @Produce  json
// @Param   id path string true "Issue ID"
// @Success 200 {object} dto.TransitionResponse
// @Failure 400 {object} ErrorResponse "Issue is not under review or evidence is incomplete"
// @Failure 401 {object} ErrorResponse "Unauthorized"
// @Failure 403 {object} ErrorResponse "Treasurer role required"
// @Failure 404 {object} ErrorResponse "Issue not found"
// @Security BearerAuth
// @Router /issues/{id}/complete [post]
func (h *issueHandler) completeIssue(c *gin.Context) {
	h.transition(c, func(c *gin.Context, id string, actor domain.Actor) (*domain.Transition, error) {
		return h.issueService.Validate(c.Request.Context(), id, actor)
	}, "Issue completed")
}

// uploadReceipt godoc
// @Summary Upload receipt evidence
// @Description Replaces the issue's receipts and remaining amount and sends it to review. Owner only.
// @Tags issues
// @Accept  multipart/form-data
// @Produce  json
// @Param   id path string true "Issue ID"
// @Param   receipts formData file true "Receipt files (JPEG, PNG, WebP, HEIC or PDF), repeatable"
// @Param   remaining_amount formData string true "Cash left over from the requested amount"
// @Success 200 {object} dto.UploadReceiptResponse
// @Failure 400 {object} ErrorResponse "Invalid files, amount or status"
// @Failure 403 {object} ErrorResponse "Not the owner"
// @Failure 404 {object} ErrorResponse "Issue not found"
// @Failure 500 {object} ErrorResponse "Storage failure"
// @Security BearerAuth
// @Router /issues/{id}/upload-receipt [post]
func (h *issueHandler) uploadReceipt(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	issueID := c.Param("id")

	if h.maxUploadBytes > 0 {
		limit := h.maxUploadBytes*services.MaxEvidenceFiles + multipartOverhead
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
	}
	form, err := c.MultipartForm()
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Upload is too large"})
			return
		}
		logger.Warn("Failed to parse multipart form", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Request must be multipart/form-data with receipts and remaining_amount"})
		return
	}
	defer form.RemoveAll()

	rawRemaining := form.Value["remaining_amount"]
	if len(rawRemaining) == 0 || rawRemaining[0] == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "remaining_amount is required"})
		return
	}
	remaining, err := decimal.NewFromString(rawRemaining[0])
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "remaining_amount must be a number"})
		return
	}

	headers := append(form.File["receipts"], form.File["receipts[]"]...)
	files := make([]portssvc.EvidenceFile, len(headers))
	for i, fh := range headers {
		files[i] = evidenceFromHeader(fh)
	}

	result, err := h.issueService.UploadEvidence(c.Request.Context(), issueID, actor, files, remaining)
	if err != nil {
		respondWithError(c, err, "Failed to upload receipts")
		return
	}

	logger.Info("Receipts uploaded", slog.String("issue_id", issueID), slog.Int("count", len(result.Paths)))
	c.JSON(http.StatusOK, dto.UploadReceiptResponse{
		Message: "Receipts uploaded",
		Count:   len(result.Paths),
		IssueID: issueID,
		Status:  result.Transition.To,
	})
}

func evidenceFromHeader(fh *multipart.FileHeader) portssvc.EvidenceFile {
	return portssvc.EvidenceFile{
		Filename: fh.Filename,
		Size:     fh.Size,
		Open: func() (io.ReadCloser, error) {
			return fh.Open()
		},
	}
}
