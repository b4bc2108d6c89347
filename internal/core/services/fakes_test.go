package services_test

import (
	"bytes"
	"context"
	"io"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/SscSPs/issue_tracker/internal/apperrors"
	"github.com/SscSPs/issue_tracker/internal/core/domain"
	portssvc "github.com/SscSPs/issue_tracker/internal/core/ports/services"
	"github.com/stretchr/testify/mock"
)

// memoryIssueRepo behaves like the Postgres repository: every status change is a
// compare-and-set on the stored status.
type memoryIssueRepo struct {
	mu         sync.Mutex
	issues     map[string]domain.Issue
	owners     map[string]domain.IssueOwner
	lastFilter domain.IssueListFilter
	replaceErr error
	updates    int
	// beforeReplace runs ahead of ReplaceEvidence, standing in for a concurrent writer.
	beforeReplace func()
}

func newMemoryIssueRepo() *memoryIssueRepo {
	return &memoryIssueRepo{
		issues: make(map[string]domain.Issue),
		owners: make(map[string]domain.IssueOwner),
	}
}

func (r *memoryIssueRepo) put(issue domain.Issue) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.issues[issue.IssueID] = issue
}

func (r *memoryIssueRepo) get(id string) domain.Issue {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.issues[id]
}

func (r *memoryIssueRepo) FindIssueByID(_ context.Context, issueID string) (*domain.Issue, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	issue, ok := r.issues[issueID]
	if !ok {
		return nil, apperrors.NewNotFoundError("issue not found")
	}
	issue.ReceiptEvidence = append([]string{}, issue.ReceiptEvidence...)
	return &issue, nil
}

// ListIssues pages with a plain offset token; the keyset query is tested in the pgsql package.
func (r *memoryIssueRepo) ListIssues(_ context.Context, filter domain.IssueListFilter) ([]domain.IssueWithOwner, *string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastFilter = filter

	wanted := make(map[domain.IssueStatus]bool, len(filter.Statuses))
	for _, s := range filter.Statuses {
		wanted[s] = true
	}
	var matched []domain.IssueWithOwner
	for _, issue := range r.issues {
		if !wanted[issue.Status] {
			continue
		}
		if filter.OwnerID != nil && issue.OwnerID != *filter.OwnerID {
			continue
		}
		matched = append(matched, domain.IssueWithOwner{Issue: issue, Owner: r.owners[issue.OwnerID]})
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].IssueID > matched[j].IssueID
	})

	offset := 0
	if filter.NextToken != nil {
		offset, _ = strconv.Atoi(*filter.NextToken)
	}
	if offset > len(matched) {
		offset = len(matched)
	}
	end := offset + filter.Limit
	var next *string
	if end < len(matched) {
		token := strconv.Itoa(end)
		next = &token
	} else {
		end = len(matched)
	}
	return matched[offset:end], next, nil
}

func (r *memoryIssueRepo) SaveIssue(_ context.Context, issue domain.Issue) error {
	r.put(issue)
	return nil
}

func (r *memoryIssueRepo) TransitionStatus(_ context.Context, issueID string, from, to domain.IssueStatus, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	issue, ok := r.issues[issueID]
	if !ok || issue.Status != from {
		return apperrors.NewPreconditionFailedError("issue status has changed")
	}
	issue.Status = to
	issue.UpdatedAt = now
	r.issues[issueID] = issue
	r.updates++
	return nil
}

func (r *memoryIssueRepo) ReplaceEvidence(_ context.Context, issueID string, from, to domain.IssueStatus, update domain.EvidenceUpdate, now time.Time) ([]string, error) {
	if r.beforeReplace != nil {
		r.beforeReplace()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.replaceErr != nil {
		return nil, r.replaceErr
	}
	issue, ok := r.issues[issueID]
	if !ok || issue.Status != from {
		return nil, apperrors.NewPreconditionFailedError("issue status has changed")
	}
	previous := issue.ReceiptEvidence
	remaining := update.RemainingAmount
	issue.Status = to
	issue.ReceiptEvidence = append([]string{}, update.Paths...)
	issue.RemainingAmount = &remaining
	issue.UpdatedAt = now
	r.issues[issueID] = issue
	r.updates++
	return previous, nil
}

// MockBlobStore is a mock type for the storage.BlobStore interface
type MockBlobStore struct {
	mock.Mock
}

func (m *MockBlobStore) Upload(ctx context.Context, path string, content io.Reader, contentType string) error {
	args := m.Called(ctx, path, content, contentType)
	return args.Error(0)
}

func (m *MockBlobStore) Delete(ctx context.Context, paths []string) error {
	args := m.Called(ctx, paths)
	return args.Error(0)
}

func (m *MockBlobStore) Exists(ctx context.Context, path string) (bool, error) {
	args := m.Called(ctx, path)
	return args.Bool(0), args.Error(1)
}

func (m *MockBlobStore) PublicURL(path string) string {
	args := m.Called(path)
	return args.String(0)
}

var (
	pngContent  = append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), bytes.Repeat([]byte{0}, 32)...)
	pdfContent  = []byte("%PDF-1.4\n1 0 obj\n<<>>\nendobj\ntrailer\n%%EOF\n")
	jpegContent = append([]byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00}, bytes.Repeat([]byte{0}, 32)...)
)

func evidenceFile(name string, content []byte) portssvc.EvidenceFile {
	return portssvc.EvidenceFile{
		Filename: name,
		Size:     int64(len(content)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(content)), nil
		},
	}
}
