package domain_test

import (
	"errors"
	"testing"

	"github.com/SscSPs/issue_tracker/internal/apperrors"
	"github.com/SscSPs/issue_tracker/internal/core/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	treasurer = domain.Actor{ID: "treasurer-1", Role: domain.RoleTreasurer}
	owner     = domain.Actor{ID: "owner-1", Role: domain.RoleEmployee}
	stranger  = domain.Actor{ID: "employee-2", Role: domain.RoleEmployee}
)

func decimalPtr(d decimal.Decimal) *decimal.Decimal {
	return &d
}

func newIssue(status domain.IssueStatus) *domain.Issue {
	return &domain.Issue{
		IssueID: "issue-1",
		Title:   "Team lunch",
		Amount:  decimal.NewFromInt(100000),
		Status:  status,
		OwnerID: owner.ID,
	}
}

func TestIssueStatus_IsTerminal(t *testing.T) {
	tests := []struct {
		status   domain.IssueStatus
		expected bool
	}{
		{domain.StatusPending, false},
		{domain.StatusAccepted, false},
		{domain.StatusReviewEvidence, false},
		{domain.StatusNeedRevision, false},
		{domain.StatusRejected, true},
		{domain.StatusCompleted, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.status.IsTerminal())
		})
	}
}

func TestParseStatusFilter(t *testing.T) {
	all, err := domain.ParseStatusFilter("all")
	require.NoError(t, err)
	assert.Len(t, all, 6)
	assert.Contains(t, all, domain.StatusReviewEvidence)
	assert.Contains(t, all, domain.StatusNeedRevision)

	empty, err := domain.ParseStatusFilter("")
	require.NoError(t, err)
	assert.Equal(t, all, empty)

	one, err := domain.ParseStatusFilter("need_revision")
	require.NoError(t, err)
	assert.Equal(t, []domain.IssueStatus{domain.StatusNeedRevision}, one)

	_, err = domain.ParseStatusFilter("deleted")
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestLifecycle_PendingOnlyTreasurerAcceptOrReject(t *testing.T) {
	lc := domain.NewLifecycle()
	actions := []domain.Action{
		domain.ActionAccept,
		domain.ActionReject,
		domain.ActionUploadEvidence,
		domain.ActionValidate,
		domain.ActionRequestRevision,
	}
	actors := []domain.Actor{treasurer, owner, stranger}

	for _, actor := range actors {
		for _, action := range actions {
			t.Run(string(actor.Role)+"/"+actor.ID+"/"+string(action), func(t *testing.T) {
				tr, err := lc.Decide(newIssue(domain.StatusPending), actor, action)

				allowed := actor.IsTreasurer() && (action == domain.ActionAccept || action == domain.ActionReject)
				if allowed {
					require.NoError(t, err)
					assert.Equal(t, domain.StatusPending, tr.From)
					return
				}
				require.Error(t, err)
				assert.True(t,
					errors.Is(err, apperrors.ErrForbidden) || errors.Is(err, apperrors.ErrPreconditionFailed),
					"unexpected error %v", err)
			})
		}
	}
}

func TestLifecycle_TransitionTable(t *testing.T) {
	withEvidence := func(status domain.IssueStatus, remaining *decimal.Decimal) *domain.Issue {
		issue := newIssue(status)
		issue.ReceiptEvidence = []string{"receipts/owner-1/a.jpg"}
		issue.RemainingAmount = remaining
		return issue
	}

	tests := []struct {
		name    string
		issue   *domain.Issue
		actor   domain.Actor
		action  domain.Action
		wantTo  domain.IssueStatus
		wantErr error
	}{
		{"accept pending", newIssue(domain.StatusPending), treasurer, domain.ActionAccept, domain.StatusAccepted, nil},
		{"reject pending", newIssue(domain.StatusPending), treasurer, domain.ActionReject, domain.StatusRejected, nil},
		{"accept by employee", newIssue(domain.StatusPending), owner, domain.ActionAccept, "", apperrors.ErrForbidden},
		{"reject accepted", newIssue(domain.StatusAccepted), treasurer, domain.ActionReject, "", apperrors.ErrPreconditionFailed},
		{"owner uploads on accepted", newIssue(domain.StatusAccepted), owner, domain.ActionUploadEvidence, domain.StatusReviewEvidence, nil},
		{"owner uploads on need_revision", newIssue(domain.StatusNeedRevision), owner, domain.ActionUploadEvidence, domain.StatusReviewEvidence, nil},
		{"stranger uploads", newIssue(domain.StatusAccepted), stranger, domain.ActionUploadEvidence, "", apperrors.ErrForbidden},
		{"treasurer uploads", newIssue(domain.StatusAccepted), treasurer, domain.ActionUploadEvidence, "", apperrors.ErrForbidden},
		{"owner uploads on pending", newIssue(domain.StatusPending), owner, domain.ActionUploadEvidence, "", apperrors.ErrPreconditionFailed},
		{"validate with zero remaining", withEvidence(domain.StatusReviewEvidence, decimalPtr(decimal.Zero)), treasurer, domain.ActionValidate, domain.StatusCompleted, nil},
		{"validate without remaining", withEvidence(domain.StatusReviewEvidence, nil), treasurer, domain.ActionValidate, "", apperrors.ErrValidation},
		{"validate with negative remaining", withEvidence(domain.StatusReviewEvidence, decimalPtr(decimal.NewFromInt(-1))), treasurer, domain.ActionValidate, "", apperrors.ErrValidation},
		{"validate without evidence", newIssue(domain.StatusReviewEvidence), treasurer, domain.ActionValidate, "", apperrors.ErrValidation},
		{"validate accepted", withEvidence(domain.StatusAccepted, decimalPtr(decimal.Zero)), treasurer, domain.ActionValidate, "", apperrors.ErrPreconditionFailed},
		{"request revision", newIssue(domain.StatusReviewEvidence), treasurer, domain.ActionRequestRevision, domain.StatusNeedRevision, nil},
		{"request revision by owner", newIssue(domain.StatusReviewEvidence), owner, domain.ActionRequestRevision, "", apperrors.ErrForbidden},
		{"request revision on pending", newIssue(domain.StatusPending), treasurer, domain.ActionRequestRevision, "", apperrors.ErrPreconditionFailed},
		{"unknown action", newIssue(domain.StatusPending), treasurer, domain.Action("archive"), "", apperrors.ErrValidation},
	}

	lc := domain.NewLifecycle()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, err := lc.Decide(tt.issue, tt.actor, tt.action)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantTo, tr.To)
			assert.Equal(t, tt.issue.Status, tr.From)
			assert.Equal(t, tt.action, tr.Action)
		})
	}
}

func TestLifecycle_TerminalStatusesHaveNoTransitions(t *testing.T) {
	lc := domain.NewLifecycle()
	for _, status := range []domain.IssueStatus{domain.StatusRejected, domain.StatusCompleted} {
		issue := newIssue(status)
		issue.ReceiptEvidence = []string{"receipts/owner-1/a.jpg"}
		issue.RemainingAmount = decimalPtr(decimal.Zero)

		assert.Empty(t, lc.PermittedActions(issue, treasurer), status)
		assert.Empty(t, lc.PermittedActions(issue, owner), status)
	}
}

func TestLifecycle_PermittedActions(t *testing.T) {
	lc := domain.NewLifecycle()

	assert.ElementsMatch(t,
		[]domain.Action{domain.ActionAccept, domain.ActionReject},
		lc.PermittedActions(newIssue(domain.StatusPending), treasurer))
	assert.Empty(t, lc.PermittedActions(newIssue(domain.StatusPending), owner))
	assert.Equal(t,
		[]domain.Action{domain.ActionUploadEvidence},
		lc.PermittedActions(newIssue(domain.StatusAccepted), owner))
	// guards are evaluated: no evidence yet, so only a revision request is possible
	assert.Equal(t,
		[]domain.Action{domain.ActionRequestRevision},
		lc.PermittedActions(newIssue(domain.StatusReviewEvidence), treasurer))
}

func TestLifecycle_ConfigureTerminalPanics(t *testing.T) {
	lc := domain.NewLifecycle()
	assert.Panics(t, func() {
		lc.Configure(domain.StatusCompleted).Permit(domain.ActionAccept, domain.StatusAccepted)
	})
	assert.Panics(t, func() {
		lc.Configure(domain.IssueStatus("archived"))
	})
}

func TestValidateRemainingAmount(t *testing.T) {
	amount := decimal.NewFromInt(100000)

	assert.NoError(t, domain.ValidateRemainingAmount(decimal.Zero, amount))
	assert.NoError(t, domain.ValidateRemainingAmount(amount, amount))
	assert.ErrorIs(t, domain.ValidateRemainingAmount(decimal.NewFromInt(-5), amount), apperrors.ErrValidation)
	assert.ErrorIs(t, domain.ValidateRemainingAmount(decimal.NewFromInt(100001), amount), apperrors.ErrValidation)
}

func TestValidateAmountPrecision(t *testing.T) {
	cases := []struct {
		value string
		ok    bool
	}{
		{"10", true},
		{"10.5", true},
		{"10.50", true},
		{"10.500", true},
		{"9999999999999.99", true},
		{"0.001", false},
		{"10.555", false},
		{"10000000000000", false},
		{"1e17", false},
	}
	for _, tc := range cases {
		t.Run(tc.value, func(t *testing.T) {
			err := domain.ValidateAmountPrecision("amount", decimal.RequireFromString(tc.value))
			if tc.ok {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, apperrors.ErrValidation)
			assert.Contains(t, err.Error(), "amount")
		})
	}
}
