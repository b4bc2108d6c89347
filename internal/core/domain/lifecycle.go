package domain

import (
	"fmt"

	"github.com/SscSPs/issue_tracker/internal/apperrors"
)

// Action is a request to move an issue along its lifecycle.
type Action string

const (
	ActionAccept          Action = "accept"
	ActionReject          Action = "reject"
	ActionUploadEvidence  Action = "upload_evidence"
	ActionValidate        Action = "validate"
	ActionRequestRevision Action = "request_revision"
)

func (a Action) String() string {
	return string(a)
}

// Authority names who may fire an action.
type Authority int

const (
	AuthorityTreasurer Authority = iota // actor.Role must be treasurer
	AuthorityOwner                      // actor.ID must equal issue.OwnerID
)

// Guard checks a precondition on the stored issue before a transition is allowed.
// A failing guard returns an error wrapping apperrors.ErrValidation.
type Guard func(issue *Issue) error

// Transition is the outcome of a successful decision.
type Transition struct {
	Action Action
	From   IssueStatus
	To     IssueStatus
}

type rule struct {
	to     IssueStatus
	guards []Guard
}

// Lifecycle is the issue state machine: which actions are legal from which status,
// who may fire them and what must hold beforehand. It holds no per-request state.
type Lifecycle struct {
	authority   map[Action]Authority
	transitions map[IssueStatus]map[Action]rule
}

// StateConfiguration adds transitions leaving one status.
type StateConfiguration struct {
	lifecycle *Lifecycle
	from      IssueStatus
}

// NewLifecycle returns the issue lifecycle:
//
//	pending         --accept-----------> accepted
//	pending         --reject-----------> rejected (terminal)
//	accepted        --upload_evidence--> review_evidence
//	need_revision   --upload_evidence--> review_evidence
//	review_evidence --validate---------> completed (terminal)
//	review_evidence --request_revision-> need_revision
func NewLifecycle() *Lifecycle {
	l := &Lifecycle{
		authority: map[Action]Authority{
			ActionAccept:          AuthorityTreasurer,
			ActionReject:          AuthorityTreasurer,
			ActionValidate:        AuthorityTreasurer,
			ActionRequestRevision: AuthorityTreasurer,
			ActionUploadEvidence:  AuthorityOwner,
		},
		transitions: make(map[IssueStatus]map[Action]rule),
	}

	l.Configure(StatusPending).
		Permit(ActionAccept, StatusAccepted).
		Permit(ActionReject, StatusRejected)
	l.Configure(StatusAccepted).
		Permit(ActionUploadEvidence, StatusReviewEvidence)
	l.Configure(StatusNeedRevision).
		Permit(ActionUploadEvidence, StatusReviewEvidence)
	l.Configure(StatusReviewEvidence).
		PermitIf(ActionValidate, StatusCompleted, RequireEvidence, RequireRemainingAmount).
		Permit(ActionRequestRevision, StatusNeedRevision)

	return l
}

// Configure returns the configuration for transitions leaving from.
func (l *Lifecycle) Configure(from IssueStatus) *StateConfiguration {
	if !from.IsValid() {
		panic(fmt.Sprintf("invalid status: %s", from))
	}
	if _, ok := l.transitions[from]; !ok {
		l.transitions[from] = make(map[Action]rule)
	}
	return &StateConfiguration{lifecycle: l, from: from}
}

// Permit allows action to move the issue to to.
func (c *StateConfiguration) Permit(action Action, to IssueStatus) *StateConfiguration {
	return c.PermitIf(action, to)
}

// PermitIf allows action to move the issue to to when every guard passes.
func (c *StateConfiguration) PermitIf(action Action, to IssueStatus, guards ...Guard) *StateConfiguration {
	if !to.IsValid() {
		panic(fmt.Sprintf("invalid target status: %s", to))
	}
	if c.from.IsTerminal() {
		panic(fmt.Sprintf("terminal status %s cannot have transitions", c.from))
	}
	c.lifecycle.transitions[c.from][action] = rule{to: to, guards: guards}
	return c
}

// Decide checks, in order, the actor's authority, that the action leaves the issue's current
// status, and the transition guards. It returns the transition to persist or an error wrapping
// ErrForbidden, ErrPreconditionFailed or ErrValidation.
func (l *Lifecycle) Decide(issue *Issue, actor Actor, action Action) (Transition, error) {
	authority, known := l.authority[action]
	if !known {
		return Transition{}, fmt.Errorf("%w: unknown action %q", apperrors.ErrValidation, action)
	}
	if err := checkAuthority(authority, issue, actor); err != nil {
		return Transition{}, err
	}

	r, ok := l.transitions[issue.Status][action]
	if !ok {
		return Transition{}, fmt.Errorf("%w: cannot %s an issue in status %s", apperrors.ErrPreconditionFailed, action, issue.Status)
	}
	for _, guard := range r.guards {
		if err := guard(issue); err != nil {
			return Transition{}, err
		}
	}

	return Transition{Action: action, From: issue.Status, To: r.to}, nil
}

// PermittedActions lists the actions the actor could fire right now, guards included.
func (l *Lifecycle) PermittedActions(issue *Issue, actor Actor) []Action {
	actions := make([]Action, 0, 2)
	for _, action := range []Action{ActionAccept, ActionReject, ActionUploadEvidence, ActionValidate, ActionRequestRevision} {
		if _, err := l.Decide(issue, actor, action); err == nil {
			actions = append(actions, action)
		}
	}
	return actions
}

func checkAuthority(authority Authority, issue *Issue, actor Actor) error {
	switch authority {
	case AuthorityTreasurer:
		if !actor.IsTreasurer() {
			return fmt.Errorf("%w: treasurer role required", apperrors.ErrForbidden)
		}
	case AuthorityOwner:
		if !issue.IsOwnedBy(actor) {
			return fmt.Errorf("%w: only the issue owner may do this", apperrors.ErrForbidden)
		}
	}
	return nil
}

// RequireEvidence fails when no receipt file has been uploaded.
func RequireEvidence(issue *Issue) error {
	if !issue.HasEvidence() {
		return fmt.Errorf("%w: receipt evidence has not been uploaded", apperrors.ErrValidation)
	}
	return nil
}

// RequireRemainingAmount fails when the remaining cash amount is missing or out of range.
func RequireRemainingAmount(issue *Issue) error {
	if issue.RemainingAmount == nil {
		return fmt.Errorf("%w: remaining amount has not been declared", apperrors.ErrValidation)
	}
	return ValidateRemainingAmount(*issue.RemainingAmount, issue.Amount)
}
