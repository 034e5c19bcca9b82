package security

import (
	"context"
	"fmt"

	"github.com/rndmzd/hallmonitor/internal/logging"
	"github.com/rndmzd/hallmonitor/internal/state"
)

type Decision uint8

const (
	Unauthorized Decision = iota
	Authorized
	Blocked
)

func (d Decision) String() string {
	switch d {
	case Authorized:
		return "authorized"
	case Blocked:
		return "blocked"
	default:
		return "unauthorized"
	}
}

// Authorizer gates admin commands on owner, restriction and allow-list.
type Authorizer struct {
	ownerID string
	allow   *state.AllowList
	engine  *Engine
	audit   logging.Auditor
}

func NewAuthorizer(ownerID string, allow *state.AllowList, engine *Engine, audit logging.Auditor) *Authorizer {
	return &Authorizer{
		ownerID: ownerID,
		allow:   allow,
		engine:  engine,
		audit:   audit,
	}
}

// Authorize decides without side effects beyond the audit entry. The owner is
// never restricted; everyone else is blocked while a restriction is active.
// Unauthorized decisions are logged by the engine.
func (a *Authorizer) Authorize(ctx context.Context, userID, command string) Decision {
	if a.ownerID != "" && userID == a.ownerID {
		a.audit.Log(ctx, logging.EventAuthorizedCommand, userID, fmt.Sprintf("Executed command: %s", command))
		return Authorized
	}

	if a.engine.IsRestricted(userID) {
		a.audit.Log(ctx, logging.EventBlockedAttempt, userID, fmt.Sprintf("Attempted command while in timeout: %s", command))
		return Blocked
	}

	if a.allow.Contains(userID) {
		a.audit.Log(ctx, logging.EventAuthorizedCommand, userID, fmt.Sprintf("Executed command: %s", command))
		return Authorized
	}

	return Unauthorized
}

// Check authorizes and routes blocked or unauthorized callers into the
// escalation engine. It reports whether the command may run.
func (a *Authorizer) Check(ctx context.Context, attempt Attempt) bool {
	decision := a.Authorize(ctx, attempt.UserID, attempt.Command)
	if decision == Authorized {
		return true
	}

	a.engine.HandleUnauthorizedAttempt(ctx, attempt)
	return false
}
