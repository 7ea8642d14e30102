package phiguard

import (
	"fmt"
	"strings"
)

// Mode is the governance operating posture supplied by the host per call.
// The engine never caches it beyond a single decision.
type Mode string

const (
	ModeDemo       Mode = "DEMO"
	ModeIdentified Mode = "IDENTIFIED"
	ModeProduction Mode = "PRODUCTION"
)

// Role is the caller-asserted principal role. This core does not
// authenticate principals; the host is responsible for the binding.
type Role string

const (
	RoleViewer  Role = "VIEWER"
	RoleAnalyst Role = "ANALYST"
	RoleSteward Role = "STEWARD"
	RoleAdmin   Role = "ADMIN"
)

// PolicyContext is the immutable input to a single policy evaluation.
type PolicyContext struct {
	Mode     Mode   `json:"mode"`
	Role     Role   `json:"role"`
	Action   string `json:"action"`
	Resource string `json:"resource"`
}

// PolicyDecision is the outcome of a policy evaluation. It never carries
// request content, only the verdict and its obligations.
type PolicyDecision struct {
	Allowed       bool   `json:"allowed"`
	Reason        string `json:"reason"`
	AuditRequired bool   `json:"audit_required"`
	RequiresMFA   bool   `json:"requires_mfa"`
}

// rolePermissions is the fixed role-to-action table used by IDENTIFIED and
// PRODUCTION modes. "*" grants every action.
var rolePermissions = map[Role][]string{
	RoleViewer:  {"view", "list", "get"},
	RoleAnalyst: {"view", "list", "get", "analyze", "export"},
	RoleSteward: {"view", "list", "get", "analyze", "export", "delete", "reveal_phi", "modify_workflow"},
	RoleAdmin:   {"*"},
}

// demoResourceDenylist blocks PHI-adjacent resources in DEMO mode outright,
// regardless of role. Matching is substring, case-insensitive.
var demoResourceDenylist = []string{"patient", "phi", "export"}

// demoAllowedActions is the read-only action set permitted in DEMO mode.
var demoAllowedActions = map[string]bool{
	"view": true,
	"list": true,
	"get":  true,
}

// highRiskActions require MFA in PRODUCTION mode.
var highRiskActions = map[string]bool{
	"export":     true,
	"delete":     true,
	"reveal_phi": true,
}

// Evaluate maps a policy context to an allow/deny decision. It is a pure
// function: identical contexts always produce identical decisions, and it
// never returns an error. Unrecognized modes and roles fail closed.
func Evaluate(ctx PolicyContext) PolicyDecision {
	switch ctx.Mode {
	case ModeDemo:
		return evaluateDemo(ctx)
	case ModeIdentified:
		d := evaluateRoleTable(ctx)
		d.AuditRequired = true
		return d
	case ModeProduction:
		d := evaluateRoleTable(ctx)
		d.AuditRequired = true
		d.RequiresMFA = highRiskActions[ctx.Action]
		return d
	default:
		return PolicyDecision{
			Allowed:       false,
			Reason:        fmt.Sprintf("unknown governance mode %q", ctx.Mode),
			AuditRequired: true,
		}
	}
}

func evaluateDemo(ctx PolicyContext) PolicyDecision {
	resource := strings.ToLower(ctx.Resource)
	for _, blocked := range demoResourceDenylist {
		if strings.Contains(resource, blocked) {
			return PolicyDecision{
				Allowed: false,
				Reason:  fmt.Sprintf("resource %q is unavailable in demo mode", ctx.Resource),
			}
		}
	}
	if !demoAllowedActions[ctx.Action] {
		return PolicyDecision{
			Allowed: false,
			Reason:  fmt.Sprintf("action %q is not permitted in demo mode", ctx.Action),
		}
	}
	return PolicyDecision{
		Allowed: true,
		Reason:  "demo mode read-only access",
	}
}

func evaluateRoleTable(ctx PolicyContext) PolicyDecision {
	perms, ok := rolePermissions[ctx.Role]
	if !ok {
		return PolicyDecision{
			Allowed: false,
			Reason:  fmt.Sprintf("unknown role %q", ctx.Role),
		}
	}
	for _, p := range perms {
		if p == "*" || p == ctx.Action {
			return PolicyDecision{
				Allowed: true,
				Reason:  fmt.Sprintf("role %s permits action %q", ctx.Role, ctx.Action),
			}
		}
	}
	return PolicyDecision{
		Allowed: false,
		Reason:  fmt.Sprintf("role %s does not permit action %q", ctx.Role, ctx.Action),
	}
}

// CanAccessPHI reports whether the role may read PHI-bearing records at all
// under the given mode. DEMO always fails closed.
func CanAccessPHI(mode Mode, role Role) bool {
	if mode != ModeIdentified && mode != ModeProduction {
		return false
	}
	switch role {
	case RoleAnalyst, RoleSteward, RoleAdmin:
		return true
	default:
		return false
	}
}

// CanRevealPHI reports whether the role may see unmasked PHI values. It is
// stricter than CanAccessPHI: only stewards and admins under IDENTIFIED,
// with analysts added under PRODUCTION.
func CanRevealPHI(mode Mode, role Role) bool {
	switch mode {
	case ModeIdentified:
		return role == RoleSteward || role == RoleAdmin
	case ModeProduction:
		return role == RoleAnalyst || role == RoleSteward || role == RoleAdmin
	default:
		return false
	}
}

// CanExportData reports whether the role may export datasets. DEMO fails
// closed; otherwise stewards and admins only.
func CanExportData(mode Mode, role Role) bool {
	if mode != ModeIdentified && mode != ModeProduction {
		return false
	}
	return role == RoleSteward || role == RoleAdmin
}

// CanModifyWorkflow reports whether the role may change workflow
// definitions. Mode-independent: stewards and admins only.
func CanModifyWorkflow(role Role) bool {
	return role == RoleSteward || role == RoleAdmin
}
