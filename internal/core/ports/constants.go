package ports

import "time"

// Role is the caller's role as established by the upstream identity
// layer. The trade service enforces the role matrix; it never issues
// identities itself.
type Role string

const (
	RoleBuyer        Role = "buyer"
	RoleSupplier     Role = "supplier"
	RoleIntermediary Role = "intermediary"
	RoleAdmin        Role = "admin"
)

// Actor accompanies every mutating call.
type Actor struct {
	ID   string
	Role Role
}

const (
	MaxSubmissionAttempts      = 3               // Resubmissions with the same nonce before manual review
	DefaultConfirmationTimeout = 2 * time.Minute // Window to wait for a confirmation event
	MaxConcurrentChecks        = 100             // Cap on simultaneous confirmation watchers
)
