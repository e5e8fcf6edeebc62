package postgres

// PostgreSQL Error Codes
const (
	// PgErrorCodeUniqueViolation is the PostgreSQL error code for unique constraint violations
	PgErrorCodeUniqueViolation = "23505"
)

// Error Messages - Transaction Operations
const (
	ErrMsgFailedToBeginTransaction  = "failed to begin transaction"
	ErrMsgFailedToCommitTransaction = "failed to commit transaction"
)

// Cooldown action column names. setCooldown maps action names onto these so
// the action string never reaches the SQL text.
const (
	colLastDaily        = "last_daily"
	colLastClaim        = "last_claim"
	colLastLeveledClaim = "last_leveled_claim"
)
