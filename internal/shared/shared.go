package shared

import (
	"os"
	"strings"
)

const EnvLedgerDebugMode = "LEDGER_DEBUG_MODE"

// IsLedgerDebugMode checks if ledger debug mode (testnet endpoints) is
// enabled via environment variable
func IsLedgerDebugMode() bool {
	debugMode := os.Getenv(EnvLedgerDebugMode)
	return strings.ToLower(debugMode) == "true" || strings.ToLower(debugMode) == "1"
}
