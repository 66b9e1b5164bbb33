package apperror

// messages maps error codes to human-readable messages
var messages = map[Code]string{
	// General validation
	CodeRequiredField:   "Required field is missing",
	CodeInvalidInput:    "Invalid input provided",
	CodeInvalidState:    "Invalid state for this operation",
	CodeNotFound:        "Resource not found",
	CodeValidationError: "Validation error",

	// Configuration
	CodeConfigurationError: "Configuration error",

	// External service errors
	CodeExternalServiceError: "External service error",
	CodeServiceTimeout:       "Service request timeout",
	CodeServiceUnavailable:   "Service temporarily unavailable",
	CodeRateLimitExceeded:    "Rate limit exceeded",

	// System errors
	CodeInternalError: "Internal server error",
	CodeUnknownError:  "An unknown error occurred",

	// Routing errors
	CodeNoRoute:                    "No admissible route between the requested assets",
	CodeFeesOperationsMismatch:     "Per-segment fee count does not match operation count",
	CodeSingleOperationExpected:    "Single-segment route expected",
	CodeMismatchBetweenFeeAndRoute: "Fee and route are structurally inconsistent",
	CodeInvalidRouteDetails:        "Route details are invalid",

	// Graph and venue errors
	CodeVenueFetchFailed:       "Failed to fetch swap connections from venue",
	CodeVenueQuoteFailed:       "Venue quote failed",
	CodeSegmentExecutionFailed: "Segment execution failed",
	CodeChainNotFound:          "Chain not found in registry",
	CodeAssetNotFound:          "Asset not found in registry",
	CodeAccountNotFound:        "No wallet account for chain",
	CodeInsufficientLiquidity:  "Insufficient liquidity for trade size",
	CodeContractCallFailed:     "Smart contract call failed",
	CodePriceUnavailable:       "Price data unavailable",

	// WebSocket errors
	CodeWebSocketConnectionError: "WebSocket connection error",
	CodeWebSocketClosed:          "WebSocket connection closed",

	// Circuit breaker errors
	CodeCircuitOpen: "Circuit breaker is open",
}
