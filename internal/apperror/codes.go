package apperror

// Code represents a unique error code for the application.
type Code string

// General error codes
const (
	CodeRequiredField   Code = "REQUIRED_FIELD"
	CodeInvalidInput    Code = "INVALID_INPUT"
	CodeInvalidState    Code = "INVALID_STATE"
	CodeNotFound        Code = "NOT_FOUND"
	CodeValidationError Code = "VALIDATION_ERROR"

	// Configuration
	CodeConfigurationError Code = "CONFIGURATION_ERROR"

	// External service errors
	CodeExternalServiceError Code = "EXTERNAL_SERVICE_ERROR"
	CodeServiceTimeout       Code = "SERVICE_TIMEOUT"
	CodeServiceUnavailable   Code = "SERVICE_UNAVAILABLE"
	CodeRateLimitExceeded    Code = "RATE_LIMIT_EXCEEDED"

	// System errors
	CodeInternalError Code = "INTERNAL_ERROR"
	CodeUnknownError  Code = "UNKNOWN_ERROR"
)

// Routing error codes
const (
	CodeNoRoute                    Code = "NO_ROUTE"
	CodeFeesOperationsMismatch     Code = "FEES_OPERATIONS_MISMATCH"
	CodeSingleOperationExpected    Code = "SINGLE_OPERATION_EXPECTED"
	CodeMismatchBetweenFeeAndRoute Code = "MISMATCH_BETWEEN_FEE_AND_ROUTE"
	CodeInvalidRouteDetails        Code = "INVALID_ROUTE_DETAILS"
)

// Graph and venue error codes
const (
	CodeVenueFetchFailed       Code = "VENUE_FETCH_FAILED"
	CodeVenueQuoteFailed       Code = "VENUE_QUOTE_FAILED"
	CodeSegmentExecutionFailed Code = "SEGMENT_EXECUTION_FAILED"
	CodeChainNotFound          Code = "CHAIN_NOT_FOUND"
	CodeAssetNotFound          Code = "ASSET_NOT_FOUND"
	CodeAccountNotFound        Code = "ACCOUNT_NOT_FOUND"
	CodeInsufficientLiquidity  Code = "INSUFFICIENT_LIQUIDITY"
	CodeContractCallFailed     Code = "CONTRACT_CALL_FAILED"
	CodePriceUnavailable       Code = "PRICE_UNAVAILABLE"

	// WebSocket errors
	CodeWebSocketConnectionError Code = "WEBSOCKET_CONNECTION_ERROR"
	CodeWebSocketClosed          Code = "WEBSOCKET_CLOSED"

	// Circuit breaker errors
	CodeCircuitOpen Code = "CIRCUIT_OPEN"
)
