package ports

import "errors"

// Standard application-level errors.
// Adapters wrap underlying infrastructure errors with these so callers can use errors.Is.
var (
	// General Errors
	ErrUnknown            = errors.New("unknown error occurred")
	ErrInvalidRequest     = errors.New("invalid request parameters or format")
	ErrNotFound           = errors.New("resource not found")
	ErrTimeout            = errors.New("operation timed out")
	ErrContextCanceled    = errors.New("operation canceled via context")
	ErrConfigurationError = errors.New("invalid or missing configuration")
	ErrUnknownMode        = errors.New("unknown analysis mode")

	// Market Data Errors
	ErrProviderFailure      = errors.New("market data provider failed")
	ErrProviderUnavailable  = errors.New("market data provider is unavailable")
	ErrRateLimited          = errors.New("API rate limit exceeded")
	ErrAuthenticationFailed = errors.New("provider authentication failed (check API keys)")
	ErrUnsupportedTicker    = errors.New("ticker not supported by provider")
	ErrNoData               = errors.New("provider returned no data")

	// Storage Errors
	ErrDBConnection = errors.New("database connection error")
	ErrQueryFailed  = errors.New("database query failed")
	ErrUpdateFailed = errors.New("database update failed")
	ErrCacheFailure = errors.New("cache operation failed")

	// Delivery Errors
	ErrNotificationFailed = errors.New("notification delivery failed")
	ErrLoggerClosed       = errors.New("signal logger is closed")
)
