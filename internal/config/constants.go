package config

import "time"

// Timeout constants. Model calls deliberately have no timeout of their own;
// see NewAIClient.
const (
	// HTTP timeouts
	DefaultHTTPTimeout = 60 * time.Second

	// Database timeouts
	DatabaseConnMaxLifetime = 5 * time.Minute

	// Session timeouts
	SessionMaxAge = 7 * 24 * time.Hour
)

// AI constants
const (
	// DefaultMaxTokens is used when a model has no configured token cap.
	DefaultMaxTokens = 4096

	// MaxPromptTopics caps how many topic names are embedded verbatim in a
	// planning prompt; the remainder is summarized as a count.
	MaxPromptTopics = 50

	// ResponseExcerptLength bounds how much of a malformed model reply is
	// echoed back in validation errors.
	ResponseExcerptLength = 500
)

// Session configuration constants
const (
	SessionPath     = "/"
	SessionHTTPOnly = true
	SessionSecure   = false
	SessionName     = "tutor-session"
)

// DefaultCSP is the Content-Security-Policy header served on every response
const DefaultCSP = "default-src 'self'; frame-ancestors 'none'"
