package generation

import "errors"

// Error taxonomy for the generation boundary. Callers branch on the
// transient/permanent split to decide whether a retry can help; the
// API layer maps ErrContentBlocked separately because it reflects the
// submitted text, not provider health.
var (
	// ErrGenerationFailed covers failures with no more specific cause.
	ErrGenerationFailed = errors.New("failed to generate cards from text")

	// ErrInvalidResponse means the provider answered but the payload
	// could not be parsed into cards. Permanent for this request.
	ErrInvalidResponse = errors.New("invalid response from language model")

	// ErrContentBlocked means the provider's safety filters rejected
	// the source text. Permanent; retrying the same text cannot help.
	ErrContentBlocked = errors.New("content blocked by language model safety filters")

	// ErrTransientFailure marks provider or network conditions that
	// may clear on retry.
	ErrTransientFailure = errors.New("transient error during card generation")

	// ErrInvalidConfig is returned at construction when the generator
	// is missing an API key or model name.
	ErrInvalidConfig = errors.New("invalid generator configuration")
)
