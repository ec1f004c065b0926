package core

import "errors"

// Error codes for domain errors.
const (
	ErrCodeInvalidPair = "invalid_pair"
	ErrCodeValidation  = "validation"
	ErrCodeStorage     = "storage"
	ErrCodeNotFound    = "not_found"
)

var (
	ErrInvalidPair = errors.New("invalid participant pair")
	ErrValidation  = errors.New("validation failed")
)

// CoreError wraps a code and human-readable message.
type CoreError struct {
	Code    string
	Message string
}

func (e *CoreError) Error() string {
	return e.Message
}

func coreError(code, msg string) *CoreError {
	return &CoreError{Code: code, Message: msg}
}

// AsCoreError extracts a CoreError from err, or wraps err as a storage
// error so transports always have a code to send.
func AsCoreError(err error) *CoreError {
	var ce *CoreError
	if errors.As(err, &ce) {
		return ce
	}
	switch {
	case errors.Is(err, ErrInvalidPair):
		return &CoreError{Code: ErrCodeInvalidPair, Message: err.Error()}
	case errors.Is(err, ErrValidation):
		return &CoreError{Code: ErrCodeValidation, Message: err.Error()}
	}
	return &CoreError{Code: ErrCodeStorage, Message: err.Error()}
}
