package domain

import "fmt"

// DomainError represents a domain-specific error
type DomainError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new DomainError
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     nil,
	}
}

// NewDomainErrorWithCause creates a new DomainError with an underlying cause
func NewDomainErrorWithCause(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common domain error codes, one per pipeline failure class.
const (
	ErrCodeValidation    = "VALIDATION_ERROR"
	ErrCodeNoDomainMatch = "NO_DOMAIN_MATCH"
	ErrCodeKBMissing     = "KNOWLEDGE_BASE_MISSING"
	ErrCodeTransport     = "TRANSPORT_ERROR"
	ErrCodeParseFailed   = "PARSE_FAILED"
	ErrCodeUnsafeSQL     = "UNSAFE_SQL"
	ErrCodeExecution     = "EXECUTION_ERROR"
	ErrCodeNotFound      = "NOT_FOUND"
	ErrCodeUnauthorized  = "UNAUTHORIZED"
	ErrCodeInternalError = "INTERNAL_ERROR"
)

// Validation errors
var (
	ErrMissingTenant   = NewDomainError(ErrCodeValidation, "tenant database must be selected")
	ErrMissingQuestion = NewDomainError(ErrCodeValidation, "question must not be empty")
)

// Routing and knowledge-base errors
var (
	ErrNoDomainMatch        = NewDomainError(ErrCodeNoDomainMatch, "no relevant knowledge domain found")
	ErrKnowledgeBaseMissing = NewDomainError(ErrCodeKBMissing, "knowledge base document not found for detected domain")
)

// Authorization errors
var (
	ErrInvalidAPIToken = NewDomainError(ErrCodeUnauthorized, "invalid api token")
)
