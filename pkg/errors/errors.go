package errors

import "fmt"

// Error codes
const (
	CodeAssistant  = "ASSISTANT_ERROR"
	CodeAPIError   = "API_ERROR"
	CodeValidation = "VALIDATION_ERROR"
	CodeCache      = "CACHE_ERROR"
	CodeStorage    = "STORAGE_ERROR"
	CodeImport     = "IMPORT_ERROR"
)

type AssistantError struct {
	Message    string
	Code       string
	StatusCode int
	Context    map[string]any
	Cause      error
}

func (e *AssistantError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AssistantError) Unwrap() error {
	return e.Cause
}

func NewAssistantError(message, code string, statusCode int, context map[string]any) *AssistantError {
	return &AssistantError{
		Message:    message,
		Code:       code,
		StatusCode: statusCode,
		Context:    context,
	}
}

func (e *AssistantError) WithCause(cause error) *AssistantError {
	e.Cause = cause
	return e
}

// APIError describes a failed call to a remote API such as the prediction service.
type APIError struct {
	*AssistantError
}

func NewAPIError(message string, statusCode int, context map[string]any) *APIError {
	return &APIError{
		AssistantError: &AssistantError{
			Message:    message,
			Code:       CodeAPIError,
			StatusCode: statusCode,
			Context:    context,
		},
	}
}

func (e *APIError) WithCause(cause error) *APIError {
	e.Cause = cause
	return e
}

type ValidationError struct {
	*AssistantError
	Field string
	Value any
}

func NewValidationError(message, field string, value any) *ValidationError {
	return &ValidationError{
		AssistantError: &AssistantError{
			Message:    message,
			Code:       CodeValidation,
			StatusCode: 400,
			Context: map[string]any{
				"field": field,
				"value": value,
			},
		},
		Field: field,
		Value: value,
	}
}

type CacheError struct {
	*AssistantError
	Operation string
	Key       string
}

func NewCacheError(message, operation, key string, cause error) *CacheError {
	return &CacheError{
		AssistantError: &AssistantError{
			Message:    message,
			Code:       CodeCache,
			StatusCode: 500,
			Context: map[string]any{
				"operation": operation,
				"key":       key,
			},
			Cause: cause,
		},
		Operation: operation,
		Key:       key,
	}
}

// StorageError wraps failures of the relational transcript store.
type StorageError struct {
	*AssistantError
	Table     string
	Operation string
}

func NewStorageError(message, table, operation string, cause error) *StorageError {
	return &StorageError{
		AssistantError: &AssistantError{
			Message:    message,
			Code:       CodeStorage,
			StatusCode: 500,
			Context: map[string]any{
				"table":     table,
				"operation": operation,
			},
			Cause: cause,
		},
		Table:     table,
		Operation: operation,
	}
}

// ImportError is returned when a serialized conversation context is rejected.
// The receiving context is never partially modified when this error is returned.
type ImportError struct {
	*AssistantError
	Reasons []string
}

func NewImportError(message string, reasons []string, cause error) *ImportError {
	return &ImportError{
		AssistantError: &AssistantError{
			Message:    message,
			Code:       CodeImport,
			StatusCode: 400,
			Context: map[string]any{
				"reasons": reasons,
			},
			Cause: cause,
		},
		Reasons: reasons,
	}
}
