package errors

import (
	"net/http"
)

// ErrorCode is a string representation of a specific error condition.
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// Common Error Codes
const (
	ErrCodeInternal           ErrorCode = "COMMON_001"
	ErrCodeBadRequest         ErrorCode = "COMMON_002"
	ErrCodeNotFound           ErrorCode = "COMMON_003"
	ErrCodeConflict           ErrorCode = "COMMON_004"
	ErrCodeTooManyRequests    ErrorCode = "COMMON_005"
	ErrCodeServiceUnavailable ErrorCode = "COMMON_006"
	ErrCodeTimeout            ErrorCode = "COMMON_007"
	ErrCodeValidation         ErrorCode = "COMMON_008"
	ErrCodeSerialization      ErrorCode = "COMMON_009"
	ErrCodeDatabaseError      ErrorCode = "COMMON_010"
	ErrCodeCacheError         ErrorCode = "COMMON_011"
	ErrCodeExternalService    ErrorCode = "COMMON_012"
	ErrCodeNotImplemented     ErrorCode = "COMMON_013"
)

// Extraction Module Error Codes
const (
	ErrCodeEmptyDocument        ErrorCode = "CIT_001"
	ErrCodePatternCompileFailed ErrorCode = "CIT_002"
	ErrCodeTokenizerUnavailable ErrorCode = "CIT_003"
	ErrCodeContextWindowInvalid ErrorCode = "CIT_004"
	ErrCodeCitationMalformed    ErrorCode = "CIT_005"
)

// Case-Name Association Error Codes
const (
	ErrCodeNameExtractionFailed ErrorCode = "NAME_001"
	ErrCodeNameValidationFailed ErrorCode = "NAME_002"
	ErrCodeDateExtractionFailed ErrorCode = "NAME_003"
)

// Grouping Module Error Codes
const (
	ErrCodeGroupingFailed    ErrorCode = "GRP_001"
	ErrCodeSimilarityFailed  ErrorCode = "GRP_002"
	ErrCodeGroupStateInvalid ErrorCode = "GRP_003"
)

// Verification Module Error Codes
const (
	ErrCodeVerificationFailed      ErrorCode = "VER_001"
	ErrCodeCitationNotFound        ErrorCode = "VER_002"
	ErrCodeVerifierUnavailable     ErrorCode = "VER_003"
	ErrCodeVerifierRateLimited     ErrorCode = "VER_004"
	ErrCodeVerifierAuthFailed      ErrorCode = "VER_005"
	ErrCodeVerifierResponseInvalid ErrorCode = "VER_006"
	ErrCodeCitationUnverifiable    ErrorCode = "VER_007"
)

// Job / Worker Error Codes
const (
	ErrCodeJobNotFound       ErrorCode = "JOB_001"
	ErrCodeJobAlreadyExists  ErrorCode = "JOB_002"
	ErrCodeJobPayloadInvalid ErrorCode = "JOB_003"
)

// Aliases kept short for call-site readability.
const (
	CodeInternal     = ErrCodeInternal
	CodeInvalidParam = ErrCodeBadRequest
	CodeNotFound     = ErrCodeNotFound
	CodeConflict     = ErrCodeConflict
	CodeRateLimit    = ErrCodeTooManyRequests
	CodeUnknown      = ErrorCode("UNKNOWN")
	CodeOK           = ErrorCode("OK")
)

// ErrorCodeHTTPStatus maps ErrorCodes to HTTP status codes for the API layer.
var ErrorCodeHTTPStatus = map[ErrorCode]int{
	ErrCodeInternal:           http.StatusInternalServerError,
	ErrCodeBadRequest:         http.StatusBadRequest,
	ErrCodeNotFound:           http.StatusNotFound,
	ErrCodeConflict:           http.StatusConflict,
	ErrCodeTooManyRequests:    http.StatusTooManyRequests,
	ErrCodeServiceUnavailable: http.StatusServiceUnavailable,
	ErrCodeTimeout:            http.StatusGatewayTimeout,
	ErrCodeValidation:         http.StatusUnprocessableEntity,
	ErrCodeSerialization:      http.StatusInternalServerError,
	ErrCodeDatabaseError:      http.StatusInternalServerError,
	ErrCodeCacheError:         http.StatusInternalServerError,
	ErrCodeExternalService:    http.StatusBadGateway,
	ErrCodeNotImplemented:     http.StatusNotImplemented,

	ErrCodeEmptyDocument:        http.StatusBadRequest,
	ErrCodePatternCompileFailed: http.StatusInternalServerError,
	ErrCodeTokenizerUnavailable: http.StatusInternalServerError,
	ErrCodeContextWindowInvalid: http.StatusBadRequest,
	ErrCodeCitationMalformed:    http.StatusBadRequest,

	ErrCodeNameExtractionFailed: http.StatusInternalServerError,
	ErrCodeNameValidationFailed: http.StatusInternalServerError,
	ErrCodeDateExtractionFailed: http.StatusInternalServerError,

	ErrCodeGroupingFailed:    http.StatusInternalServerError,
	ErrCodeSimilarityFailed:  http.StatusInternalServerError,
	ErrCodeGroupStateInvalid: http.StatusInternalServerError,

	ErrCodeVerificationFailed:      http.StatusBadGateway,
	ErrCodeCitationNotFound:        http.StatusNotFound,
	ErrCodeVerifierUnavailable:     http.StatusServiceUnavailable,
	ErrCodeVerifierRateLimited:     http.StatusTooManyRequests,
	ErrCodeVerifierAuthFailed:      http.StatusBadGateway,
	ErrCodeVerifierResponseInvalid: http.StatusBadGateway,
	ErrCodeCitationUnverifiable:    http.StatusOK,

	ErrCodeJobNotFound:       http.StatusNotFound,
	ErrCodeJobAlreadyExists:  http.StatusConflict,
	ErrCodeJobPayloadInvalid: http.StatusBadRequest,
}

// HTTPStatus returns the HTTP status for code, defaulting to 500 for any
// code without an explicit mapping.
func HTTPStatus(code ErrorCode) int {
	if s, ok := ErrorCodeHTTPStatus[code]; ok {
		return s
	}
	return http.StatusInternalServerError
}
