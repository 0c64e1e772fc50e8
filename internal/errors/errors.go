// Package errors provides the error taxonomy shared by capture, OCR and the
// transport layers. Every failure that reaches a caller is an AppError so the
// UI shell always gets a readable message and the gRPC surface a stable code.
package errors

import (
	stderrors "errors"
	"fmt"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Domain is reported in the ErrorInfo detail of gRPC statuses.
const Domain = "prinsp"

// Code classifies an AppError.
type Code int

const (
	CodeUnknown Code = iota
	CodeInternal
	CodeInvalidArgument
	CodeUnavailable
	CodeTimeout
	CodeCaptureFailed
	CodeImageDecode
	CodeImageEncode
	CodeOCREngineMissing
	CodeOCRLanguageMissing
	CodeOCRFailed
	CodeConfigInvalid
)

var codeNames = map[Code]string{
	CodeUnknown:            "UNKNOWN",
	CodeInternal:           "INTERNAL",
	CodeInvalidArgument:    "INVALID_ARGUMENT",
	CodeUnavailable:        "UNAVAILABLE",
	CodeTimeout:            "TIMEOUT",
	CodeCaptureFailed:      "CAPTURE_FAILED",
	CodeImageDecode:        "IMAGE_DECODE",
	CodeImageEncode:        "IMAGE_ENCODE",
	CodeOCREngineMissing:   "OCR_ENGINE_MISSING",
	CodeOCRLanguageMissing: "OCR_LANGUAGE_MISSING",
	CodeOCRFailed:          "OCR_FAILED",
	CodeConfigInvalid:      "CONFIG_INVALID",
}

func (c Code) String() string {
	if s, ok := codeNames[c]; ok {
		return s
	}
	return fmt.Sprintf("CODE(%d)", int(c))
}

// grpcCodeMap maps error codes to gRPC status codes.
var grpcCodeMap = map[Code]codes.Code{
	CodeUnknown:            codes.Unknown,
	CodeInternal:           codes.Internal,
	CodeInvalidArgument:    codes.InvalidArgument,
	CodeUnavailable:        codes.Unavailable,
	CodeTimeout:            codes.DeadlineExceeded,
	CodeCaptureFailed:      codes.Unavailable,
	CodeImageDecode:        codes.InvalidArgument,
	CodeImageEncode:        codes.Internal,
	CodeOCREngineMissing:   codes.FailedPrecondition,
	CodeOCRLanguageMissing: codes.FailedPrecondition,
	CodeOCRFailed:          codes.Internal,
	CodeConfigInvalid:      codes.InvalidArgument,
}

// AppError is the base error type with structured error code and metadata.
type AppError struct {
	Code     Code
	Message  string
	Metadata map[string]string
	Cause    error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	s := fmt.Sprintf("[%s] %s", e.Code, e.Message)
	if len(e.Metadata) > 0 {
		s += fmt.Sprintf(" %v", e.Metadata)
	}
	if e.Cause != nil {
		s += fmt.Sprintf(" caused by: %v", e.Cause)
	}
	return s
}

// Unwrap returns the underlying cause for errors.Is/As.
func (e *AppError) Unwrap() error { return e.Cause }

// GRPCCode returns the corresponding gRPC status code.
func (e *AppError) GRPCCode() codes.Code {
	if c, ok := grpcCodeMap[e.Code]; ok {
		return c
	}
	return codes.Unknown
}

// GRPCStatus returns a gRPC status carrying an ErrorInfo detail. grpc-go uses
// this method when an AppError is returned from a handler.
func (e *AppError) GRPCStatus() *status.Status {
	st := status.New(e.GRPCCode(), e.UserMessage())
	info := &errdetails.ErrorInfo{Reason: e.Code.String(), Domain: Domain, Metadata: e.Metadata}
	if withInfo, err := st.WithDetails(info); err == nil {
		return withInfo
	}
	return st
}

// UserMessage is the text shown to the user: the message, followed by the
// cause when there is one.
func (e *AppError) UserMessage() string {
	if e.Cause != nil && e.Message != "" {
		return e.Message + ": " + e.Cause.Error()
	}
	if e.Message == "" && e.Cause != nil {
		return e.Cause.Error()
	}
	return e.Message
}

// New creates a new AppError with the given code and message.
func New(code Code, msg string) *AppError {
	return &AppError{Code: code, Message: msg}
}

// Newf creates a new AppError with formatted message.
func Newf(code Code, format string, args ...any) *AppError {
	return &AppError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap wraps an existing error with an AppError.
func Wrap(err error, code Code, msg string) *AppError {
	return &AppError{Code: code, Message: msg, Cause: err}
}

// Wrapf wraps an existing error with formatted message.
func Wrapf(err error, code Code, format string, args ...any) *AppError {
	return &AppError{Code: code, Message: fmt.Sprintf(format, args...), Cause: err}
}

// WithMetadata adds metadata to an AppError.
func (e *AppError) WithMetadata(key, value string) *AppError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]string)
	}
	e.Metadata[key] = value
	return e
}

// FromGRPCError rebuilds an AppError from a status produced by GRPCStatus.
func FromGRPCError(err error) *AppError {
	st, ok := status.FromError(err)
	if !ok {
		return &AppError{Code: CodeUnknown, Message: err.Error(), Cause: err}
	}

	for _, detail := range st.Details() {
		if info, ok := detail.(*errdetails.ErrorInfo); ok && info.GetDomain() == Domain {
			return &AppError{
				Code:     codeFromName(info.GetReason()),
				Message:  st.Message(),
				Metadata: info.GetMetadata(),
			}
		}
	}

	return &AppError{Code: grpcToCode(st.Code()), Message: st.Message()}
}

func codeFromName(name string) Code {
	for c, n := range codeNames {
		if n == name {
			return c
		}
	}
	return CodeUnknown
}

// grpcToCode maps gRPC codes back to our error codes (best effort).
func grpcToCode(c codes.Code) Code {
	switch c {
	case codes.InvalidArgument, codes.ResourceExhausted:
		return CodeInvalidArgument
	case codes.Unavailable:
		return CodeUnavailable
	case codes.DeadlineExceeded:
		return CodeTimeout
	case codes.Internal:
		return CodeInternal
	default:
		return CodeUnknown
	}
}

// IsCode reports whether any AppError in err's chain has the given code.
func IsCode(err error, code Code) bool {
	var appErr *AppError
	for err != nil {
		if !stderrors.As(err, &appErr) {
			return false
		}
		if appErr.Code == code {
			return true
		}
		err = appErr.Cause
	}
	return false
}

// IsRetryable returns true if the error is potentially retryable.
func IsRetryable(err error) bool {
	var appErr *AppError
	if !stderrors.As(err, &appErr) {
		return false
	}
	switch appErr.Code {
	case CodeUnavailable, CodeTimeout, CodeCaptureFailed:
		return true
	default:
		return false
	}
}

// UserMessage renders any error for the UI layer.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.UserMessage()
	}
	return err.Error()
}
