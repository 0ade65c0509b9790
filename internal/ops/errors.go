package ops

import "fmt"

// APIエラーコード。HTTP層でステータスコードへ写像されます。
const (
	CodeInvalidInput         = "INVALID_INPUT"
	CodeUnknownOperation     = "UNKNOWN_OPERATION"
	CodeUnsupportedOperation = "UNSUPPORTED_OPERATION"
	CodeMissingParameter     = "MISSING_PARAMETER"
	CodeInvalidParameter     = "INVALID_PARAMETER"
	CodeContextMissing       = "CONTEXT_MISSING"
	CodeOperationFailed      = "OPERATION_FAILED"
	CodeFileNotFound         = "FILE_NOT_FOUND"
	CodeJobNotFound          = "JOB_NOT_FOUND"
	CodeJobNotReady          = "JOB_NOT_READY"
	CodeLimitExceeded        = "LIMIT_EXCEEDED"
	CodeInternalError        = "INTERNAL_ERROR"
)

// Error はコード付きのアプリケーションエラーです。
type Error struct {
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError はコード付きエラーを作成します。
func NewError(code, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

func newError(code, message string, err error) *Error {
	return NewError(code, message, err)
}
