package drawfs

import (
	"errors"
	"fmt"
	"syscall"

	"github.com/pgsdf/drawfs/internal/protocol"
)

// Error is a structured error carrying the session context behind a
// host-API failure. Distinct from the wire-level ErrCode carried inside
// ERROR reply frames (internal/constants.ErrCode): this type is how the
// server and its callers talk about a failure, never something that
// itself crosses the wire.
type Error struct {
	Op        string        // operation that failed (e.g. "write", "map", "accept")
	SessionID uint64        // session id (0 if not applicable)
	Code      ErrCode       // high-level error category
	Errno     syscall.Errno // kernel errno behind a memobj allocation failure (0 if not host-originated)
	Msg       string        // human-readable message
	Inner     error         // wrapped error
}

func (e *Error) Error() string {
	var parts []string
	if e.Op != "" {
		parts = append(parts, fmt.Sprintf("op=%s", e.Op))
	}
	if e.SessionID != 0 {
		parts = append(parts, fmt.Sprintf("session=%d", e.SessionID))
	}
	if e.Errno != 0 {
		parts = append(parts, fmt.Sprintf("errno=%d", e.Errno))
	}

	msg := e.Msg
	if msg == "" {
		msg = string(e.Code)
	}
	if len(parts) > 0 {
		return fmt.Sprintf("drawfs: %s (%s)", msg, parts[0])
	}
	return fmt.Sprintf("drawfs: %s", msg)
}

func (e *Error) Unwrap() error { return e.Inner }

func (e *Error) Is(target error) bool {
	if target == nil {
		return false
	}
	if te, ok := target.(*Error); ok {
		return e.Code == te.Code
	}
	return false
}

// ErrCode categorizes a host-API failure at the top-level API surface.
type ErrCode string

const (
	ErrCodeNotImplemented    ErrCode = "not implemented"
	ErrCodeSessionNotFound   ErrCode = "session not found"
	ErrCodeSessionClosed     ErrCode = "session closed"
	ErrCodeInvalidParameters ErrCode = "invalid parameters"
	ErrCodePermissionDenied  ErrCode = "permission denied"
	ErrCodeInsufficientMem   ErrCode = "insufficient memory"
	ErrCodeIOError           ErrCode = "I/O error"
	ErrCodeTimeout           ErrCode = "timeout"
	ErrCodeTooManySessions   ErrCode = "too many sessions"
)

// NewError creates a new structured error.
func NewError(op string, code ErrCode, msg string) *Error {
	return &Error{Op: op, Code: code, Msg: msg}
}

// NewErrorWithErrno creates a new structured error carrying the kernel
// errno behind a memobj allocation failure (memfd_create/ftruncate/mmap).
func NewErrorWithErrno(op string, code ErrCode, errno syscall.Errno) *Error {
	return &Error{Op: op, Code: code, Errno: errno, Msg: errno.Error()}
}

// NewSessionError creates a new session-scoped structured error.
func NewSessionError(op string, sessionID uint64, code ErrCode, msg string) *Error {
	return &Error{Op: op, SessionID: sessionID, Code: code, Msg: msg}
}

// WrapError wraps an existing error with drawfs context, mapping the
// protocol package's host-API sentinel errors, or a bare syscall.Errno
// surfaced by internal/memobj's allocator, onto the public ErrCode
// vocabulary.
func WrapError(op string, inner error) *Error {
	if inner == nil {
		return nil
	}
	if de, ok := inner.(*Error); ok {
		return &Error{Op: op, SessionID: de.SessionID, Code: de.Code, Errno: de.Errno, Msg: de.Msg, Inner: de.Inner}
	}

	var errno syscall.Errno
	if errors.As(inner, &errno) {
		return &Error{Op: op, Code: mapErrnoToCode(errno), Errno: errno, Msg: inner.Error(), Inner: inner}
	}

	return &Error{Op: op, Code: mapInnerToCode(inner), Msg: inner.Error(), Inner: inner}
}

func mapInnerToCode(err error) ErrCode {
	switch {
	case errors.Is(err, protocol.ErrNoSuchDevice):
		return ErrCodeSessionClosed
	case errors.Is(err, protocol.ErrNotAssociated):
		return ErrCodeInvalidParameters
	case errors.Is(err, protocol.ErrWouldBlock):
		return ErrCodeTimeout
	case errors.Is(err, protocol.ErrTooBig):
		return ErrCodeInvalidParameters
	case errors.Is(err, protocol.ErrOutOfMemory):
		return ErrCodeInsufficientMem
	default:
		return ErrCodeIOError
	}
}

// mapErrnoToCode maps a kernel errno from internal/memobj's Linux
// allocator (memfd_create/ftruncate/mmap) onto the public ErrCode
// vocabulary, mirroring the teacher's errno table for this domain's
// actual syscall surface rather than ublk's ioctl/block-layer one.
func mapErrnoToCode(errno syscall.Errno) ErrCode {
	switch errno {
	case syscall.EINVAL, syscall.E2BIG:
		return ErrCodeInvalidParameters
	case syscall.EPERM, syscall.EACCES:
		return ErrCodePermissionDenied
	case syscall.ENOMEM, syscall.ENOSPC:
		return ErrCodeInsufficientMem
	case syscall.EMFILE, syscall.ENFILE:
		return ErrCodeIOError
	case syscall.ETIMEDOUT:
		return ErrCodeTimeout
	default:
		return ErrCodeIOError
	}
}

// IsCode checks if an error matches a specific error code.
func IsCode(err error, code ErrCode) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// IsErrno checks if an error matches a specific kernel errno.
func IsErrno(err error, errno syscall.Errno) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Errno == errno
	}
	return false
}
