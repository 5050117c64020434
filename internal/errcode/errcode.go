package errcode

import (
	"errors"
	"fmt"
)

// Kind 划分业务失败类别，传输层据此映射 HTTP 状态码。
type Kind int

const (
	KindUnauthenticated Kind = iota + 1
	KindForbidden
	KindNotFound
	KindValidation
	KindConflict
	KindInvalidTransition
)

// Reason 是策略拒绝时返回的机器可读原因。
type Reason string

const (
	ReasonNotAuthenticated Reason = "NOT_AUTHENTICATED"
	ReasonWrongRole        Reason = "WRONG_ROLE"
	ReasonNotOwner         Reason = "NOT_OWNER"
	ReasonAlreadyApplied   Reason = "ALREADY_APPLIED"
	ReasonJobInactive      Reason = "JOB_INACTIVE"
	ReasonTerminalState    Reason = "TERMINAL_STATE"
)

// Error 承载类别、原因与面向调用方的描述。
type Error struct {
	Kind   Kind
	Reason Reason
	Msg    string
}

func (e *Error) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s: %s", e.Reason, e.Msg)
	}
	return e.Msg
}

func Unauthenticated() *Error {
	return &Error{Kind: KindUnauthenticated, Reason: ReasonNotAuthenticated, Msg: "not authenticated"}
}

func Forbidden(reason Reason, msg string) *Error {
	return &Error{Kind: KindForbidden, Reason: reason, Msg: msg}
}

func NotFound(msg string) *Error {
	return &Error{Kind: KindNotFound, Msg: msg}
}

func Validation(msg string) *Error {
	return &Error{Kind: KindValidation, Msg: msg}
}

func Validationf(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Msg: fmt.Sprintf(format, args...)}
}

func Conflict(reason Reason, msg string) *Error {
	return &Error{Kind: KindConflict, Reason: reason, Msg: msg}
}

func JobInactive() *Error {
	return &Error{Kind: KindValidation, Reason: ReasonJobInactive, Msg: "job is not accepting applications"}
}

func InvalidTransition(msg string) *Error {
	return &Error{Kind: KindInvalidTransition, Msg: msg}
}

// TerminalState 表示从终态发起的流转。
func TerminalState(msg string) *Error {
	return &Error{Kind: KindInvalidTransition, Reason: ReasonTerminalState, Msg: msg}
}

// KindOf 返回错误所属类别；非业务错误返回 false。
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}

// IsKind 判断错误是否属于指定类别。
func IsKind(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}
