package apperr

import (
	"errors"
	"sort"
	"strings"
)

// Kind классифицирует ошибку на границе, где она возникла.
type Kind int

const (
	KindUnknown Kind = iota
	KindConfiguration
	KindUpstream
	KindMalformedResponse
	KindValidation
)

func (k Kind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindUpstream:
		return "upstream"
	case KindMalformedResponse:
		return "malformed_response"
	case KindValidation:
		return "validation"
	default:
		return "unknown"
	}
}

// Error is the single error type produced at every classified boundary.
// Message is safe to show to an end user; Err keeps the internal cause.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Fields  map[string]string
	Err     error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	b.WriteString(e.Kind.String())
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if len(e.Fields) > 0 {
		keys := make([]string, 0, len(e.Fields))
		for key := range e.Fields {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		b.WriteString(" [")
		for i, key := range keys {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(key)
			b.WriteString("=")
			b.WriteString(e.Fields[key])
		}
		b.WriteString("]")
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New создает ошибку заданного вида без внутренней причины.
func New(kind Kind, op, message string) *Error {
	return &Error{Kind: kind, Op: op, Message: message}
}

// Wrap оборачивает причину в ошибку заданного вида.
func Wrap(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Validation собирает ошибки полей в одну ошибку валидации.
func Validation(op string, fields map[string]string) *Error {
	return &Error{Kind: KindValidation, Op: op, Message: "validation failed", Fields: fields}
}

// KindOf возвращает вид ошибки или KindUnknown, если ошибка не классифицирована.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindUnknown
}

// FieldsOf возвращает ошибки полей для ошибок валидации.
func FieldsOf(err error) map[string]string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Fields
	}
	return nil
}

// Is сообщает, относится ли ошибка к указанному виду.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// MessageOf возвращает текст для пользователя: Message ближайшей ошибки с непустым текстом
// или общий текст по виду ошибки.
func MessageOf(err error) string {
	kind := KindOf(err)
	for cause := err; cause != nil; {
		var appErr *Error
		if !errors.As(cause, &appErr) {
			break
		}
		if appErr.Message != "" {
			return appErr.Message
		}
		cause = appErr.Err
	}

	switch kind {
	case KindValidation:
		return "validation failed"
	case KindUpstream, KindMalformedResponse:
		return "upstream service unavailable"
	default:
		return "internal server error"
	}
}
