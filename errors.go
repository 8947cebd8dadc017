// Package gorushi provides the shared error domain used by every package in
// this module, plus nothing else — it intentionally holds no browser logic,
// only the vocabulary errors are reported in.
package gorushi

import (
	"errors"
	"strings"
)

// Error is the gorushi error domain type.
//
// Errors coming from gorushi components should be able to be inspected as
// ([errors.As]) an *Error at some point in the error chain.
//
// Implementers of gorushi components should create an Error at the system
// boundary (a socket read, a TLS handshake, a malformed request line) and
// intermediate layers should not wrap in another Error except to add
// additional [ErrorKind] information. That is to say, use [fmt.Errorf] with
// a "%w" verb in preference to creating a containing Error.
type Error struct {
	Inner   error
	Kind    ErrorKind
	Message string
	Op      string
}

// Assert this implements all the cool features.
var (
	_ error                       = (*Error)(nil)
	_ interface{ Is(error) bool } = (*Error)(nil)
	_ interface{ Unwrap() error } = (*Error)(nil)
)

// Error implements error.
func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(" ")
	}
	b.WriteString("[")
	switch e.Kind {
	case ErrMalformedURL,
		ErrUnsupportedScheme,
		ErrIO,
		ErrTLS,
		ErrBadStatusLine,
		ErrUnsupportedHTTPVersion,
		ErrUnsupportedTransfer,
		ErrTooManyRedirects,
		ErrNotCompiled:
		b.WriteString(string(e.Kind))
	default:
		b.WriteString("???")
	}
	b.WriteString("]: ")
	if e.Message != "" {
		b.WriteString(e.Message)
	}
	if e.Message != "" && e.Inner != nil {
		b.WriteString(": ")
	}
	if e.Op == "" && e.Message == "" {
		b.Reset()
	}
	if e.Inner != nil {
		b.WriteString(e.Inner.Error())
	}
	return b.String()
}

// Is enables [errors.Is].
//
// It compares the error kind. Callers should compare against a declared
// [ErrorKind] over a specific error.
func (e *Error) Is(kind error) bool {
	return errors.Is(e.Kind, kind)
}

// Unwrap enables [errors.Unwrap].
func (e *Error) Unwrap() error {
	return e.Inner
}

// ErrorKind represents classes of errors to be checked against.
//
// The set below is exactly the error vocabulary a gorushi fetch or parse can
// raise: UrlRef and HttpFetcher surface these; the tokenizer and tree
// builder are total and never do.
type ErrorKind string

// Defined error kinds.
var (
	// ErrMalformedURL is raised by urlref.Parse when the input has no
	// recognizable scheme and does not look like an absolute file path.
	ErrMalformedURL = ErrorKind("malformed url")
	// ErrUnsupportedScheme is raised by urlref.Parse for any scheme other
	// than http, https, file, data, or about.
	ErrUnsupportedScheme = ErrorKind("unsupported scheme")
	// ErrIO is raised by fetch.Fetcher on any socket-level failure. The
	// connection responsible is always evicted from the pool before this
	// is returned.
	ErrIO = ErrorKind("io error")
	// ErrTLS is raised by fetch.Fetcher when the TLS handshake fails.
	ErrTLS = ErrorKind("tls error")
	// ErrBadStatusLine is raised when a response status line has fewer
	// than three space-separated tokens.
	ErrBadStatusLine = ErrorKind("bad status line")
	// ErrUnsupportedHTTPVersion is raised for an HTTP version other than
	// 1.0 or 1.1.
	ErrUnsupportedHTTPVersion = ErrorKind("unsupported http version")
	// ErrUnsupportedTransfer is raised for any Transfer-Encoding other
	// than chunked.
	ErrUnsupportedTransfer = ErrorKind("unsupported transfer encoding")
	// ErrTooManyRedirects is raised once the redirect counter exceeds
	// the fetcher's redirect ceiling (fetch.DefaultMaxRedirects unless set
	// with fetch.WithMaxRedirects).
	ErrTooManyRedirects = ErrorKind("too many redirects")
	// ErrNotCompiled is raised when entity.Matcher.ReplaceAll is called
	// before Compile. It is a programmer error, not a runtime condition.
	ErrNotCompiled = ErrorKind("matcher not compiled")
)

// Error implements error.
func (e ErrorKind) Error() string {
	return string(e)
}
