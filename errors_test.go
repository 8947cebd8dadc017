package gorushi

import (
	"errors"
	"fmt"
	"testing"
)

func ExampleError() {
	fmt.Println(&Error{
		Inner:   nil,
		Kind:    ErrIO,
		Message: "test",
		Op:      "ExampleError",
	})

	fmt.Println(&Error{
		Inner:   errors.New("connection reset by peer"),
		Kind:    ErrIO,
		Message: "read failed",
		Op:      "fetch.Fetcher.Fetch",
	})
	fmt.Println(fmt.Errorf("urlref: %w", &Error{
		Kind:    ErrMalformedURL,
		Message: "no scheme and not an absolute path",
		Op:      "Parse",
	}))

	// Output:
	// ExampleError [io error]: test
	// fetch.Fetcher.Fetch [io error]: read failed: connection reset by peer
	// urlref: Parse [malformed url]: no scheme and not an absolute path
}

func TestErrorIs(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", &Error{Kind: ErrTooManyRedirects})
	if !errors.Is(err, ErrTooManyRedirects) {
		t.Error("expected errors.Is to match ErrTooManyRedirects through the wrap")
	}
	if errors.Is(err, ErrBadStatusLine) {
		t.Error("did not expect errors.Is to match an unrelated kind")
	}

	var target *Error
	if !errors.As(err, &target) {
		t.Fatal("expected errors.As to find the *Error")
	}
	if target.Kind != ErrTooManyRedirects {
		t.Errorf("got: %v, want: %v", target.Kind, ErrTooManyRedirects)
	}
}
