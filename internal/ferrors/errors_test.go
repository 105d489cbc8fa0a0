package ferrors

import (
	"errors"
	"testing"
)

func TestFetchErrorMessageWithStatus(t *testing.T) {
	fe := WithStatus(ErrHTTPError, "bad response", 503)
	want := "bad response (status 503)"
	if fe.Error() != want {
		t.Errorf("expected %q, got %q", want, fe.Error())
	}
}

func TestFetchErrorMessageWithoutStatus(t *testing.T) {
	fe := New(ErrNavigation, "navigation timed out")
	if fe.Error() != "navigation timed out" {
		t.Errorf("unexpected message: %q", fe.Error())
	}
}

func TestFetchErrorUnwrap(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	fe := Wrap(ErrFetchFailed, "fetch failed", cause)

	if !errors.Is(fe, cause) {
		t.Errorf("expected errors.Is to reach the wrapped cause")
	}
}

func TestAsFetchError(t *testing.T) {
	cause := Wrap(ErrChallengePage, "challenge detected", nil)
	wrapped := errors.Join(errors.New("context"), cause)

	fe, ok := AsFetchError(wrapped)
	if !ok {
		t.Fatalf("expected AsFetchError to find the FetchError in the chain")
	}
	if fe.Code != ErrChallengePage {
		t.Errorf("expected code %q, got %q", ErrChallengePage, fe.Code)
	}
}

func TestAsFetchErrorMiss(t *testing.T) {
	if _, ok := AsFetchError(errors.New("plain error")); ok {
		t.Fatalf("expected miss on a non-FetchError")
	}
}
