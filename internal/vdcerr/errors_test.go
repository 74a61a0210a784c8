package vdcerr

import (
	"errors"
	"testing"
)

func TestErrorMessageWithCause(t *testing.T) {
	cause := errors.New("disk full")
	e := &Error{Kind: IOError, Op: "blockio.Write", Err: cause}
	want := "vdc: blockio.Write: IOError: disk full"
	if got := e.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(e, cause) {
		t.Error("errors.Is(e, cause) = false, want true (Unwrap not wired)")
	}
}

func TestErrorMessageWithoutCause(t *testing.T) {
	e := &Error{Kind: InvalidRegion, Op: "region.Read"}
	want := "vdc: region.Read: InvalidRegion"
	if got := e.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestKindString(t *testing.T) {
	cases := map[Kind]string{
		IOError:         "IOError",
		FormatError:     "FormatError",
		ProjectionError: "ProjectionError",
		InvalidVariable: "InvalidVariable",
		InvalidRegion:   "InvalidRegion",
		ResourceError:   "ResourceError",
		Unsupported:     "Unsupported",
		Kind(99):        "UnknownError",
	}
	for k, want := range cases {
		if got := k.String(); got != want {
			t.Errorf("Kind(%d).String() = %q, want %q", k, got, want)
		}
	}
}

func TestNewRecordsLast(t *testing.T) {
	New("amr.Import", FormatError, nil)
	last := Last()
	e, ok := last.(*Error)
	if !ok {
		t.Fatalf("Last() = %T, want *Error", last)
	}
	if e.Op != "amr.Import" || e.Kind != FormatError {
		t.Errorf("Last() = %+v, want Op=amr.Import Kind=FormatError", e)
	}
}

func TestSetCallbackInvokedOnNewError(t *testing.T) {
	var got error
	SetCallback(func(err error) { got = err })
	defer SetCallback(nil)

	New("wavelet.Forward", Unsupported, nil)
	if got == nil {
		t.Fatal("callback was not invoked")
	}
	e, ok := got.(*Error)
	if !ok || e.Op != "wavelet.Forward" {
		t.Errorf("callback received %+v, want Op=wavelet.Forward", got)
	}
}
