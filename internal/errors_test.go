package internal

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"testing"
)

func TestErrorKindStatus(t *testing.T) {
	cases := map[ErrorKind]int{
		KindInput:       http.StatusBadRequest,
		KindNotFound:    http.StatusNotFound,
		KindForbidden:   http.StatusForbidden,
		KindUnavailable: http.StatusServiceUnavailable,
		KindInternal:    http.StatusInternalServerError,
		ErrorKind("?"):  http.StatusInternalServerError,
	}
	for kind, want := range cases {
		if got := kind.Status(); got != want {
			t.Errorf("%s: expected %d, got %d", kind, want, got)
		}
	}
}

func TestAsErrorKeepsKind(t *testing.T) {
	original := NotFoundError(fmt.Errorf("open x: no such file"), "no such file: %s", "x")
	wrapped := fmt.Errorf("captioning: %w", original)

	e := AsError(wrapped)
	if e.Kind != KindNotFound {
		t.Fatalf("expected not_found, got %s", e.Kind)
	}
	if e.Error() != "no such file: x: open x: no such file" {
		t.Fatalf("unexpected message: %q", e.Error())
	}
}

func TestAsErrorClassifiesUnknownErrors(t *testing.T) {
	if e := AsError(fmt.Errorf("boom")); e.Kind != KindInternal || e.Msg != "boom" {
		t.Fatalf("expected internal boom, got %s %q", e.Kind, e.Msg)
	}
	if e := AsError(context.DeadlineExceeded); e.Kind != KindUnavailable {
		t.Fatalf("expected unavailable for deadline, got %s", e.Kind)
	}
}

func TestErrorBodyHasTrace(t *testing.T) {
	body := InputError("bad %q value", "file").Body()

	if body.Msg != `bad "file" value` {
		t.Fatalf("unexpected msg: %q", body.Msg)
	}
	if body.Kind != "input" {
		t.Fatalf("unexpected kind: %q", body.Kind)
	}
	if len(body.Trace) < 2 {
		t.Fatalf("expected a stack in the trace, got %v", body.Trace)
	}
	for _, line := range body.Trace {
		if strings.Contains(line, `"`) {
			t.Fatalf("trace line contains a double quote: %q", line)
		}
	}
	if !strings.Contains(strings.Join(body.Trace, "\n"), "TestErrorBodyHasTrace") {
		t.Fatalf("trace does not point at the caller: %v", body.Trace)
	}
}

func TestTraceLines(t *testing.T) {
	lines := TraceLines("first \"line\"\n\tsecond\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if lines[0] != "first 'line'" {
		t.Fatalf("unexpected first line: %q", lines[0])
	}
	if lines[1] != "   second" {
		t.Fatalf("unexpected second line: %q", lines[1])
	}
}
