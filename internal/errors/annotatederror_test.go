package errors

import (
	"log/slog"
	"slices"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAnnotatedError(t *testing.T) {
	err := New("test error", slog.String("id", "123"))
	require.Equal(t, "test error", err.Error())

	// Assert that wrapping sentinel errors works as expected.
	sentinel := NewSentinel("boom")
	require.NotErrorIs(t, err, NewSentinel("boom"))
	wrapped := Wrap(sentinel, "while testing")
	require.ErrorIs(t, wrapped, sentinel)
	require.Equal(t, "while testing: boom", wrapped.Error())

	// Ensure log values are coming through.
	group := err.LogValue().Group()
	require.Contains(t, group, slog.String("id", "123"))

	// Assert there's a valid source.
	sourceIdx := slices.IndexFunc(group, func(attr slog.Attr) bool {
		return attr.Key == "source"
	})
	require.GreaterOrEqual(t, sourceIdx, 0)
	require.Contains(t, group[sourceIdx].Value.String(), "annotatederror_test.go")
}

func TestWrapPreservesAttrsFromCause(t *testing.T) {
	cause := New("cause", slog.String("suspect_id", "butler"))
	outer := Wrap(cause, "interrogate suspect")

	var annotated AnnotatedError
	require.ErrorAs(t, outer, &annotated)

	group := annotated.LogValue().Group()
	causeIdx := slices.IndexFunc(group, func(attr slog.Attr) bool {
		return attr.Key == "cause"
	})
	require.GreaterOrEqual(t, causeIdx, 0, "wrapped error attrs should surface under cause")
}

func TestSlogErrorFallsBackForPlainErrors(t *testing.T) {
	attr := SlogError(NewSentinel("plain"))
	require.Equal(t, "error", attr.Key)
	require.Equal(t, "plain", attr.Value.String())
}
