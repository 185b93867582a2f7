package log

import (
	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

func init() {
	zerolog.ErrorStackFieldName = StacktraceKey
	zerolog.ErrorStackMarshaler = MarshalStack
}

// MarshalStack is a zerolog.ErrorStackMarshaler that emits the stacktrace
// recorded by cockroachdb/errors. It returns nil when the error carries none.
func MarshalStack(err error) interface{} {
	if s := extractStacktrace(err); s != "" {
		return s
	}
	return nil
}

// extractStacktrace returns the first safe detail found while unwrapping err.
// Marks and message wrappers sit above the withstack layer, so the chain is walked.
func extractStacktrace(err error) string {
	for c := err; c != nil; c = errors.UnwrapOnce(c) {
		if safeDetails := errors.GetSafeDetails(c).SafeDetails; len(safeDetails) > 0 {
			return safeDetails[0]
		}
	}
	return ""
}
