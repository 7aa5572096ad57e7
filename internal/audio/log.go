package audio

// WarnLog and DebugLog receive diagnostics from decoding and analysis.
// Recoverable problems (missing file, undecodable stream, unknown mode)
// are reported through WarnLog instead of being returned as errors.
// Both may be nil.
var (
	WarnLog  func(format string, args ...interface{})
	DebugLog func(format string, args ...interface{})
)

func warnf(format string, args ...interface{}) {
	if WarnLog != nil {
		WarnLog(format, args...)
	}
}

func debugf(format string, args ...interface{}) {
	if DebugLog != nil {
		DebugLog(format, args...)
	}
}
