package renderer

// WarnLog and DebugLog receive recoverable conditions and tracing from the
// renderer. Nil discards them.
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
