package domain

// LogLevel represents the severity of a log message, mirroring the standard slog levels.
type LogLevel int

const (
	// LogLevelDebug represents debug-level verbosity.
	LogLevelDebug LogLevel = -4
	// LogLevelInfo represents informational verbosity.
	LogLevelInfo LogLevel = 0
	// LogLevelWarn represents warning verbosity.
	LogLevelWarn LogLevel = 4
	// LogLevelError represents error verbosity.
	LogLevelError LogLevel = 8
)

// String returns the string representation of the LogLevel.
func (l LogLevel) String() string {
	switch l {
	case LogLevelDebug:
		return "DEBUG"
	case LogLevelWarn:
		return "WARN"
	case LogLevelError:
		return "ERROR"
	default:
		return "INFO"
	}
}

// FailureKind classifies why a binary produced no usable scan result.
type FailureKind uint8

const (
	// FailureNotModule means the file is not a module of a supported format. The binary is
	// recorded with zero items.
	FailureNotModule FailureKind = iota + 1
	// FailureUnreadable means the binary could not be read on a cache miss. The binary is skipped.
	FailureUnreadable
	// FailureUnexpected covers every other failure, including extractor panics. The binary is skipped.
	FailureUnexpected
)

// String returns a short name for the kind.
func (k FailureKind) String() string {
	switch k {
	case FailureNotModule:
		return "not_module"
	case FailureUnreadable:
		return "unreadable"
	case FailureUnexpected:
		return "unexpected"
	default:
		return "unknown"
	}
}

// Severity returns the level at which a failure of this kind is logged.
func (k FailureKind) Severity() LogLevel {
	switch k {
	case FailureNotModule:
		return LogLevelDebug
	case FailureUnreadable:
		return LogLevelWarn
	default:
		return LogLevelError
	}
}

// Skipped reports whether binaries failing with this kind are left out of the scan output.
func (k FailureKind) Skipped() bool {
	return k != FailureNotModule
}

// ScanFailure records one binary that failed to produce records.
type ScanFailure struct {
	Path string
	Kind FailureKind
	Err  error
}

func (f ScanFailure) Error() string {
	if f.Err == nil {
		return f.Path + ": " + f.Kind.String()
	}
	return f.Path + ": " + f.Err.Error()
}

// Unwrap returns the underlying error.
func (f ScanFailure) Unwrap() error {
	return f.Err
}

// ScanStats summarises one scan.
type ScanStats struct {
	// Binaries is the number of candidate files enumerated.
	Binaries int `json:"binaries" yaml:"binaries"`
	// CacheHits is the number of binaries served from the cache without being opened.
	CacheHits int `json:"cache_hits" yaml:"cache_hits"`
	// Opened is the number of binaries opened for inspection.
	Opened int `json:"opened" yaml:"opened"`
	// Skipped is the number of binaries left out of the output because of a failure.
	Skipped int `json:"skipped" yaml:"skipped"`
}
