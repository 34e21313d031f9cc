package domain

import "go.trai.ch/zerr"

var (
	// ErrTargetReadFailed is returned when the module being processed cannot be read or parsed.
	ErrTargetReadFailed = zerr.New("failed to read target module")

	// ErrTargetWriteFailed is returned when the processed module cannot be written back.
	ErrTargetWriteFailed = zerr.New("failed to write target module")

	// ErrNoTargetModule is returned when no module path was given.
	ErrNoTargetModule = zerr.New("no target module specified")

	// ErrReferenceNotFound is returned when a copy-local reference does not exist.
	ErrReferenceNotFound = zerr.New("reference not found")

	// ErrReferenceUnreadable is returned when a copy-local reference cannot be opened or read.
	ErrReferenceUnreadable = zerr.New("reference cannot be read")

	// ErrReferenceUnparseable is returned when a reference looks like a module but is corrupt.
	ErrReferenceUnparseable = zerr.New("reference is a corrupt module")

	// ErrNotAModule is returned when data does not start with the module magic.
	ErrNotAModule = zerr.New("not a managed module")

	// ErrModuleCorrupt is returned when module data is truncated or malformed.
	ErrModuleCorrupt = zerr.New("module data is corrupt")

	// ErrModuleInvalid is returned when a module fails structural verification.
	ErrModuleInvalid = zerr.New("module failed verification")

	// ErrEmptyPayload is returned when a dependency to embed has no content.
	ErrEmptyPayload = zerr.New("dependency payload is empty")

	// ErrDuplicateResource is returned when two dependencies map to the same resource key.
	ErrDuplicateResource = zerr.New("duplicate embedded resource")

	// ErrResourceConflict is returned when the module already holds a different payload under the same name.
	ErrResourceConflict = zerr.New("resource already exists with different content")

	// ErrCompressionFailed is returned when a payload cannot be compressed.
	ErrCompressionFailed = zerr.New("failed to compress payload")

	// ErrDecompressionFailed is returned when a resource cannot be decompressed.
	ErrDecompressionFailed = zerr.New("failed to decompress payload")

	// ErrBaseLibraryUnresolved is returned when the base runtime library cannot be resolved.
	ErrBaseLibraryUnresolved = zerr.New("failed to resolve base runtime library")

	// ErrMetadataNotFound is returned by metadata resolvers for unknown names.
	ErrMetadataNotFound = zerr.New("module metadata not found")

	// ErrStagingFailed is returned when an intermediate resource file cannot be written or read.
	ErrStagingFailed = zerr.New("failed to stage resource")

	// ErrConfigReadFailed is returned when the config file cannot be read.
	ErrConfigReadFailed = zerr.New("failed to read config file")

	// ErrConfigParseFailed is returned when the config file cannot be parsed.
	ErrConfigParseFailed = zerr.New("failed to parse config file")

	// ErrInvalidPattern is returned when an include or exclude pattern is malformed.
	ErrInvalidPattern = zerr.New("invalid name pattern")

	// ErrModuleNotFound is returned by the host when a managed module cannot be loaded.
	ErrModuleNotFound = zerr.New("could not load module")

	// ErrNativeNotFound is returned by the host when a native library cannot be loaded.
	ErrNativeNotFound = zerr.New("could not load native library")

	// ErrMethodNotFound is returned when an invoked method does not exist.
	ErrMethodNotFound = zerr.New("method not found")

	// ErrExecutionFailed is returned when interpreted code fails.
	ErrExecutionFailed = zerr.New("execution failed")

	// ErrUnsupportedPlatform is returned when native libraries cannot be opened on this platform.
	ErrUnsupportedPlatform = zerr.New("native loading is not supported on this platform")
)
