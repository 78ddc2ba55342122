package conflang

// Options configures a Config instance at construction.
type Options struct {
	// VerifyOnly runs parses with full validation but without
	// mutating the store or invoking handlers.
	VerifyOnly bool

	// ThrowAllErrors aborts a parse at the first error instead of
	// accumulating errors and continuing past failing lines.
	ThrowAllErrors bool

	// AllowMissingConfig treats a missing main config file as an
	// empty parse instead of an error.
	AllowMissingConfig bool

	// PathIsStream means the path given to New is the config text
	// itself rather than a file path.
	PathIsStream bool

	// Permissive downgrades unknown-key statements to silent skips
	// and lets handler registration silently replace duplicates.
	// Default is strict: both are errors.
	Permissive bool
}

// HandlerOptions configures a registered keyword handler.
type HandlerOptions struct {
	// AllowFlags permits the keyword to appear standalone with no
	// inline content; the handler is then invoked with an empty
	// value.
	AllowFlags bool
}

// SpecialOptions configures a special category.
type SpecialOptions struct {
	// IgnoreMissing silently skips references to fields or instance
	// keys the category does not carry, instead of erroring.
	IgnoreMissing bool

	// AnonymousKeyBased assigns each instance a synthetic key instead
	// of requiring one in the source.
	AnonymousKeyBased bool

	// Key names the field whose assigned value keys the instance,
	// for sources that write device { name = kbd } rather than
	// device[kbd].
	Key string
}
