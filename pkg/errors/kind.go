// Package errors defines the closed error taxonomy used across Ignite:
// every failure that crosses a package boundary carries one of a fixed
// set of Kinds, so callers can branch on Kind instead of parsing messages
// or matching against package-private sentinel values.
package errors

// Kind categorizes a failure into one of a fixed set of causes. The set is
// closed deliberately: adding a Kind is a breaking change to every switch
// statement that matches on it, so new failure modes should be mapped onto
// an existing Kind rather than grow the set.
type Kind string

const (
	// Io covers filesystem and network failures: segment open/read/write,
	// directory creation, socket accept/read/write.
	Io Kind = "io"

	// Serde covers encoding and decoding failures for the wire protocol
	// and the on-disk command log (malformed JSON, a truncated command
	// record, an oversized frame length). A frame cut short on the wire is
	// reported as Io.
	Serde Kind = "serde"

	// Sled covers failures surfaced by the alternate (bolt-backed) engine.
	// The name is kept from the original storage engine this adapter
	// stands in for.
	Sled Kind = "sled"

	// Utf8 covers a stored value that fails to decode as valid UTF-8.
	Utf8 Kind = "utf8"

	// BrokenCommand covers a command record that cannot be interpreted:
	// an unrecognized type discriminant or a structurally invalid field.
	BrokenCommand Kind = "broken_command"

	// BrokenIndex covers an in-memory index that no longer agrees with
	// what is on disk: a pointer to a file id or offset that does not
	// exist, or a corrupted compaction handoff.
	BrokenIndex Kind = "broken_index"

	// KeyNotFound covers a Remove against a key the store has no record of
	// (or has recorded as removed). A Get of such a key is not an error: it
	// reports the key as absent.
	KeyNotFound Kind = "key_not_found"

	// Other covers everything that does not cleanly fit a more specific
	// Kind. Reach for a specific Kind first; fall back to Other only when
	// none applies.
	Other Kind = "other"
)
