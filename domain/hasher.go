package domain

// Hasher is the core port for any hashing strategy. Hashes are used to
// correlate log lines for the same question without logging its text.
type Hasher interface {
	Hash(data []byte) string
}
