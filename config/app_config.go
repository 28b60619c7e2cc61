package config

// This is the global app config for the node.
type AppConfig struct {
	// How many leading 0s to form a valid hash.
	DIFFICULTY int
	// Timeout for any single request to a peer, in seconds.
	PEER_TIMEOUT_SECONDS int
	// Interrupt an in-flight mining search when a foreign block extends the
	// head, making the current candidate stale.
	REMINE_ON_TAIL_CHANGE bool
	// Where to write the rotating log file. Empty picks the default path.
	LOG_FILE string
}
