package redis

const (
	// KeyPrefixSnapshot is the prefix for published snapshots
	KeyPrefixSnapshot = "connectors:snapshot:"
	// KeyPrefixState is the prefix for run state markers
	KeyPrefixState = "connectors:state:"
	// KeyAllSnapshots is the set of every stored snapshot key
	KeyAllSnapshots = "connectors:snapshots:all"
	// KeyAllStates is the set of every stored state key
	KeyAllStates = "connectors:states:all"
)

// SnapshotKey returns the Redis key of a customer/job/task snapshot
func SnapshotKey(slot string) string {
	return KeyPrefixSnapshot + slot
}

// StateKey returns the Redis key of a customer/job/task state marker
func StateKey(slot string) string {
	return KeyPrefixState + slot
}
