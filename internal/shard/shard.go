// Package shard maps entity routing keys onto the fixed set of 27
// partitions: one per ASCII letter plus a catch-all "other" bucket.
package shard

// PartitionOther is the catch-all partition for keys that are empty or do
// not start with an ASCII letter.
const PartitionOther = "other"

// PartitionFor returns the partition for a routing key: the lowercased
// first character when it is an ASCII letter, otherwise PartitionOther.
// Deterministic and total; changing the key of a stored entity implies a
// cross-partition move, which is out of scope here.
func PartitionFor(key string) string {
	if key == "" {
		return PartitionOther
	}
	c := key[0]
	switch {
	case c >= 'a' && c <= 'z':
		return string(c)
	case c >= 'A' && c <= 'Z':
		return string(c + ('a' - 'A'))
	default:
		return PartitionOther
	}
}

// Partitions returns all 27 partition names in a fixed order.
func Partitions() []string {
	names := make([]string, 0, 27)
	for c := byte('a'); c <= 'z'; c++ {
		names = append(names, string(c))
	}
	return append(names, PartitionOther)
}
