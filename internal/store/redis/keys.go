package redis

// DefaultKeyPrefix namespaces every key written by the store.
const DefaultKeyPrefix = "jsv:"

const docSegment = "doc:"

// DocKey returns the Redis key holding a document.
func DocKey(prefix, key string) string {
	return prefix + docSegment + key
}
