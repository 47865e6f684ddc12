package engine

import (
	"crypto/md5"
	"encoding/hex"
	"strings"
)

// QueryID derives the query identity from the subscriber and the query name.
// The same pair always yields the same id, across processes.
func QueryID(subscriberID, name string) string {
	sum := md5.Sum([]byte(subscriberID + "_" + name))
	return hex.EncodeToString(sum[:])
}

// BufferStreamKey derives the content-addressed key of a buffer stream. The
// content types are hashed in the given order. Parts are joined with "-"
// unescaped, so inputs that join to the same string share a key; downstream
// services compute the key the same way.
func BufferStreamKey(contentTypes []string, publisherID, resolution, fps string) string {
	parts := make([]string, 0, len(contentTypes)+3)
	parts = append(parts, contentTypes...)
	parts = append(parts, publisherID, resolution, fps)
	sum := md5.Sum([]byte(strings.Join(parts, "-")))
	return hex.EncodeToString(sum[:])
}
