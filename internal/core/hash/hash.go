// Package hash maps configuration names onto 32-bit keys.
package hash

import "hash/fnv"

// Hash returns the 32-bit FNV-1a digest of s. The empty string maps to 0,
// the null key, so a missing name attribute resolves to "none".
func Hash(s string) uint32 {
	return Bytes([]byte(s))
}

// Bytes is Hash over a byte slice.
func Bytes(b []byte) uint32 {
	if len(b) == 0 {
		return 0
	}
	h := fnv.New32a()
	h.Write(b)
	return h.Sum32()
}
