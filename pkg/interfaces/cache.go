package interfaces

import "time"

// Clock returns the current time. Components take a Clock so tests can
// drive TTL expiry deterministically.
type Clock func() time.Time

// Cache is the read-through contract for the in-process stores that sit in
// front of the content tree. A miss is reported through the boolean, never
// through an error.
type Cache[V any] interface {
	Get(key string) (V, bool)
	Put(key string, value V)
	Delete(key string)
	Purge()
}
