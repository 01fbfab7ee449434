// Package storage provides the persistence adapter for the clinic record
// store: named JSON documents in a durable key-value backend. It is the only
// package that touches a storage medium; callers own (de)serialization of the
// record collections kept under each key.
package storage

import "context"

// Well-known document keys. Each holds one JSON array, which is also the
// de facto backup/restore format.
const (
	KeyPatients  = "patients"
	KeyIncidents = "incidents"
	KeyUsers     = "users"
)

// KV is a named-document store. Load on a key that has never been written
// reports found=false with a nil error; Save fully replaces the prior
// document under that key. Backends must report failures (quota, I/O,
// connectivity) to the caller rather than swallowing them.
type KV interface {
	Load(ctx context.Context, key string) (data []byte, found bool, err error)
	Save(ctx context.Context, key string, data []byte) error
}
