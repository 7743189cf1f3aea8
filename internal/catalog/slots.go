package catalog

import "context"

// DefaultSnapshotKey is the slot the catalog snapshot is written to.
const DefaultSnapshotKey = "products_data"

// SlotStore is a key-value store holding whole values under named slots.
// Put fully overwrites; Delete of a missing key is not an error.
type SlotStore interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
}
