package catalog

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Op names the kind of change a listener is told about.
type Op string

const (
	OpInit   Op = "init"
	OpAdd    Op = "add"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
	OpClear  Op = "clear"
)

// Snapshot is the full ordered product list at one version.
type Snapshot struct {
	Version  uint64    `json:"version"`
	Products []Product `json:"products"`
}

// Change is delivered to listeners after every commit. Err is set when the
// snapshot could not be written to the slot store; the in-memory change stands.
type Change struct {
	Op       Op
	ID       string
	Snapshot Snapshot
	Err      error
}

// Listener receives changes in commit order. It may read the catalog but
// must not mutate it.
type Listener func(Change)

// Options configures New. Zero fields fall back to in-memory slots, the
// default snapshot key, the builtin seed and snowflake ids on node 1.
type Options struct {
	Slots       SlotStore
	SnapshotKey string
	Seed        []Product

	// ResetOnStart makes Initialize discard any persisted snapshot and reseed.
	// When false a persisted snapshot is restored if one decodes.
	ResetOnStart bool

	NewID func() string
	Log   *zap.Logger
}

// Catalog is the authoritative product list for the process lifetime. Every
// mutation rewrites the whole snapshot to a single slot.
type Catalog struct {
	mu        sync.RWMutex
	products  []Product
	isLoading bool
	version   uint64

	slots        SlotStore
	key          string
	seed         []Product
	resetOnStart bool
	newID        func() string
	log          *zap.Logger

	// notifyMu serializes commit and delivery so listeners see commits in order.
	notifyMu  sync.Mutex
	lmu       sync.Mutex
	listeners map[uint64]Listener
	nextSub   uint64
}

// New returns a catalog in loading state. Call Initialize before serving.
func New(opts Options) *Catalog {
	c := &Catalog{
		isLoading:    true,
		slots:        opts.Slots,
		key:          opts.SnapshotKey,
		resetOnStart: opts.ResetOnStart,
		newID:        opts.NewID,
		log:          opts.Log,
		listeners:    map[uint64]Listener{},
	}

	if c.slots == nil {
		c.slots = NewMemSlots()
	}
	if c.key == "" {
		c.key = DefaultSnapshotKey
	}
	if c.log == nil {
		c.log = zap.NewNop()
	}
	if c.newID == nil {
		gen, err := NewSnowflakeIDs(1)
		if err != nil {
			panic(err)
		}
		c.newID = gen
	}

	if opts.Seed != nil {
		c.seed = cloneProducts(opts.Seed)
	} else {
		c.seed = BuiltinSeed()
	}
	c.products = cloneProducts(c.seed)

	return c
}

// Initialize loads the starting product list. With ResetOnStart the persisted
// snapshot is deleted and the seed set is used.
func (c *Catalog) Initialize(ctx context.Context) {
	c.lock()
	c.isLoading = true

	products := cloneProducts(c.seed)
	var err error

	if c.resetOnStart {
		if err = c.slots.Delete(ctx, c.key); err != nil {
			c.log.Warn("discard persisted snapshot failed", zap.Error(err), zap.String("key", c.key))
		}
	} else if restored, ok := c.restore(ctx); ok {
		products = restored
	}

	c.products = products
	c.isLoading = false

	c.log.Info("catalog initialized",
		zap.Int("products", len(c.products)),
		zap.Bool("reset_on_start", c.resetOnStart),
	)
	c.commit(OpInit, "", err)
}

func (c *Catalog) restore(ctx context.Context) ([]Product, bool) {
	data, ok, err := c.slots.Get(ctx, c.key)
	if err != nil {
		c.log.Warn("read persisted snapshot failed", zap.Error(err), zap.String("key", c.key))
		return nil, false
	}
	if !ok {
		return nil, false
	}

	products, err := decodeSnapshot(data)
	if err != nil {
		c.log.Warn("persisted snapshot unreadable, reseeding", zap.Error(err), zap.String("key", c.key))
		return nil, false
	}
	return products, true
}

// AddProduct appends a new product with a fresh id and returns it.
func (c *Catalog) AddProduct(ctx context.Context, in ProductInput) Product {
	c.lock()

	p := in.withID(c.newID())
	c.products = append(c.products, p)
	out := p.clone()

	c.commit(OpAdd, p.ID, c.save(ctx))
	return out
}

// UpdateProduct replaces the product with id in place, keeping id and position.
// Unknown ids leave the list unchanged; the snapshot is still written.
func (c *Catalog) UpdateProduct(ctx context.Context, id string, in ProductInput) {
	c.lock()

	for i := range c.products {
		if c.products[i].ID == id {
			c.products[i] = in.withID(id)
		}
	}

	c.commit(OpUpdate, id, c.save(ctx))
}

// DeleteProduct removes the product with id. Unknown ids are a no-op.
func (c *Catalog) DeleteProduct(ctx context.Context, id string) {
	c.lock()

	kept := make([]Product, 0, len(c.products))
	for _, p := range c.products {
		if p.ID != id {
			kept = append(kept, p)
		}
	}
	c.products = kept

	c.commit(OpDelete, id, c.save(ctx))
}

// ClearProductsData deletes the persisted snapshot and restores the seed set.
func (c *Catalog) ClearProductsData(ctx context.Context) {
	c.lock()

	err := c.slots.Delete(ctx, c.key)
	if err != nil {
		c.log.Error("delete persisted snapshot failed", zap.Error(err), zap.String("key", c.key))
	}
	c.products = cloneProducts(c.seed)

	c.commit(OpClear, "", err)
}

// GetProduct returns the first product with id. ok is false when none matches.
func (c *Catalog) GetProduct(id string) (Product, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, p := range c.products {
		if p.ID == id {
			return p.clone(), true
		}
	}
	return Product{}, false
}

// ProductsByCategory returns products whose category equals category exactly,
// in store order.
func (c *Catalog) ProductsByCategory(category string) []Product {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Product, 0)
	for _, p := range c.products {
		if p.Category == category {
			out = append(out, p.clone())
		}
	}
	return out
}

// Products returns a copy of the full list in store order.
func (c *Catalog) Products() []Product {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return cloneProducts(c.products)
}

func (c *Catalog) Categories() []string { return Categories() }

// IsLoading is true until Initialize completes.
func (c *Catalog) IsLoading() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.isLoading
}

// Current returns the latest committed snapshot.
func (c *Catalog) Current() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshotLocked()
}

// Ping reports whether the slot store is reachable.
func (c *Catalog) Ping(ctx context.Context) error {
	return c.slots.Ping(ctx)
}

// Subscribe registers l for every later change. The returned func removes it.
func (c *Catalog) Subscribe(l Listener) (unsubscribe func()) {
	c.lmu.Lock()
	id := c.nextSub
	c.nextSub++
	c.listeners[id] = l
	c.lmu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.lmu.Lock()
			delete(c.listeners, id)
			c.lmu.Unlock()
		})
	}
}

// save writes the whole snapshot. Caller holds mu.
func (c *Catalog) save(ctx context.Context) error {
	data, err := encodeSnapshot(c.products)
	if err == nil {
		err = c.slots.Put(ctx, c.key, data)
	}
	if err != nil {
		c.log.Error("persist snapshot failed",
			zap.Error(err),
			zap.String("key", c.key),
			zap.Int("products", len(c.products)),
		)
	}
	return err
}

// lock starts a mutation. notifyMu is always taken before mu so that no
// writer waits for delivery while holding the write lock.
func (c *Catalog) lock() {
	c.notifyMu.Lock()
	c.mu.Lock()
}

// commit bumps the version, releases mu, notifies listeners and then releases
// notifyMu. Caller got here through lock.
func (c *Catalog) commit(op Op, id string, err error) {
	c.version++
	ch := Change{Op: op, ID: id, Snapshot: c.snapshotLocked(), Err: err}
	c.mu.Unlock()
	defer c.notifyMu.Unlock()

	for _, l := range c.subscribers() {
		l(ch)
	}
}

func (c *Catalog) subscribers() []Listener {
	c.lmu.Lock()
	defer c.lmu.Unlock()

	out := make([]Listener, 0, len(c.listeners))
	for id := uint64(0); id < c.nextSub; id++ {
		if l, ok := c.listeners[id]; ok {
			out = append(out, l)
		}
	}
	return out
}

func (c *Catalog) snapshotLocked() Snapshot {
	return Snapshot{Version: c.version, Products: cloneProducts(c.products)}
}
