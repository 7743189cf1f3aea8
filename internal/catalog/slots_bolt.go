package catalog

import (
	"context"
	"time"

	"github.com/pkg/errors"
	bolt "go.etcd.io/bbolt"
)

const (
	boltBucket      = "slots"
	boltOpenTimeout = 2 * time.Second
)

// BoltSlots keeps slots in a local bbolt file.
type BoltSlots struct {
	db *bolt.DB
}

func OpenBoltSlots(path string) (*BoltSlots, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: boltOpenTimeout})
	if err != nil {
		return nil, errors.Wrapf(err, "open bolt file %s", path)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(boltBucket))
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "create bolt bucket")
	}

	return &BoltSlots{db: db}, nil
}

func (s *BoltSlots) Close() error {
	return s.db.Close()
}

func (s *BoltSlots) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.View(func(tx *bolt.Tx) error {
		if tx.Bucket([]byte(boltBucket)) == nil {
			return errors.New("bolt bucket missing")
		}
		return nil
	})
}

func (s *BoltSlots) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	var out []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket([]byte(boltBucket)).Get([]byte(key))
		if v != nil {
			// v is only valid inside the transaction.
			out = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return nil, false, errors.Wrapf(err, "bolt get %s", key)
	}
	return out, out != nil, nil
}

func (s *BoltSlots) Put(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(boltBucket)).Put([]byte(key), value)
	})
	return errors.Wrapf(err, "bolt put %s", key)
}

func (s *BoltSlots) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(boltBucket)).Delete([]byte(key))
	})
	return errors.Wrapf(err, "bolt delete %s", key)
}
