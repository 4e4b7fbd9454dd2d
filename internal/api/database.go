package api

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"

	"github.com/zombor/billed/internal/bill"
)

const (
	billsBucketName = "bills"
	orderBucketName = "bill_order"
	filesBucketName = "files"
)

// StoredFile is the metadata of an uploaded justification file
type StoredFile struct {
	Key         string    `json:"key"`
	Name        string    `json:"name"`
	ContentType string    `json:"content_type"`
	Email       string    `json:"email"`
	BillID      string    `json:"bill_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// DB defines the interface for database operations
type DB interface {
	// SaveBill inserts or replaces a bill
	SaveBill(b *bill.Bill) error

	// GetBill retrieves a bill by ID
	GetBill(id string) (*bill.Bill, error)

	// ListBills returns all bills in creation order
	ListBills() ([]*bill.Bill, error)

	// DeleteBill removes a bill
	DeleteBill(id string) error

	// SaveFile saves file metadata
	SaveFile(f *StoredFile) error

	// GetFile retrieves file metadata by storage key
	GetFile(key string) (*StoredFile, error)

	// Close closes the database connection
	Close() error
}

// BoltDB implements the DB interface using BoltDB
type BoltDB struct {
	db *bbolt.DB
}

// NewBoltDB creates a new BoltDB instance
func NewBoltDB(path string) (*BoltDB, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening boltdb: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range []string{billsBucketName, orderBucketName, filesBucketName} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}

	return &BoltDB{db: db}, nil
}

// SaveBill saves a bill. A bill seen for the first time is appended to the creation order.
func (b *BoltDB) SaveBill(record *bill.Bill) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bills := tx.Bucket([]byte(billsBucketName))
		data, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("marshaling bill: %w", err)
		}

		if bills.Get([]byte(record.ID)) == nil {
			order := tx.Bucket([]byte(orderBucketName))
			seq, err := order.NextSequence()
			if err != nil {
				return fmt.Errorf("allocating sequence: %w", err)
			}
			if err := order.Put(seqKey(seq), []byte(record.ID)); err != nil {
				return err
			}
		}
		return bills.Put([]byte(record.ID), data)
	})
}

// GetBill retrieves a bill by ID
func (b *BoltDB) GetBill(id string) (*bill.Bill, error) {
	var record *bill.Bill
	err := b.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket([]byte(billsBucketName)).Get([]byte(id))
		if data == nil {
			return fmt.Errorf("bill %s: %w", id, ErrNotFound)
		}
		return json.Unmarshal(data, &record)
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

// ListBills returns all bills in the order they were first saved
func (b *BoltDB) ListBills() ([]*bill.Bill, error) {
	records := make([]*bill.Bill, 0)
	err := b.db.View(func(tx *bbolt.Tx) error {
		bills := tx.Bucket([]byte(billsBucketName))
		return tx.Bucket([]byte(orderBucketName)).ForEach(func(_, id []byte) error {
			data := bills.Get(id)
			if data == nil {
				return nil
			}
			var record bill.Bill
			if err := json.Unmarshal(data, &record); err != nil {
				return fmt.Errorf("unmarshaling bill: %w", err)
			}
			records = append(records, &record)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// DeleteBill removes a bill from the database
func (b *BoltDB) DeleteBill(id string) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		order := tx.Bucket([]byte(orderBucketName))
		c := order.Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			if string(v) == id {
				if err := c.Delete(); err != nil {
					return err
				}
				break
			}
		}
		return tx.Bucket([]byte(billsBucketName)).Delete([]byte(id))
	})
}

// SaveFile saves file metadata to the database
func (b *BoltDB) SaveFile(f *StoredFile) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		data, err := json.Marshal(f)
		if err != nil {
			return fmt.Errorf("marshaling file: %w", err)
		}
		return tx.Bucket([]byte(filesBucketName)).Put([]byte(f.Key), data)
	})
}

// GetFile retrieves file metadata by key
func (b *BoltDB) GetFile(key string) (*StoredFile, error) {
	var f *StoredFile
	err := b.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket([]byte(filesBucketName)).Get([]byte(key))
		if data == nil {
			return fmt.Errorf("file %s: %w", key, ErrNotFound)
		}
		return json.Unmarshal(data, &f)
	})
	if err != nil {
		return nil, err
	}
	return f, nil
}

// Close closes the database connection
func (b *BoltDB) Close() error {
	return b.db.Close()
}

func seqKey(seq uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, seq)
	return key
}
