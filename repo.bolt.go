package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/boltdb/bolt"
	"go.uber.org/zap"
)

type boltEventArchive struct {
	logger *zap.Logger
	client *bolt.DB
	config *BoltDBConfig
}

// GetBoltDBClient setup the database and the bucket then provides a ready to use client.
func GetBoltDBClient(config *Config) (*bolt.DB, error) {
	db, err := bolt.Open(config.BoltDB.FilePath, 0o600, &bolt.Options{Timeout: config.BoltDB.Timeout})
	if err != nil {
		return nil, fmt.Errorf("failed to open the database, %v", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		if _, errB := tx.CreateBucketIfNotExists([]byte(config.BoltDB.BucketName)); errB != nil {
			return fmt.Errorf("failed to create %s bucket: %v", config.BoltDB.BucketName, errB)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to set up bucket: %v", err)
	}
	return db, nil
}

// NewBoltEventArchive provides an instance of bolt-based audit archive.
// Keys are `<entityID>:<nanos>` so one entity history is one key range.
func NewBoltEventArchive(logger *zap.Logger, boltConfig *BoltDBConfig, client *bolt.DB) EventArchive {
	return &boltEventArchive{
		logger: logger,
		client: client,
		config: boltConfig,
	}
}

// Close shuts down the bolt-based archive.
func (ba *boltEventArchive) Close() error {
	return ba.client.Close()
}

// Record appends a mutation event to the archive.
func (ba *boltEventArchive) Record(_ context.Context, event Event) error {
	eventBytes, err := json.Marshal(event)
	if err != nil {
		return err
	}
	key := fmt.Sprintf("%s:%019d", event.EntityID, event.At.UnixNano())
	return ba.client.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(ba.config.BucketName)).Put([]byte(key), eventBytes)
	})
}

// ListByEntity retrieves the archived history of one entity in
// chronological order.
func (ba *boltEventArchive) ListByEntity(_ context.Context, entityID string) ([]Event, error) {
	// initialize a readable transaction.
	tx, err := ba.client.Begin(false)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	c := tx.Bucket([]byte(ba.config.BucketName)).Cursor()
	prefix := []byte(entityID + ":")

	events := []Event{}
	for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
		var event Event
		if err = json.Unmarshal(v, &event); err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, nil
}
