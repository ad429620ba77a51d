// Package storage provides an append-only prediction log for the prediction service.
// It uses BoltDB as the underlying storage engine and records every successful
// prediction together with its input features, so served traffic can later be used for
// drift analysis or retraining.
//
// The log is written by the transport after a response is produced; the prediction path
// itself never reads it.
package storage

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"
)

const (
	predictionsBucket = "predictions" // Bucket name for prediction records
	dbFileName        = "predictions.db"
)

// PredictionRecord is one served prediction.
type PredictionRecord struct {
	Timestamp    time.Time          `json:"timestamp"`
	Features     map[string]float64 `json:"features"`
	Prediction   string             `json:"prediction"`
	Confidence   float64            `json:"confidence"`
	ModelVersion string             `json:"model_version"`
}

// Store provides persistent storage for prediction records using BoltDB.
type Store struct {
	db *bbolt.DB // BoltDB database instance
}

// New creates a new storage instance under dataPath.
func New(dataPath string) (*Store, error) {
	dbPath := filepath.Join(dataPath, dbFileName)

	db, err := bbolt.Open(dbPath, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(predictionsBucket)); err != nil {
			return fmt.Errorf("create predictions bucket: %w", err)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the database connection gracefully.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Keys sort by model version, then timestamp, then insertion sequence. The timestamp is
// offset into uint64 space so pre-1970 instants order before later ones.
func recordKey(version string, ts time.Time, seq uint64) []byte {
	key := make([]byte, 0, len(version)+1+16)
	key = append(key, version...)
	key = append(key, 0)
	key = binary.BigEndian.AppendUint64(key, uint64(ts.UnixNano())^(1<<63))
	key = binary.BigEndian.AppendUint64(key, seq)
	return key
}

func versionPrefix(version string) []byte {
	return []byte(version + "\x00")
}

// StorePrediction appends a prediction record.
func (s *Store) StorePrediction(record PredictionRecord) error {
	if record.Timestamp.IsZero() {
		record.Timestamp = time.Now()
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(predictionsBucket))

		data, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("marshal prediction: %w", err)
		}

		seq, err := b.NextSequence()
		if err != nil {
			return fmt.Errorf("next sequence: %w", err)
		}
		return b.Put(recordKey(record.ModelVersion, record.Timestamp, seq), data)
	})
}

// GetPredictions returns records for a model version within [start, end], oldest first.
func (s *Store) GetPredictions(version string, start, end time.Time) ([]PredictionRecord, error) {
	var records []PredictionRecord

	err := s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket([]byte(predictionsBucket)).Cursor()

		prefix := versionPrefix(version)
		startKey := recordKey(version, start, 0)
		endKey := recordKey(version, end.Add(time.Nanosecond), 0)

		for k, v := c.Seek(startKey); k != nil && bytes.HasPrefix(k, prefix) && bytes.Compare(k, endKey) < 0; k, v = c.Next() {
			var r PredictionRecord
			if err := json.Unmarshal(v, &r); err != nil {
				continue // Skip malformed records
			}
			records = append(records, r)
		}
		return nil
	})

	return records, err
}

// Count returns the total number of stored predictions.
func (s *Store) Count() (int, error) {
	var n int
	err := s.db.View(func(tx *bbolt.Tx) error {
		n = tx.Bucket([]byte(predictionsBucket)).Stats().KeyN
		return nil
	})
	return n, err
}
