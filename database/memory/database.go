// Package memory provides an in-memory session registry implementation.
package memory

import (
	"fmt"
	"time"

	"github.com/hashicorp/go-memdb"

	"groupcall/database"
)

// DB is a memory-backed session registry.
type DB struct {
	db *memdb.MemDB
}

// New creates a new memory-backed session registry.
func New() *DB {
	db, err := memdb.NewMemDB(schema)
	if err != nil {
		panic(err)
	}
	return &DB{
		db: db,
	}
}

// UpsertSessionInfo stores the session, overwriting any prior association
// for the same connection ID.
func (d *DB) UpsertSessionInfo(info *database.SessionInfo) error {
	txn := d.db.Txn(true)
	defer txn.Abort()

	stored := info.DeepCopy()
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now()
	}
	if err := txn.Insert(tblSessions, stored); err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	txn.Commit()
	return nil
}

// FindSessionInfoByID finds a session by its connection ID.
func (d *DB) FindSessionInfoByID(connectionID string) (*database.SessionInfo, error) {
	txn := d.db.Txn(false)
	defer txn.Abort()

	raw, err := txn.First(tblSessions, idxSessionID, connectionID)
	if err != nil {
		return nil, fmt.Errorf("find session by connectionID: %w", err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%s: %w", connectionID, database.ErrSessionNotFound)
	}
	return raw.(*database.SessionInfo).DeepCopy(), nil
}

// DeleteSessionInfoByID atomically removes and returns the session for
// the connection ID.
func (d *DB) DeleteSessionInfoByID(connectionID string) (*database.SessionInfo, error) {
	txn := d.db.Txn(true)
	defer txn.Abort()

	raw, err := txn.First(tblSessions, idxSessionID, connectionID)
	if err != nil {
		return nil, fmt.Errorf("find session by connectionID: %w", err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%s: %w", connectionID, database.ErrSessionNotFound)
	}
	if err := txn.Delete(tblSessions, raw); err != nil {
		return nil, fmt.Errorf("delete session: %w", err)
	}
	txn.Commit()
	return raw.(*database.SessionInfo).DeepCopy(), nil
}
