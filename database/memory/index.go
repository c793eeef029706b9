// Package memory provides an in-memory session registry implementation.
package memory

import "github.com/hashicorp/go-memdb"

const (
	tblSessions = "sessions"
)

const (
	idxSessionID = "id"
)

// schema is the schema of the memory database.
var schema = &memdb.DBSchema{
	Tables: map[string]*memdb.TableSchema{
		tblSessions: {
			Name: tblSessions,
			Indexes: map[string]*memdb.IndexSchema{
				idxSessionID: {
					Name:    idxSessionID,
					Unique:  true,
					Indexer: &memdb.StringFieldIndex{Field: "ConnectionID"},
				},
			},
		},
	},
}
