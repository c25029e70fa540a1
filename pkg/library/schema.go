package library

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

// SchemaCapability tells which tables a given firmware's library database has.
type SchemaCapability int

const (
	// SchemaUIDs keeps book identifiers in books_uids.
	SchemaUIDs SchemaCapability = iota
	// SchemaFastHashes keeps book identifiers in books_fast_hashes.
	SchemaFastHashes
)

// fastHashesVersion is the first schema version written by firmware that uses books_fast_hashes.
const fastHashesVersion = 37

func (c SchemaCapability) String() string {
	if c == SchemaFastHashes {
		return "fast_hashes"
	}
	return "uids"
}

// HashTable names the table holding per-book identifiers.
func (c SchemaCapability) HashTable() string {
	if c == SchemaFastHashes {
		return "books_fast_hashes"
	}
	return "books_uids"
}

func capabilityForVersion(version int) SchemaCapability {
	if version >= fastHashesVersion {
		return SchemaFastHashes
	}
	return SchemaUIDs
}

// ResolveSchema reads the schema version marker. A database without a version row is treated as the oldest
// known schema.
func ResolveSchema(ctx context.Context, db bun.IDB) (SchemaCapability, int, error) {
	var version int
	err := db.NewSelect().
		TableExpr("version").
		ColumnExpr("id").
		Limit(1).
		Scan(ctx, &version)
	if errors.Is(err, sql.ErrNoRows) {
		return SchemaUIDs, 0, nil
	}
	if err != nil {
		return SchemaUIDs, 0, errors.Wrap(err, "reading schema version")
	}
	return capabilityForVersion(version), version, nil
}
