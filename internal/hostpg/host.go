// SPDX-License-Identifier: AGPL-3.0-or-later

/*
rulecraft is a Go library implementing the rule-resolution core of a
declarative build engine: a selector algebra, node state machine, and
rule registry evaluated lazily over a dependency graph.
*/

// Package hostpg is a pkg/bridge.Bridge backed by Postgres: host values are
// rows, issubclass is a type-lattice table lookup, and project/project_multi
// are column/join reads. It demonstrates that the host bridge is just an
// interface — the core does not care whether a host's values live in Go
// structs or in a database.
package hostpg

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"

	"rulecraft/pkg/node"
	"rulecraft/pkg/rkey"
)

// Schema is the DDL a Host needs. Callers run it once against a fresh
// database before using Host; it is not applied automatically so that a
// host embedding rulecraft controls its own migrations.
const Schema = `
CREATE TABLE IF NOT EXISTS rulecraft_values (
	digest  BYTEA PRIMARY KEY,
	type_id BYTEA NOT NULL,
	payload TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS rulecraft_subclass (
	type_id    BYTEA NOT NULL,
	constraint BYTEA NOT NULL,
	PRIMARY KEY (type_id, constraint)
);

CREATE TABLE IF NOT EXISTS rulecraft_fields (
	value_digest  BYTEA NOT NULL,
	field_digest  BYTEA NOT NULL,
	result_digest BYTEA NOT NULL,
	result_type   BYTEA NOT NULL,
	PRIMARY KEY (value_digest, field_digest)
);

CREATE TABLE IF NOT EXISTS rulecraft_field_items (
	value_digest BYTEA NOT NULL,
	field_digest BYTEA NOT NULL,
	ordinal      INT NOT NULL,
	item_digest  BYTEA NOT NULL,
	item_type    BYTEA NOT NULL,
	PRIMARY KEY (value_digest, field_digest, ordinal)
);
`

// Host is a Postgres-backed bridge.Bridge. The zero value is not usable;
// construct with Open.
type Host struct {
	db *sql.DB
}

// Open connects to the Postgres instance named by dsn via the pgx stdlib
// driver, matching the driver-registration idiom the teacher's raw SQL
// migration engine used for its own connection.
func Open(ctx context.Context, dsn string) (*Host, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("hostpg: connecting: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("hostpg: pinging: %w", err)
	}
	return &Host{db: db}, nil
}

// Close releases the underlying connection pool.
func (h *Host) Close() error {
	return h.db.Close()
}

// EnsureSchema applies Schema. Safe to call repeatedly.
func (h *Host) EnsureSchema(ctx context.Context) error {
	_, err := h.db.ExecContext(ctx, Schema)
	if err != nil {
		return fmt.Errorf("hostpg: ensuring schema: %w", err)
	}
	return nil
}

// Put inserts value under typeID, keyed by the given digest. Callers choose
// the digest (typically rkey.HashBytes over a canonical encoding of value)
// so that identical logical values always reuse the same row, matching
// bridge.Bridge's StoreList idempotence requirement.
func (h *Host) Put(ctx context.Context, digest rkey.Digest, typeID rkey.TypeID, payload string) (rkey.Key, error) {
	_, err := h.db.ExecContext(ctx,
		`INSERT INTO rulecraft_values (digest, type_id, payload) VALUES ($1, $2, $3)
		 ON CONFLICT (digest) DO NOTHING`,
		digest[:], typeID[:], payload,
	)
	if err != nil {
		return rkey.Key{}, fmt.Errorf("hostpg: storing value: %w", err)
	}
	return rkey.NewKey(digest, typeID), nil
}

// RegisterSubclass declares that typeID satisfies constraint.
func (h *Host) RegisterSubclass(ctx context.Context, typeID, constraint rkey.TypeConstraint) error {
	_, err := h.db.ExecContext(ctx,
		`INSERT INTO rulecraft_subclass (type_id, constraint) VALUES ($1, $2)
		 ON CONFLICT DO NOTHING`,
		typeID[:], constraint[:],
	)
	if err != nil {
		return fmt.Errorf("hostpg: registering subclass: %w", err)
	}
	return nil
}

// RegisterField records the precomputed projection of value.field as
// result, so Project can answer with a plain lookup. A real host would
// typically compute this at write time rather than via the core.
func (h *Host) RegisterField(ctx context.Context, value, field, result rkey.Key) error {
	_, err := h.db.ExecContext(ctx,
		`INSERT INTO rulecraft_fields (value_digest, field_digest, result_digest, result_type)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (value_digest, field_digest) DO UPDATE SET result_digest = EXCLUDED.result_digest, result_type = EXCLUDED.result_type`,
		value.Digest()[:], field.Digest()[:], result.Digest()[:], result.TypeID()[:],
	)
	if err != nil {
		return fmt.Errorf("hostpg: registering field: %w", err)
	}
	return nil
}

// RegisterFieldItems records the ordered elements of value.field for
// ProjectMulti.
func (h *Host) RegisterFieldItems(ctx context.Context, value, field rkey.Key, items []rkey.Key) error {
	tx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("hostpg: beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM rulecraft_field_items WHERE value_digest = $1 AND field_digest = $2`,
		value.Digest()[:], field.Digest()[:],
	); err != nil {
		return fmt.Errorf("hostpg: clearing field items: %w", err)
	}

	for i, item := range items {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO rulecraft_field_items (value_digest, field_digest, ordinal, item_digest, item_type)
			 VALUES ($1, $2, $3, $4, $5)`,
			value.Digest()[:], field.Digest()[:], i, item.Digest()[:], item.TypeID()[:],
		); err != nil {
			return fmt.Errorf("hostpg: inserting field item %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("hostpg: committing field items: %w", err)
	}
	return nil
}

// IsSubclass implements bridge.Bridge.
func (h *Host) IsSubclass(typeID rkey.TypeID, constraint rkey.TypeConstraint) bool {
	if typeID == constraint {
		return true
	}
	var exists bool
	err := h.db.QueryRowContext(context.Background(),
		`SELECT EXISTS(SELECT 1 FROM rulecraft_subclass WHERE type_id = $1 AND constraint = $2)`,
		typeID[:], constraint[:],
	).Scan(&exists)
	if err != nil {
		panic(fmt.Sprintf("hostpg: IsSubclass query failed: %v", err))
	}
	return exists
}

// Project implements bridge.Bridge.
func (h *Host) Project(value rkey.Key, field rkey.Field) rkey.Key {
	var resultDigest, resultType []byte
	err := h.db.QueryRowContext(context.Background(),
		`SELECT result_digest, result_type FROM rulecraft_fields WHERE value_digest = $1 AND field_digest = $2`,
		value.Digest()[:], field.Digest()[:],
	).Scan(&resultDigest, &resultType)
	if err != nil {
		panic(fmt.Sprintf("hostpg: Project(%s, %s) failed: %v", value, field, err))
	}
	return rkey.NewKey(toDigest(resultDigest), toDigest(resultType))
}

// ProjectMulti implements bridge.Bridge.
func (h *Host) ProjectMulti(value rkey.Key, field rkey.Field) []rkey.Key {
	rows, err := h.db.QueryContext(context.Background(),
		`SELECT item_digest, item_type FROM rulecraft_field_items
		 WHERE value_digest = $1 AND field_digest = $2 ORDER BY ordinal`,
		value.Digest()[:], field.Digest()[:],
	)
	if err != nil {
		panic(fmt.Sprintf("hostpg: ProjectMulti(%s, %s) failed: %v", value, field, err))
	}
	defer func() { _ = rows.Close() }()

	var out []rkey.Key
	for rows.Next() {
		var itemDigest, itemType []byte
		if err := rows.Scan(&itemDigest, &itemType); err != nil {
			panic(fmt.Sprintf("hostpg: scanning field item: %v", err))
		}
		out = append(out, rkey.NewKey(toDigest(itemDigest), toDigest(itemType)))
	}
	return out
}

// listType is the fixed TypeID StoreList results are tagged with.
var listType = rkey.HashBytes([]byte("rulecraft/internal/hostpg.ListType"))

// StoreList implements bridge.Bridge: items are interned as a new value row
// tagged listType, with their ordered membership recorded against
// node.ListField so the same rulecraft_field_items table answers the
// ProjectMulti round-trip SelectDependencies' transitive fan-out relies on.
func (h *Host) StoreList(items []rkey.Key) rkey.Key {
	ctx := context.Background()
	digest := rkey.HashBytes([]byte(fmt.Sprintf("%v", items)))

	if _, err := h.Put(ctx, digest, listType, fmt.Sprintf("list(%d)", len(items))); err != nil {
		panic(err.Error())
	}
	listKey := rkey.NewKey(digest, listType)
	if err := h.RegisterFieldItems(ctx, listKey, node.ListField, items); err != nil {
		panic(err.Error())
	}
	return listKey
}

// ToStr implements bridge.Bridge with a best-effort payload lookup.
func (h *Host) ToStr(digest rkey.Digest) string {
	var payload string
	err := h.db.QueryRowContext(context.Background(),
		`SELECT payload FROM rulecraft_values WHERE digest = $1`, digest[:],
	).Scan(&payload)
	if err != nil {
		return digest.String()
	}
	return payload
}

func toDigest(b []byte) rkey.Digest {
	var d rkey.Digest
	copy(d[:], b)
	return d
}
