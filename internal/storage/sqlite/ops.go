package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/caketrack/caketrack/internal/schema"
	"github.com/caketrack/caketrack/internal/storage"
)

// execer is satisfied by both *sql.DB and *sql.Tx so single puts and the
// bulk path share one upsert implementation.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

const orderColumns = `id, type, weight_kg, flavor, filling, price,
	client_id, client_name, client_phone, delivery_date, status,
	created_at, note, decorated, decor_price`

// GetAll implements storage.Store. Result ordering is unspecified.
func (db *DB) GetAll(ctx context.Context, kind schema.Kind) ([]schema.Record, error) {
	switch kind {
	case schema.KindFlavors:
		rows, err := db.conn.QueryContext(ctx, `SELECT name, price_per_kg FROM flavors`)
		if err != nil {
			return nil, engineErr("get all", kind, err)
		}
		defer rows.Close()
		return scanFlavors(rows)

	case schema.KindClients:
		rows, err := db.conn.QueryContext(ctx, `SELECT id, name, phone FROM clients`)
		if err != nil {
			return nil, engineErr("get all", kind, err)
		}
		defer rows.Close()
		return scanClients(rows)

	case schema.KindOrders:
		rows, err := db.conn.QueryContext(ctx, `SELECT `+orderColumns+` FROM orders`)
		if err != nil {
			return nil, engineErr("get all", kind, err)
		}
		defer rows.Close()
		orders, err := scanOrders(rows)
		if err != nil {
			return nil, err
		}
		out := make([]schema.Record, 0, len(orders))
		for _, o := range orders {
			out = append(out, o)
		}
		return out, nil

	default:
		return nil, fmt.Errorf("get all: %w: %q", storage.ErrUnknownKind, kind)
	}
}

// Put implements storage.Store: insert if the key is new, overwrite if it
// exists. A single upsert statement, atomic at the engine level.
func (db *DB) Put(ctx context.Context, kind schema.Kind, rec schema.Record) error {
	if err := schema.ValidateRecord(kind, rec); err != nil {
		return fmt.Errorf("put: %w", err)
	}
	if err := upsert(ctx, db.conn, kind, rec); err != nil {
		return engineErr("put", kind, err)
	}
	return nil
}

// BulkPut implements storage.Store: all records land in one transaction, so
// either every record is applied or none is.
func (db *DB) BulkPut(ctx context.Context, kind schema.Kind, recs []schema.Record) error {
	for _, rec := range recs {
		if err := schema.ValidateRecord(kind, rec); err != nil {
			return fmt.Errorf("bulk put: %w", err)
		}
	}
	if len(recs) == 0 {
		return nil
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return engineErr("bulk put", kind, err)
	}
	defer tx.Rollback()

	for _, rec := range recs {
		if err := upsert(ctx, tx, kind, rec); err != nil {
			return engineErr("bulk put", kind, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return engineErr("bulk put", kind, err)
	}
	return nil
}

// Delete implements storage.Store. Deleting an absent key is a no-op
// success.
func (db *DB) Delete(ctx context.Context, kind schema.Kind, key string) error {
	def, ok := schema.DefinitionFor(kind)
	if !ok {
		return fmt.Errorf("delete: %w: %q", storage.ErrUnknownKind, kind)
	}

	stmt := fmt.Sprintf("DELETE FROM %s WHERE %s = ?", def.Kind, def.PrimaryKey)
	if _, err := db.conn.ExecContext(ctx, stmt, key); err != nil {
		return engineErr("delete", kind, err)
	}
	return nil
}

// OrdersOn implements storage.Store using the delivery_date index.
// An empty date matches nothing: unscheduled orders are stored with a NULL
// delivery_date and are excluded from every date lookup.
func (db *DB) OrdersOn(ctx context.Context, date string) ([]*schema.Order, error) {
	if date == "" {
		return nil, nil
	}

	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE delivery_date = ?`, date)
	if err != nil {
		return nil, engineErr("orders on", schema.KindOrders, err)
	}
	defer rows.Close()
	return scanOrders(rows)
}

// OrdersWithStatus implements storage.Store using the status index.
func (db *DB) OrdersWithStatus(ctx context.Context, status string) ([]*schema.Order, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE status = ?`, status)
	if err != nil {
		return nil, engineErr("orders with status", schema.KindOrders, err)
	}
	defer rows.Close()
	return scanOrders(rows)
}

// upsert writes one record through ex, which is either the shared connection
// or an open transaction.
func upsert(ctx context.Context, ex execer, kind schema.Kind, rec schema.Record) error {
	switch kind {
	case schema.KindFlavors:
		f := rec.(*schema.Flavor)
		_, err := ex.ExecContext(ctx, `
		INSERT INTO flavors (name, price_per_kg) VALUES (?, ?)
		ON CONFLICT(name) DO UPDATE SET
			price_per_kg = excluded.price_per_kg
		`, f.Name, f.PricePerKg)
		return err

	case schema.KindClients:
		c := rec.(*schema.Client)
		_, err := ex.ExecContext(ctx, `
		INSERT INTO clients (id, name, phone) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			phone = excluded.phone
		`, c.ID, c.Name, c.Phone)
		return err

	case schema.KindOrders:
		o := rec.(*schema.Order)
		_, err := ex.ExecContext(ctx, `
		INSERT INTO orders (`+orderColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			type = excluded.type,
			weight_kg = excluded.weight_kg,
			flavor = excluded.flavor,
			filling = excluded.filling,
			price = excluded.price,
			client_id = excluded.client_id,
			client_name = excluded.client_name,
			client_phone = excluded.client_phone,
			delivery_date = excluded.delivery_date,
			status = excluded.status,
			created_at = excluded.created_at,
			note = excluded.note,
			decorated = excluded.decorated,
			decor_price = excluded.decor_price
		`,
			o.ID, o.Type, o.WeightKg, o.Flavor, o.Filling, o.Price,
			o.ClientID, o.ClientName, o.ClientPhone,
			nullIfEmpty(o.DeliveryDate), o.Status,
			o.CreatedAt.UTC().Format(time.RFC3339), o.Note,
			boolToInt(o.Decorated), o.DecorPrice)
		return err

	default:
		return fmt.Errorf("%w: %q", storage.ErrUnknownKind, kind)
	}
}

// scanFlavors scans every row into catalog entries.
func scanFlavors(rows *sql.Rows) ([]schema.Record, error) {
	var out []schema.Record
	for rows.Next() {
		var f schema.Flavor
		if err := rows.Scan(&f.Name, &f.PricePerKg); err != nil {
			return nil, fmt.Errorf("failed to scan flavor: %w", err)
		}
		out = append(out, &f)
	}
	if err := rows.Err(); err != nil {
		return nil, engineErr("scan", schema.KindFlavors, err)
	}
	return out, nil
}

// scanClients scans every row into client records.
func scanClients(rows *sql.Rows) ([]schema.Record, error) {
	var out []schema.Record
	for rows.Next() {
		var c schema.Client
		if err := rows.Scan(&c.ID, &c.Name, &c.Phone); err != nil {
			return nil, fmt.Errorf("failed to scan client: %w", err)
		}
		out = append(out, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, engineErr("scan", schema.KindClients, err)
	}
	return out, nil
}

// scanOrders scans every row into order records.
func scanOrders(rows *sql.Rows) ([]*schema.Order, error) {
	var out []*schema.Order
	for rows.Next() {
		var o schema.Order
		var deliveryDate sql.NullString
		var createdAt string
		var decorated int

		err := rows.Scan(
			&o.ID, &o.Type, &o.WeightKg, &o.Flavor, &o.Filling, &o.Price,
			&o.ClientID, &o.ClientName, &o.ClientPhone,
			&deliveryDate, &o.Status, &createdAt, &o.Note,
			&decorated, &o.DecorPrice,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}

		if deliveryDate.Valid {
			o.DeliveryDate = deliveryDate.String
		}
		if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
			o.CreatedAt = t
		}
		o.Decorated = decorated != 0

		out = append(out, &o)
	}
	if err := rows.Err(); err != nil {
		return nil, engineErr("scan", schema.KindOrders, err)
	}
	return out, nil
}

// nullIfEmpty stores an absent optional field as NULL so it never matches
// an indexed lookup.
func nullIfEmpty(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
