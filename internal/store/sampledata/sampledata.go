// Package sampledata creates the demo supplier and purchase order tables.
package sampledata

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS suppliers (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		country TEXT NOT NULL,
		is_strategic INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS purchase_orders (
		id INTEGER PRIMARY KEY,
		supplier_id INTEGER NOT NULL REFERENCES suppliers(id),
		material TEXT NOT NULL,
		qty INTEGER NOT NULL,
		due_date TEXT NOT NULL,
		delivery_date TEXT
	)`,
}

type Supplier struct {
	ID          int
	Name        string
	Country     string
	IsStrategic bool
}

type PurchaseOrder struct {
	ID           int
	SupplierID   int
	Material     string
	Qty          int
	DueDate      string
	DeliveryDate string
}

var Suppliers = []Supplier{
	{1, "Alpha Electronics", "CN", true},
	{2, "Beta Plastics", "VN", false},
	{3, "Gamma Metals", "DE", true},
	{4, "Delta Packaging", "VN", false},
}

var PurchaseOrders = []PurchaseOrder{
	{1, 1, "IC Chip", 1000, "2025-01-10", "2025-01-09"},
	{2, 1, "IC Chip", 500, "2025-01-20", "2025-01-20"},
	{3, 1, "Sensor", 300, "2025-02-01", "2025-02-03"},
	{4, 2, "Plastic Case", 800, "2025-01-15", "2025-01-18"},
	{5, 2, "Plastic Case", 600, "2025-01-25", "2025-01-30"},
	{6, 3, "Metal Frame", 400, "2025-01-12", "2025-01-11"},
	{7, 3, "Metal Frame", 400, "2025-01-30", "2025-01-30"},
	{8, 4, "Box", 1000, "2025-01-18", "2025-01-18"},
	{9, 4, "Box", 1200, "2025-01-28", "2025-02-02"},
}

// Seed creates the tables and replaces their contents with the demo rows.
// It targets sqlite and runs in a single transaction.
func Seed(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin seed transaction: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range schema {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	for _, stmt := range []string{"DELETE FROM purchase_orders", "DELETE FROM suppliers"} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("clear tables: %w", err)
		}
	}

	for _, s := range Suppliers {
		strategic := 0
		if s.IsStrategic {
			strategic = 1
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO suppliers (id, name, country, is_strategic) VALUES (?, ?, ?, ?)`,
			s.ID, s.Name, s.Country, strategic); err != nil {
			return fmt.Errorf("insert supplier %d: %w", s.ID, err)
		}
	}
	for _, po := range PurchaseOrders {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO purchase_orders (id, supplier_id, material, qty, due_date, delivery_date) VALUES (?, ?, ?, ?, ?, ?)`,
			po.ID, po.SupplierID, po.Material, po.Qty, po.DueDate, po.DeliveryDate); err != nil {
			return fmt.Errorf("insert purchase order %d: %w", po.ID, err)
		}
	}

	return tx.Commit()
}

// OpenMemory returns a seeded in-memory sqlite database. The pool is pinned
// to one connection so every query sees the same database.
func OpenMemory(ctx context.Context) (*sql.DB, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	if err := Seed(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}
