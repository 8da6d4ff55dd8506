package food

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"healthvoice/internal/nlu"
)

// Store is a local read-mostly food reference table, used when the
// dashboard is unreachable or the assistant runs offline. Matching is
// exact name, then alias, then name prefix.
type Store struct {
	db *sql.DB
}

func OpenStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open food db: %w", err)
	}
	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("init food db schema: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) initSchema() error {
	schema := `
    CREATE TABLE IF NOT EXISTS foods (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        name TEXT NOT NULL,
        calories_per_unit REAL NOT NULL,
        canonical_unit TEXT NOT NULL DEFAULT 'g'
    );

    CREATE TABLE IF NOT EXISTS food_aliases (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        food_id INTEGER NOT NULL,
        alias TEXT NOT NULL,
        FOREIGN KEY (food_id) REFERENCES foods(id) ON DELETE CASCADE,
        UNIQUE(food_id, alias)
    );

    CREATE INDEX IF NOT EXISTS idx_food_name ON foods(name);
    CREATE INDEX IF NOT EXISTS idx_alias_text ON food_aliases(alias);
    `
	_, err := s.db.Exec(schema)
	return err
}

// AddFood inserts a reference entry with optional aliases.
func (s *Store) AddFood(name string, caloriesPerUnit float64, canonicalUnit string, aliases ...string) (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	res, err := tx.Exec(
		`INSERT INTO foods (name, calories_per_unit, canonical_unit) VALUES (?, ?, ?)`,
		strings.ToLower(name), caloriesPerUnit, canonicalUnit)
	if err != nil {
		return 0, fmt.Errorf("insert food: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	for _, alias := range aliases {
		if _, err := tx.Exec(
			`INSERT INTO food_aliases (food_id, alias) VALUES (?, ?)`,
			id, strings.ToLower(alias)); err != nil {
			return 0, fmt.Errorf("insert alias: %w", err)
		}
	}
	return id, tx.Commit()
}

type foodRow struct {
	id              int64
	name            string
	caloriesPerUnit float64
	canonicalUnit   string
}

func (s *Store) lookup(ctx context.Context, name string) (*foodRow, bool, error) {
	name = strings.ToLower(strings.TrimSpace(name))

	queries := []struct {
		sql   string
		arg   string
		fuzzy bool
	}{
		{`SELECT id, name, calories_per_unit, canonical_unit FROM foods WHERE name = ?`, name, false},
		{`SELECT f.id, f.name, f.calories_per_unit, f.canonical_unit
		    FROM foods f JOIN food_aliases a ON a.food_id = f.id WHERE a.alias = ?`, name, false},
		{`SELECT id, name, calories_per_unit, canonical_unit FROM foods
		    WHERE name LIKE ? ORDER BY length(name) LIMIT 1`, name + "%", true},
	}
	for _, q := range queries {
		var row foodRow
		err := s.db.QueryRowContext(ctx, q.sql, q.arg).
			Scan(&row.id, &row.name, &row.caloriesPerUnit, &row.canonicalUnit)
		if err == nil {
			return &row, q.fuzzy, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, false, err
		}
	}
	return nil, false, nil
}

// Resolve implements Resolver against the local table.
func (s *Store) Resolve(ctx context.Context, name string, qty float64, unit nlu.Unit) (*Estimate, error) {
	row, fuzzy, err := s.lookup(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("lookup %q: %w", name, err)
	}
	if row == nil {
		return nil, fmt.Errorf("%q: %w", name, ErrNotFound)
	}

	amount, err := canonicalAmount(qty, unit, row.canonicalUnit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", row.name, err)
	}
	return &Estimate{
		FoodID:   row.id,
		Name:     row.name,
		Calories: amount * row.caloriesPerUnit,
		Fuzzy:    fuzzy,
	}, nil
}

// canonicalAmount converts a spoken quantity into the food's declared
// serving unit. Mass foods store calories per gram, volume foods per
// milliliter, piece foods per serving.
func canonicalAmount(qty float64, unit nlu.Unit, canonicalUnit string) (float64, error) {
	const mlPerCup = 236.6

	switch unit {
	case nlu.UnitGrams:
		if canonicalUnit != "g" {
			return 0, fmt.Errorf("food is measured in %s, not grams", canonicalUnit)
		}
		return qty, nil
	case nlu.UnitCups:
		if canonicalUnit != "ml" {
			return 0, fmt.Errorf("food is measured in %s, not cups", canonicalUnit)
		}
		return qty * mlPerCup, nil
	case nlu.UnitServings, nlu.UnitNone:
		if canonicalUnit != "piece" && canonicalUnit != "serving" {
			return 0, fmt.Errorf("food is measured in %s, not servings", canonicalUnit)
		}
		return qty, nil
	}
	return 0, fmt.Errorf("unsupported quantity unit %s", unit)
}
