package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nearbuy-labs/nearbuy-backend/pkg/migrate"
)

func TestMigrationsDirValidates(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("validate migrations dir: %v", err)
	}
}

func TestOrdersMigrationContainsConstraints(t *testing.T) {
	content := readMigration(t, "*_create_orders_and_payments.sql")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS orders",
		"order_number TEXT NOT NULL UNIQUE",
		"version INTEGER NOT NULL DEFAULT 1",
		"delivery_address_snapshot JSONB NOT NULL",
		"idx_orders_claimable",
		"CREATE TABLE IF NOT EXISTS order_histories",
		"DROP TABLE IF EXISTS orders",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestProductsMigrationContainsTierConstraints(t *testing.T) {
	content := readMigration(t, "*_create_products.sql")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS pricing_tiers",
		"CHECK (min_quantity >= 1)",
		"CHECK (max_quantity IS NULL OR max_quantity >= min_quantity)",
		"idx_pricing_tiers_product_class",
		"CREATE TABLE IF NOT EXISTS product_inventories",
		"CHECK (stock_quantity >= 0)",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func readMigration(t *testing.T, pattern string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join("migrations", pattern))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no migration file matching %q", pattern)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	return string(data)
}
