package migrate

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestMigrationsDirIsValid(t *testing.T) {
	if err := ValidateDir("migrations"); err != nil {
		t.Fatalf("migrations dir failed validation: %v", err)
	}
}

func TestInitSchemaConstraints(t *testing.T) {
	entries, err := os.ReadDir("migrations")
	if err != nil {
		t.Fatalf("read migrations dir: %v", err)
	}

	var initSQL string
	for _, e := range entries {
		if strings.Contains(e.Name(), "init_schema") {
			raw, err := os.ReadFile(filepath.Join("migrations", e.Name()))
			if err != nil {
				t.Fatalf("read init migration: %v", err)
			}
			initSQL = string(raw)
		}
	}
	if initSQL == "" {
		t.Fatal("init_schema migration not found")
	}

	// The single-active-cart invariant and order code uniqueness live in the
	// schema, not application code. Guard against accidental removal.
	checks := []string{
		"CREATE UNIQUE INDEX idx_carts_user_active ON carts (user_id) WHERE status = 'ACTIVE'",
		"CREATE UNIQUE INDEX idx_orders_order_code ON orders (order_code)",
		"CREATE UNIQUE INDEX idx_cart_items_cart_product ON cart_items (cart_id, product_id)",
		"CHECK (quantity >= 1)",
		"UNIQUE REFERENCES users (id) ON DELETE CASCADE",
	}
	for _, want := range checks {
		if !strings.Contains(initSQL, want) {
			t.Fatalf("init migration missing %q", want)
		}
	}
}
