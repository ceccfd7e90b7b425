package repositories

import (
	"database/sql"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"

	apperrors "bauflow/internal/pkg/errors"
	"bauflow/internal/platform/models"
)

func setupMaterialDB(t *testing.T) *sql.DB {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open db: %v", err)
	}

	query := `
	CREATE TABLE materials (
		id TEXT PRIMARY KEY,
		company_id TEXT NOT NULL,
		project_id TEXT NOT NULL DEFAULT '',
		name TEXT NOT NULL,
		unit TEXT NOT NULL DEFAULT 'Stück',
		quantity REAL NOT NULL DEFAULT 0,
		min_stock REAL NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	`
	if _, err := db.Exec(query); err != nil {
		t.Fatalf("Failed to create table: %v", err)
	}
	return db
}

func TestMaterialRepository_AdjustQuantity(t *testing.T) {
	db := setupMaterialDB(t)
	defer db.Close()

	repo := NewMaterialRepository(db)
	now := time.Now().Unix()

	material := &models.Material{
		ID:        "mat_1",
		CompanyID: "comp_1",
		Name:      "Zement",
		Unit:      "Sack",
		Quantity:  10,
		MinStock:  5,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := repo.Create(material); err != nil {
		t.Fatalf("Failed to create material: %v", err)
	}

	if err := repo.AdjustQuantity("comp_1", "mat_1", -4); err != nil {
		t.Fatalf("AdjustQuantity failed: %v", err)
	}

	// Booking more out than is in stock must conflict, not clamp.
	if err := repo.AdjustQuantity("comp_1", "mat_1", -7); err != apperrors.ErrConflict {
		t.Errorf("Expected ErrConflict, got %v", err)
	}

	got, err := repo.GetByID("comp_1", "mat_1")
	if err != nil || got == nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Quantity != 6 {
		t.Errorf("Expected quantity 6, got %v", got.Quantity)
	}
	if got.LowStock {
		t.Error("Expected stock above minimum")
	}

	if err := repo.AdjustQuantity("comp_1", "mat_1", -3); err != nil {
		t.Fatalf("AdjustQuantity failed: %v", err)
	}
	got, _ = repo.GetByID("comp_1", "mat_1")
	if !got.LowStock {
		t.Error("Expected low stock flag below minimum")
	}
}
