package persistence

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pharmstock/backend/internal/domain/budget"
	"github.com/pharmstock/backend/internal/domain/inventory"
	"github.com/pharmstock/backend/internal/domain/procurement"
	"github.com/pharmstock/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// ddlColumns parses the CREATE TABLE blocks of the initial migration into
// table -> set of column names.
func ddlColumns(t *testing.T) map[string]map[string]bool {
	t.Helper()
	raw, err := os.ReadFile(filepath.Join("..", "..", "..", "migrations", "000001_init_schema.up.sql"))
	require.NoError(t, err)

	tables := make(map[string]map[string]bool)
	var current map[string]bool
	for _, line := range strings.Split(string(raw), "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "CREATE TABLE "):
			name := strings.TrimSuffix(strings.TrimPrefix(line, "CREATE TABLE "), " (")
			current = make(map[string]bool)
			tables[name] = current
		case current == nil:
		case strings.HasPrefix(line, ");"):
			current = nil
		case line == "" || strings.HasPrefix(line, "--") || strings.HasPrefix(line, "CONSTRAINT"):
		default:
			current[strings.Fields(line)[0]] = true
		}
	}
	return tables
}

// insertColumns renders the INSERT gorm would run for the model and returns
// the target table and its column list.
func insertColumns(t *testing.T, db *gorm.DB, model any) (string, []string) {
	t.Helper()
	stmt := db.Session(&gorm.Session{DryRun: true}).Create(model).Statement
	sql := stmt.SQL.String()

	open := strings.Index(sql, "(")
	end := strings.Index(sql, ")")
	require.True(t, open > 0 && end > open, sql)

	var cols []string
	for _, col := range strings.Split(sql[open+1:end], ",") {
		cols = append(cols, strings.Trim(strings.TrimSpace(col), `"`))
	}
	return stmt.Table, cols
}

// Every column gorm writes on insert must exist in the migrated schema. A
// model field the DDL misses fails the whole write path at runtime with
// undefined_column, so this pins model and migration to each other. All
// nullable fields are populated so no column is omitted from the INSERT.
func TestMigration_CoversEveryModelColumn(t *testing.T) {
	db, _ := newMockDB(t)
	ddl := ddlColumns(t)

	now := time.Now()
	qty := decimal.NewFromInt(10)
	id := uuid.New()

	models := []any{
		&budget.BudgetAllocation{
			BaseAggregateRoot: shared.NewBaseAggregateRoot(),
			BudgetID:          uuid.New(),
			FiscalYear:        2026,
			TotalBudget:       qty,
			TotalSpent:        qty,
			RemainingBudget:   qty,
		},
		&budget.BudgetReservation{
			BaseAggregateRoot: shared.NewBaseAggregateRoot(),
			AllocationID:      uuid.New(),
			ReservedAmount:    qty,
			ReferenceType:     budget.ReferenceTypePurchaseOrder,
			ReferenceID:       uuid.New(),
			Status:            budget.ReservationStatusCommitted,
			Description:       "notes",
			ReservedAt:        now,
			CommittedAt:       &now,
			ReleasedAt:        &now,
		},
		&inventory.InventoryItem{
			BaseAggregateRoot: shared.NewBaseAggregateRoot(),
			DrugID:            uuid.New(),
			LocationID:        uuid.New(),
			QuantityOnHand:    qty,
			LastCost:          qty,
			AverageCost:       qty,
			MinQuantity:       qty,
		},
		&inventory.DrugLot{
			BaseEntity:        shared.NewBaseEntity(),
			InventoryItemID:   uuid.New(),
			ReceiptID:         uuid.New(),
			LotNumber:         "LOT-001",
			ExpiryDate:        &now,
			QuantityAvailable: qty,
			UnitCost:          qty,
			ReceivedDate:      now,
			IsActive:          true,
		},
		&inventory.InventoryTransaction{
			BaseEntity:      shared.NewBaseEntity(),
			InventoryItemID: uuid.New(),
			DrugID:          uuid.New(),
			LocationID:      uuid.New(),
			LotID:           &id,
			TransactionType: inventory.TransactionTypeReceipt,
			Quantity:        qty,
			UnitCost:        &qty,
			BalanceBefore:   qty,
			BalanceAfter:    qty,
			ReferenceType:   inventory.ReferenceDistributionOrder,
			ReferenceID:     uuid.New(),
			Notes:           "notes",
			CreatedBy:       &id,
		},
		&procurement.GoodsReceipt{
			BaseAggregateRoot: shared.NewBaseAggregateRoot(),
			ReceiptNumber:     "GR-001",
			SupplierID:        uuid.New(),
			LocationID:        uuid.New(),
			Status:            procurement.ReceiptStatusCompleted,
			Notes:             "notes",
			SubmittedAt:       &now,
			ApprovedAt:        &now,
			ApprovedBy:        &id,
			CompletedAt:       &now,
			CancelledAt:       &now,
			CancelReason:      "reason",
		},
		&procurement.ReceiptLine{
			ID:               uuid.New(),
			ReceiptID:        uuid.New(),
			DrugID:           uuid.New(),
			LotNumber:        "LOT-001",
			ExpiryDate:       &now,
			ReceivedQuantity: qty,
			AcceptedQuantity: qty,
			UnitCost:         qty,
			CreatedAt:        now,
		},
	}

	for _, model := range models {
		table, cols := insertColumns(t, db, model)
		columns, ok := ddl[table]
		require.True(t, ok, "table %s missing from migration", table)
		for _, col := range cols {
			assert.True(t, columns[col], "%s.%s is written on insert but missing from the migration", table, col)
		}
	}
}
