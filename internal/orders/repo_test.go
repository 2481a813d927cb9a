package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/jarilabs/jariecom-backend/pkg/db/models"
	"github.com/jarilabs/jariecom-backend/pkg/enums"
	"github.com/jarilabs/jariecom-backend/pkg/pagination"
	"github.com/jarilabs/jariecom-backend/pkg/types"
)

func setupOrdersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	ordersTable := `
CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  store_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  order_number TEXT NOT NULL UNIQUE,
  customer TEXT,
  items TEXT,
  payment TEXT,
  amount NUMERIC NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(ordersTable).Error)
	return db
}

func seedOrder(t *testing.T, db *gorm.DB, storeID uuid.UUID, status enums.OrderStatus, created time.Time) *models.Order {
	t.Helper()

	order := &models.Order{
		ID:          uuid.New(),
		StoreID:     storeID,
		ProductID:   uuid.New(),
		OrderNumber: "JE-" + uuid.NewString()[:13],
		Customer:    types.JSONMap{"name": "Wanjiku", "phone": "254712345678"},
		Items:       types.JSONMap{"quantity": 2},
		Amount:      decimal.NewFromInt(1500),
		Status:      status,
		CreatedAt:   created,
		UpdatedAt:   created,
	}
	require.NoError(t, db.Create(order).Error)
	return order
}

func TestRepositoryFindByIDScopedToStore(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)

	storeID := uuid.New()
	order := seedOrder(t, db, storeID, enums.OrderStatusPending, time.Now().UTC())

	found, err := repo.FindByID(context.Background(), storeID, order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.OrderNumber, found.OrderNumber)
	assert.Equal(t, "Wanjiku", found.Customer.String("name"))

	_, err = repo.FindByID(context.Background(), uuid.New(), order.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepositoryListByStorePagination(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)

	storeID := uuid.New()
	now := time.Now().UTC().Truncate(time.Second)
	oldest := seedOrder(t, db, storeID, enums.OrderStatusPending, now.Add(-2*time.Hour))
	middle := seedOrder(t, db, storeID, enums.OrderStatusPaid, now.Add(-time.Hour))
	newest := seedOrder(t, db, storeID, enums.OrderStatusPending, now)
	seedOrder(t, db, uuid.New(), enums.OrderStatusPending, now)

	first, err := repo.ListByStore(context.Background(), storeID, nil, nil, 2)
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Equal(t, newest.ID, first[0].ID)
	assert.Equal(t, middle.ID, first[1].ID)

	cursor := &pagination.Cursor{CreatedAt: first[1].CreatedAt, ID: first[1].ID}
	second, err := repo.ListByStore(context.Background(), storeID, nil, cursor, 2)
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, oldest.ID, second[0].ID)
}

func TestRepositoryListByStoreStatusFilter(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)

	storeID := uuid.New()
	now := time.Now().UTC()
	seedOrder(t, db, storeID, enums.OrderStatusPending, now.Add(-time.Minute))
	paid := seedOrder(t, db, storeID, enums.OrderStatusPaid, now)

	status := enums.OrderStatusPaid
	list, err := repo.ListByStore(context.Background(), storeID, &status, nil, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, paid.ID, list[0].ID)
}

func TestRepositoryStats(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)

	storeID := uuid.New()
	now := time.Now().UTC()
	seedOrder(t, db, storeID, enums.OrderStatusPaid, now)
	seedOrder(t, db, storeID, enums.OrderStatusPaid, now.Add(-time.Minute))
	seedOrder(t, db, storeID, enums.OrderStatusCancelled, now.Add(-2*time.Minute))

	rows, err := repo.Stats(context.Background(), storeID)
	require.NoError(t, err)

	byStatus := make(map[enums.OrderStatus]StatsRow, len(rows))
	for _, row := range rows {
		byStatus[row.Status] = row
	}
	require.Contains(t, byStatus, enums.OrderStatusPaid)
	assert.Equal(t, int64(2), byStatus[enums.OrderStatusPaid].Count)
	assert.True(t, byStatus[enums.OrderStatusPaid].Revenue.Equal(decimal.NewFromInt(3000)))
	assert.Equal(t, int64(1), byStatus[enums.OrderStatusCancelled].Count)
}
