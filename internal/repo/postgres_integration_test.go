package repo

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/quickcommerce/internal/models"
	"github.com/Skotchmaster/quickcommerce/pkg/db"
)

func newPostgresRepo(t *testing.T) *GormRepo {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL is required for postgres tests")
	}
	ctx := context.Background()
	gdb, err := db.Open(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close(gdb) })

	require.NoError(t, gdb.AutoMigrate(models.All()...))
	require.NoError(t, gdb.Exec(db.TruncateStatement(
		"loyalty_transactions", "loyalty_balances", "store_products", "stores", "organizations", "users",
	)).Error)
	return &GormRepo{DB: gdb}
}

func TestPostgres_ConcurrentStockNeverOversells(t *testing.T) {
	r := newPostgresRepo(t)
	ctx := context.Background()

	org := models.Organization{Name: "Fresh Mart", Slug: "fresh-mart"}
	require.NoError(t, r.DB.Create(&org).Error)
	store := models.Store{OrganizationID: org.ID, Name: "Central", IsActive: true}
	require.NoError(t, r.DB.Create(&store).Error)
	p := models.StoreProduct{StoreID: store.ID, SKU: "MILK-1L", Name: "Milk 1L", Price: 6000, MRP: 6000, Stock: 5, IsAvailable: true}
	require.NoError(t, r.DB.Create(&p).Error)

	var won atomic.Int32
	var wg sync.WaitGroup
	for range 12 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := r.DecrementStock(ctx, p.ID, 1)
			assert.NoError(t, err)
			if ok {
				won.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 5, won.Load())
	var left models.StoreProduct
	require.NoError(t, r.DB.First(&left, p.ID).Error)
	assert.Zero(t, left.Stock)
}

func TestPostgres_EnsureBalanceIsIdempotent(t *testing.T) {
	r := newPostgresRepo(t)
	ctx := context.Background()

	org := models.Organization{Name: "Fresh Mart", Slug: "fresh-mart"}
	require.NoError(t, r.DB.Create(&org).Error)
	u := models.User{Name: "Asha", Email: "asha@example.com", PasswordHash: "x", Role: models.RoleCustomer, ReferralCode: "REF0001", IsActive: true}
	require.NoError(t, r.DB.Create(&u).Error)

	for range 2 {
		err := r.Tx(ctx, func(tx *GormRepo) error {
			_, err := tx.EnsureBalance(ctx, u.ID, org.ID)
			return err
		})
		require.NoError(t, err)
	}
	var n int64
	require.NoError(t, r.DB.Model(&models.LoyaltyBalance{}).Where("user_id = ?", u.ID).Count(&n).Error)
	assert.EqualValues(t, 1, n)
}
