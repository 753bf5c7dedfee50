package cart

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/avrusin/storefront/internal/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Product{}, &models.CartItem{}))
	return db
}

func seedProduct(t *testing.T, db *gorm.DB, name string, price int64) *models.Product {
	t.Helper()
	p := models.Product{Name: name, Category: "misc", Price: price}
	require.NoError(t, db.Create(&p).Error)
	return &p
}

func TestAddAccumulatesQuantity(t *testing.T) {
	db := newTestDB(t)
	svc := &Service{DB: db}
	ctx := context.Background()

	p := seedProduct(t, db, "mug", 500)

	for i := 0; i < 3; i++ {
		_, err := svc.Add(ctx, 1, p.ID, 1)
		require.NoError(t, err)
	}

	count, err := svc.Count(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, int64(3), count)

	var rows []models.CartItem
	require.NoError(t, db.Where("user_id = ?", 1).Find(&rows).Error)
	require.Len(t, rows, 1)
	require.Equal(t, uint(3), rows[0].Quantity)
}

func TestAddUnknownProduct(t *testing.T) {
	db := newTestDB(t)
	svc := &Service{DB: db}

	_, err := svc.Add(context.Background(), 1, 999, 1)
	require.ErrorIs(t, err, ErrProductNotFound)
}

func TestAddDefaultsZeroQuantityToOne(t *testing.T) {
	db := newTestDB(t)
	svc := &Service{DB: db}
	p := seedProduct(t, db, "mug", 500)

	item, err := svc.Add(context.Background(), 1, p.ID, 0)
	require.NoError(t, err)
	require.Equal(t, uint(1), item.Quantity)
}

func TestChangeQuantity(t *testing.T) {
	db := newTestDB(t)
	svc := &Service{DB: db}
	ctx := context.Background()
	p := seedProduct(t, db, "mug", 500)

	item, err := svc.Add(ctx, 1, p.ID, 2)
	require.NoError(t, err)

	updated, err := svc.ChangeQuantity(ctx, 1, item.ID, 5)
	require.NoError(t, err)
	require.Equal(t, uint(5), updated.Quantity)

	_, err = svc.ChangeQuantity(ctx, 1, item.ID, 0)
	require.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = svc.ChangeQuantity(ctx, 1, 999, 3)
	require.ErrorIs(t, err, ErrItemNotFound)

	// Another user's item id is invisible.
	_, err = svc.ChangeQuantity(ctx, 2, item.ID, 3)
	require.ErrorIs(t, err, ErrItemNotFound)
}

func TestRemoveIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	svc := &Service{DB: db}
	ctx := context.Background()
	p := seedProduct(t, db, "mug", 500)

	item, err := svc.Add(ctx, 1, p.ID, 2)
	require.NoError(t, err)

	require.NoError(t, svc.Remove(ctx, 1, item.ID))
	require.NoError(t, svc.Remove(ctx, 1, item.ID))

	count, err := svc.Count(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, int64(0), count)
}

func TestTotalTracksPriceChanges(t *testing.T) {
	db := newTestDB(t)
	svc := &Service{DB: db}
	ctx := context.Background()

	a := seedProduct(t, db, "mug", 100)
	b := seedProduct(t, db, "plate", 50)

	_, err := svc.Add(ctx, 1, a.ID, 2)
	require.NoError(t, err)
	_, err = svc.Add(ctx, 1, b.ID, 1)
	require.NoError(t, err)

	total, err := svc.Total(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, int64(250), total)

	require.NoError(t, db.Model(a).Update("price", 200).Error)

	total, err = svc.Total(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, int64(450), total)
}

func TestProductsPrunesOrphanRows(t *testing.T) {
	db := newTestDB(t)
	svc := &Service{DB: db}
	ctx := context.Background()

	a := seedProduct(t, db, "mug", 100)
	b := seedProduct(t, db, "plate", 50)

	_, err := svc.Add(ctx, 1, a.ID, 1)
	require.NoError(t, err)
	_, err = svc.Add(ctx, 1, b.ID, 1)
	require.NoError(t, err)

	require.NoError(t, db.Delete(&models.Product{}, b.ID).Error)

	products, err := svc.Products(ctx, 1)
	require.NoError(t, err)
	require.Len(t, products, 1)
	require.Equal(t, a.ID, products[0].Product.ID)

	var remaining int64
	require.NoError(t, db.Model(&models.CartItem{}).Where("user_id = ?", 1).Count(&remaining).Error)
	require.Equal(t, int64(1), remaining)
}

func TestCartsAreIsolatedPerUser(t *testing.T) {
	db := newTestDB(t)
	svc := &Service{DB: db}
	ctx := context.Background()
	p := seedProduct(t, db, "mug", 100)

	_, err := svc.Add(ctx, 1, p.ID, 2)
	require.NoError(t, err)
	_, err = svc.Add(ctx, 2, p.ID, 5)
	require.NoError(t, err)

	count, err := svc.Count(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, int64(2), count)

	require.NoError(t, svc.Clear(ctx, 1))

	count, err = svc.Count(ctx, 2)
	require.NoError(t, err)
	require.Equal(t, int64(5), count)
}
