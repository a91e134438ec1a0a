package catalog

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

	"github.com/angelmondragon/kimipos-backend/internal/pricing"
	"github.com/angelmondragon/kimipos-backend/pkg/db/models"
	"github.com/angelmondragon/kimipos-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/kimipos-backend/pkg/errors"
	"github.com/angelmondragon/kimipos-backend/pkg/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:catalog_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.Category{}, &models.Tax{}, &models.Product{}, &models.Tariff{}, &models.CombinationRule{}); err != nil {
		t.Fatalf("migrate catalog: %v", err)
	}
	return db
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func strPtr(s string) *string {
	return &s
}

type fixture struct {
	drinks    models.Category
	spirits   models.Category
	whisky    models.Product
	coke      models.Product
	lemonade  models.Product
	vat       models.Tax
	doubleTar models.Tariff
}

func seed(t *testing.T, db *gorm.DB) fixture {
	t.Helper()
	f := fixture{
		drinks:  models.Category{Name: "Drinks", Printer: strPtr("Bar")},
		spirits: models.Category{Name: "Spirits"},
		vat:     models.Tax{Name: "IVA", Rate: dec("0.10"), IsDefault: true},
	}
	require.NoError(t, db.Create(&f.drinks).Error)
	require.NoError(t, db.Create(&f.spirits).Error)
	require.NoError(t, db.Create(&f.vat).Error)

	f.whisky = models.Product{CategoryID: f.spirits.ID, Name: "Whisky", BasePrice: dec("6.00"), IsActive: true, Printer: strPtr("Cellar")}
	f.coke = models.Product{CategoryID: f.drinks.ID, Name: "Coke", BasePrice: dec("2.50"), IsActive: true}
	f.lemonade = models.Product{CategoryID: f.drinks.ID, Name: "Lemonade", BasePrice: dec("2.20"), IsActive: true}
	for _, p := range []*models.Product{&f.whisky, &f.coke, &f.lemonade} {
		require.NoError(t, db.Create(p).Error)
	}

	f.doubleTar = models.Tariff{ProductID: f.whisky.ID, Name: "Double", Price: dec("9.00")}
	require.NoError(t, db.Create(&f.doubleTar).Error)

	rules := []models.CombinationRule{
		{ProductID: f.whisky.ID, TargetKind: enums.CombinationTargetKindCategory, TargetID: f.drinks.ID, AdditionalPrice: dec("-1.00"), IsActive: true},
		{ProductID: f.whisky.ID, TargetKind: enums.CombinationTargetKindProduct, TargetID: f.coke.ID, AdditionalPrice: dec("1.50"), IsActive: true},
		{ProductID: f.whisky.ID, TargetKind: enums.CombinationTargetKindProduct, TargetID: f.lemonade.ID, AdditionalPrice: dec("5.00"), IsActive: false},
	}
	for i := range rules {
		require.NoError(t, db.Create(&rules[i]).Error)
	}
	return f
}

func TestRepositoryLookups(t *testing.T) {
	db := newTestDB(t)
	f := seed(t, db)
	repo := NewRepository(db)
	ctx := context.Background()

	product, err := repo.Product(ctx, f.whisky.ID)
	require.NoError(t, err)
	assert.Equal(t, "Whisky", product.Name)
	assert.True(t, product.BasePrice.Equal(dec("6")))

	_, err = repo.Product(ctx, uuid.New())
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))

	_, err = repo.DefaultTariff(ctx, f.whisky.ID)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))

	tariff, err := repo.Tariff(ctx, f.doubleTar.ID)
	require.NoError(t, err)
	assert.Equal(t, "Double", tariff.Name)

	rules, err := repo.CombinationRules(ctx, f.whisky.ID)
	require.NoError(t, err)
	assert.Len(t, rules, 3)

	tax, err := repo.DefaultTax(ctx)
	require.NoError(t, err)
	assert.Equal(t, f.vat.ID, tax.ID)
}

func TestResolverOverRepository(t *testing.T) {
	db := newTestDB(t)
	f := seed(t, db)
	resolver, err := pricing.NewResolver(NewRepository(db), logger.Nop())
	require.NoError(t, err)
	ctx := context.Background()

	res, err := resolver.Resolve(ctx, pricing.Request{
		ProductID:  f.whisky.ID,
		Selections: []pricing.Selection{{ProductID: f.coke.ID, Quantity: 1}},
	})
	require.NoError(t, err)
	assert.Equal(t, "7.50", res.UnitPrice.StringFixed(2), "product-scoped rule wins over category rule")
	assert.Equal(t, "Whisky + Coke", res.DisplayName)
	assert.Equal(t, "IVA", res.TaxName)

	res, err = resolver.Resolve(ctx, pricing.Request{
		ProductID:  f.whisky.ID,
		TariffID:   &f.doubleTar.ID,
		Selections: []pricing.Selection{{ProductID: f.lemonade.ID, Quantity: 2}},
	})
	require.NoError(t, err)
	assert.Equal(t, "7.00", res.UnitPrice.StringFixed(2), "inactive product rule falls back to category rule")
	assert.Equal(t, "Whisky + Lemonade×2 - Double", res.DisplayName)
}

func TestDefaultTaxPrefersNewest(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepository(db)
	old := models.Tax{Name: "Old", Rate: dec("0.21"), IsDefault: true, CreatedAt: time.Now().Add(-time.Hour)}
	require.NoError(t, db.Create(&old).Error)
	current := models.Tax{Name: "Current", Rate: dec("0.10"), IsDefault: true}
	require.NoError(t, db.Create(&current).Error)

	tax, err := repo.DefaultTax(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Current", tax.Name)
}
