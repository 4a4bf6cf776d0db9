package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/brianvoe/gofakeit/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/marketplace-backend/internal/config"
	"github.com/your-org/marketplace-backend/internal/domain/product"
	"github.com/your-org/marketplace-backend/internal/domain/user"
	"github.com/your-org/marketplace-backend/internal/pkg/auth"
	"github.com/your-org/marketplace-backend/internal/pkg/logger"
	"github.com/your-org/marketplace-backend/internal/pkg/testutil"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func TestMigration_RunAndSeed(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewSQLiteDB(t)
	m := NewMigration(db, logger.Discard())

	require.NoError(t, m.RunAutoMigrations())
	require.NoError(t, m.CreateIndexes())

	cfg := &config.Config{}
	cfg.Security.BcryptCost = 4
	passwords := auth.NewPasswordManager(cfg)
	catalog := product.NewGormRepository(db)

	require.NoError(t, m.SeedInitialData(ctx, passwords, catalog, 5))

	var seller user.Seller
	require.NoError(t, db.Where("email = ?", DemoSellerEmail).First(&seller).Error)
	assert.NoError(t, passwords.VerifyPassword(DemoPassword, seller.PasswordHash))

	owned, err := catalog.FindBySeller(ctx, seller.ID)
	require.NoError(t, err)
	assert.Len(t, owned, 5)

	t.Run("seeding twice is a no-op", func(t *testing.T) {
		require.NoError(t, m.SeedInitialData(ctx, passwords, catalog, 5))
		var count int64
		require.NoError(t, db.Model(&product.Product{}).Count(&count).Error)
		assert.EqualValues(t, 5, count)
	})
}

func TestFakeProducts_RespectColumnLimits(t *testing.T) {
	for _, p := range FakeProducts(gofakeit.New(42), "seller-1", 50) {
		assert.LessOrEqual(t, len([]rune(p.Name)), 100)
		assert.LessOrEqual(t, len([]rune(p.Category)), 50)
		assert.LessOrEqual(t, len([]rune(p.Description)), 500)
		assert.True(t, p.Price.IsPositive())
		assert.GreaterOrEqual(t, p.Stock, 0)
		assert.True(t, p.OwnedBy("seller-1"))
	}
}

func TestDB_HealthAndClose(t *testing.T) {
	sqlDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{DisableAutomaticPing: true})
	require.NoError(t, err)
	db := Wrap(gdb)

	mock.ExpectPing()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, db.Health(ctx))

	mock.ExpectClose()
	assert.NoError(t, db.Close())
	assert.NoError(t, mock.ExpectationsWereMet())
}
