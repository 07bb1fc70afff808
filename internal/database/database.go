package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"catalog/internal/config"
	"catalog/internal/logger"
	"catalog/internal/models"
	"catalog/internal/repositories"

	"github.com/jmoiron/sqlx"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	_ "modernc.org/sqlite"
)

// Store is an opened product store plus the means to release it.
type Store struct {
	Products repositories.ProductRepository
	Driver   string
	close    func() error
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	if s == nil || s.close == nil {
		return nil
	}
	return s.close()
}

// Open connects to the configured driver and prepares the products table.
func Open(ctx context.Context, cfg config.DatabaseConfig, log *logger.Logger) (*Store, error) {
	if log == nil {
		log = logger.NewNop()
	}
	dsn := cfg.ConnString()

	switch cfg.Driver {
	case config.DriverPostgres:
		return openGORM(ctx, cfg.Driver, postgres.Open(dsn), log)
	case config.DriverSQLite:
		return openGORM(ctx, cfg.Driver, sqlite.Open(dsn), log)
	case config.DriverSQLX:
		return openSQLX(ctx, dsn, log)
	case config.DriverMemory:
		log.Info("using in-memory product store", nil)
		return &Store{Products: repositories.NewMemoryProductRepository(), Driver: cfg.Driver}, nil
	default:
		return nil, fmt.Errorf("database: unsupported driver %q", cfg.Driver)
	}
}

func openGORM(ctx context.Context, driver string, dialector gorm.Dialector, log *logger.Logger) (*Store, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("database: open %s: %w", driver, err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}
	sqlDB.SetMaxOpenConns(5)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxIdleTime(10 * time.Second)

	repo := repositories.NewGORMProductRepository(db)
	if err := repo.Migrate(ctx); err != nil {
		sqlDB.Close()
		return nil, err
	}
	log.Info("database connected", logger.Fields{"driver": driver})
	return &Store{Products: repo, Driver: driver, close: sqlDB.Close}, nil
}

func openSQLX(ctx context.Context, dsn string, log *logger.Logger) (*Store, error) {
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("database: open sqlx: %w", err)
	}
	if strings.Contains(dsn, ":memory:") {
		// Each connection would otherwise get its own empty database.
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("database: ping sqlx: %w", err)
	}

	repo := repositories.NewSQLXProductRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	log.Info("database connected", logger.Fields{"driver": config.DriverSQLX})
	return &Store{Products: repo, Driver: config.DriverSQLX, close: db.Close}, nil
}

var demoProducts = []models.Product{
	{Name: "Wireless Mouse", Price: 24.99, Description: "Ergonomic 2.4 GHz mouse"},
	{Name: "Mechanical Keyboard", Price: 89.90, Description: "Tenkeyless, brown switches"},
	{Name: "USB-C Hub", Price: 39.50, Description: "7-in-1 adapter with HDMI"},
	{Name: "27-inch Monitor", Price: 249.00, Description: "QHD IPS display"},
}

// Seed inserts demo products when the store is empty and reports how many were added.
func Seed(ctx context.Context, repo repositories.ProductRepository) (int, error) {
	existing, err := repo.GetAll(ctx)
	if err != nil {
		return 0, err
	}
	if len(existing) > 0 {
		return 0, nil
	}
	for i := range demoProducts {
		p := demoProducts[i]
		if err := repo.Create(ctx, &p); err != nil {
			return i, fmt.Errorf("database: seed %q: %w", p.Name, err)
		}
	}
	return len(demoProducts), nil
}
