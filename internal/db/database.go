package db

import (
	"fmt"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/parastudy/parastudy-backend/internal/logger"
	"github.com/parastudy/parastudy-backend/internal/types"
)

type DatabaseService struct {
	db     *gorm.DB
	log    *logger.Logger
	driver string
}

// NewDatabaseService opens the session store database. Postgres in every
// deployed environment; DB_DRIVER=sqlite runs against a local file for
// development and CI.
func NewDatabaseService(log *logger.Logger, driver, dsn string) (*DatabaseService, error) {
	serviceLog := log.With("service", "DatabaseService")

	var dialector gorm.Dialector
	switch strings.ToLower(driver) {
	case "", "postgres":
		driver = "postgres"
		dialector = postgres.Open(dsn)
	case "sqlite":
		if dsn == "" {
			dsn = "parastudy.db"
		}
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", driver)
	}

	serviceLog.Info("Connecting to database...", "driver", driver)
	gdb, err := gorm.Open(dialector, &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		serviceLog.Error("Failed to connect to database", "driver", driver, "error", err)
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return &DatabaseService{db: gdb, log: serviceLog, driver: driver}, nil
}

func (s *DatabaseService) AutoMigrateAll() error {
	s.log.Info("Auto migrating tables...")
	if err := s.db.AutoMigrate(
		&types.User{},
		&types.UserToken{},
		&types.StudySession{},
		&types.CourseSource{},
	); err != nil {
		s.log.Error("Auto migration failed", "error", err)
		return err
	}
	return nil
}

func (s *DatabaseService) DB() *gorm.DB {
	return s.db
}

func (s *DatabaseService) Driver() string {
	return s.driver
}

// PostgresDSN assembles the connection string the way the deployment
// environment provides it.
func PostgresDSN(host, port, user, password, name string) string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", user, password, host, port, name)
}
