package infra

import (
	"fmt"

	"github.com/DiegoMao201/Cotizador-sub000/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase establishes a GORM connection backed by pgx, runs AutoMigrate
// for all tables and creates the proposal-number sequence.
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetMaxIdleConns(2)

	if err := db.AutoMigrate(
		&model.Cotizacion{},
		&model.CotizacionItem{},
		&model.Cliente{},
		&model.Producto{},
	); err != nil {
		return nil, fmt.Errorf("AutoMigrate: %w", err)
	}

	// Sequence feeding PROP-<año>-<n> ids. AutoMigrate cannot express it.
	if err := db.Exec("CREATE SEQUENCE IF NOT EXISTS propuestas_numero_seq START 1").Error; err != nil {
		return nil, fmt.Errorf("propuestas_numero_seq: %w", err)
	}

	return db, nil
}
