package database

import (
	"crm-backend/internal/config"
	"crm-backend/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DB holds the database connection.
var DB *gorm.DB

// InitDB initializes the database connection and runs migrations.
func InitDB(cfg *config.Config) error {
	var err error
	DB, err = gorm.Open(postgres.Open(cfg.PostgresURI), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return err
	}
	return Migrate(DB)
}

// Migrate creates or updates the schema for every model.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Organization{},
		&models.User{},
		&models.Pipeline{},
		&models.Stage{},
		&models.Lead{},
		&models.Task{},
		&models.Board{},
		&models.BoardColumn{},
		&models.BoardTask{},
	)
}
