package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"loyaltystay/models"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func dialector(driver, dsn string) (gorm.Dialector, error) {
	switch driver {
	case "postgres", "postgresql", "":
		return postgres.Open(dsn), nil
	case "mysql":
		return mysql.Open(dsn), nil
	default:
		return nil, fmt.Errorf("unknown DB_DRIVER %q", driver)
	}
}

// ConnectDB opens the gorm connection described by cfg.
func ConnectDB(cfg Config) (*gorm.DB, error) {
	d, err := dialector(cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	level := gormlogger.Warn
	if cfg.Env == "dev" {
		level = gormlogger.Info
	}
	newLogger := gormlogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormlogger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(d, &gorm.Config{Logger: newLogger, TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	log.Printf("Connected to %s", cfg.DBDriver)
	return db, nil
}

// CoreModels lists every table the booking core owns.
func CoreModels() []interface{} {
	return []interface{}{
		&models.Company{},
		&models.CompanyService{},
		&models.Destination{},
		&models.DestinationFee{},
		&models.Accommodation{},
		&models.Rate{},
		&models.UpsellPackage{},
		&models.User{},
		&models.UserAddress{},
		&models.UserPaymentMethod{},
		&models.Reservation{},
		&models.ReservationUpsellPackage{},
		&models.UserPoint{},
		&models.UserPointAllocationRecord{},
	}
}

// Migrate auto-migrates the core tables plus any extra ones (vendor
// inventory tables).
func Migrate(db *gorm.DB, extra ...interface{}) error {
	all := append(CoreModels(), extra...)
	if err := db.AutoMigrate(all...); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}
