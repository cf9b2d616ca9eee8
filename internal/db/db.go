package db

import (
	"database/sql"
	"time"

	"github.com/Veysel440/ipgate/internal/config"
	_ "github.com/go-sql-driver/mysql"
	"github.com/golang-migrate/migrate/v4"
	mysqlDrv "github.com/golang-migrate/migrate/v4/database/mysql"
	file "github.com/golang-migrate/migrate/v4/source/file"
)

// OpenAndMigrate opens the audit database and applies pending migrations.
func OpenAndMigrate(cfg config.Config) (*sql.DB, error) {
	sqlDB, err := sql.Open("mysql", cfg.DBDsn)
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(time.Hour)
	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, err
	}

	src, err := (&file.File{}).Open("file://" + cfg.MigrationsDir)
	if err != nil {
		sqlDB.Close()
		return nil, err
	}
	drv, err := mysqlDrv.WithInstance(sqlDB, &mysqlDrv.Config{})
	if err != nil {
		sqlDB.Close()
		return nil, err
	}
	m, err := migrate.NewWithInstance("file", src, "mysql", drv)
	if err != nil {
		sqlDB.Close()
		return nil, err
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		sqlDB.Close()
		return nil, err
	}
	return sqlDB, nil
}
