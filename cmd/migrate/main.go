// Command migrate applies the embedded schema migrations.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/mysql"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/joho/godotenv"

	"github.com/fahamijemal/astu-smart-complaints-backend/internal/config"
	"github.com/fahamijemal/astu-smart-complaints-backend/migrations"
)

func main() {
	down := flag.Bool("down", false, "roll back one migration instead of migrating up")
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.Load()

	src, err := iofs.New(migrations.Files, ".")
	if err != nil {
		log.Fatalf("load migrations: %v", err)
	}

	dsn := fmt.Sprintf("mysql://%s:%s@tcp(%s:%s)/%s?multiStatements=true",
		cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	m, err := migrate.NewWithSourceInstance("iofs", src, dsn)
	if err != nil {
		log.Fatalf("open migrator: %v", err)
	}
	defer m.Close()

	if *down {
		err = m.Steps(-1)
	} else {
		err = m.Up()
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		log.Fatalf("migrate: %v", err)
	}

	version, dirty, verr := m.Version()
	if verr != nil && !errors.Is(verr, migrate.ErrNilVersion) {
		log.Fatalf("read version: %v", verr)
	}
	log.Printf("schema at version %d (dirty=%v)", version, dirty)
}
