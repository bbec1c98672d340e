package cmd

import (
	"github.com/jmoiron/sqlx"
	"github.com/templui/goalstash/internal/config"
	"github.com/templui/goalstash/internal/db"
)

// openDB connects using only the DB_* settings from the environment / .env.
func openDB() (*sqlx.DB, *config.Config, error) {
	cfg := config.LoadDatabase()

	database, err := db.Init(cfg.DBDriver, cfg.DBConnection)
	if err != nil {
		return nil, nil, err
	}
	return database, cfg, nil
}
