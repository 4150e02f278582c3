package insight

import (
	"database/sql"

	"github.com/farmtech/irrigation/pkg/plugin"
)

// migrations returns the insight module's database migrations.
func migrations() []plugin.Migration {
	return []plugin.Migration{
		{
			Version:     1,
			Description: "create model snapshot and baseline tables",
			Up: func(tx *sql.Tx) error {
				stmts := []string{
					`CREATE TABLE IF NOT EXISTS insight_models (
						id          TEXT PRIMARY KEY,
						kind        TEXT NOT NULL,
						result      TEXT NOT NULL,
						forest      TEXT NOT NULL,
						trained_at  TEXT NOT NULL
					)`,
					`CREATE INDEX IF NOT EXISTS idx_insight_models_kind_trained ON insight_models(kind, trained_at)`,

					`CREATE TABLE IF NOT EXISTS insight_baselines (
						metric      TEXT PRIMARY KEY,
						state       TEXT NOT NULL,
						samples     INTEGER NOT NULL DEFAULT 0,
						updated_at  TEXT NOT NULL
					)`,
				}
				for _, stmt := range stmts {
					if _, err := tx.Exec(stmt); err != nil {
						return err
					}
				}
				return nil
			},
		},
	}
}
