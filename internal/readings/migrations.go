package readings

import (
	"database/sql"

	"github.com/farmtech/irrigation/pkg/plugin"
)

func migrations() []plugin.Migration {
	return []plugin.Migration{
		{
			Version:     1,
			Description: "create sensor_readings table",
			Up: func(tx *sql.Tx) error {
				stmts := []string{
					`CREATE TABLE IF NOT EXISTS sensor_readings (
						id                 INTEGER PRIMARY KEY AUTOINCREMENT,
						timestamp          DATETIME NOT NULL UNIQUE,
						humidity           REAL     NOT NULL,
						ph                 REAL     NOT NULL,
						phosphorus_present INTEGER  NOT NULL DEFAULT 0,
						potassium_present  INTEGER  NOT NULL DEFAULT 0,
						temperature        REAL,
						pump_on            INTEGER  NOT NULL DEFAULT 0,
						decision_reason    TEXT     NOT NULL DEFAULT '',
						is_emergency       INTEGER  NOT NULL DEFAULT 0
					)`,
					`CREATE INDEX IF NOT EXISTS idx_sensor_readings_emergency ON sensor_readings(is_emergency)`,
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
