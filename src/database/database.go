package database

import (
	"database/sql"
	stdlog "log"

	"github.com/jrkphani/pipeline-pulse-sub003/src/logger"
	_ "modernc.org/sqlite"
)

var DB *sql.DB

func InitDB(databasePath string) {
	db, err := sql.Open("sqlite", databasePath)
	if err != nil {
		stdlog.Fatalf("failed to open database at %s: %v", databasePath, err)
	}

	DB = db

	if logger.L != nil {
		logger.L.Info("Checking database migrations", "databasePath", databasePath)
	} else {
		stdlog.Println("Checking database migrations for:", databasePath)
	}
	migrateDealsTable()

	createTableStatement := `
	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL UNIQUE,
		password TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS sessions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		token TEXT NOT NULL,
		refresh_token TEXT NOT NULL,
		user_agent TEXT,
		client_ip TEXT,
		is_blocked BOOLEAN DEFAULT FALSE,
		expires_at TIMESTAMP,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY(user_id) REFERENCES users(id)
	);

	CREATE TABLE IF NOT EXISTS deals (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		deal_id TEXT NOT NULL,
		source TEXT NOT NULL,
		name TEXT NOT NULL,
		account_name TEXT,
		owner TEXT,
		amount_original REAL,
		currency_code TEXT,
		explicit_rate REAL,
		probability REAL,
		stage TEXT,
		closing_date TEXT,
		country_code TEXT,
		country_name TEXT,
		country_flag TEXT,
		hash_id TEXT,
		FOREIGN KEY(user_id) REFERENCES users(id),
		UNIQUE(user_id, hash_id)
	);

	CREATE TABLE IF NOT EXISTS filter_states (
		user_id INTEGER PRIMARY KEY,
		date_kind TEXT NOT NULL DEFAULT 'all',
		start_date TEXT,
		end_date TEXT,
		prob_min REAL NOT NULL DEFAULT 0,
		prob_max REAL NOT NULL DEFAULT 100,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY(user_id) REFERENCES users(id)
	);
	`

	_, err = DB.Exec(createTableStatement)
	if err != nil {
		if logger.L != nil {
			logger.L.Error("failed to create tables", "error", err)
		}
		stdlog.Fatalf("failed to create tables: %v", err)
	}
	if logger.L != nil {
		logger.L.Info("Database tables ensured/created.")
	} else {
		stdlog.Println("Database tables ensured/created.")
	}
}

// migrateDealsTable adds columns introduced after the first deals schema
// shipped. Older databases carry deals without explicit_rate (record-level
// rates arrived with the CRM JSON export) or country_flag.
func migrateDealsTable() {
	var tableName string
	err := DB.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name='deals'").Scan(&tableName)
	if err != nil {
		if err == sql.ErrNoRows {
			if logger.L != nil {
				logger.L.Info("'deals' table does not exist, no migration needed as table will be created.")
			} else {
				stdlog.Println("'deals' table does not exist, no migration needed as table will be created.")
			}
			return
		}
		if logger.L != nil {
			logger.L.Error("Error checking for 'deals' table", "error", err)
		} else {
			stdlog.Printf("Error checking for 'deals' table: %v", err)
		}
		return
	}

	rows, err := DB.Query("PRAGMA table_info(deals)")
	if err != nil {
		if logger.L != nil {
			logger.L.Error("Error querying table schema for 'deals'", "error", err)
		} else {
			stdlog.Printf("Error querying table schema for 'deals': %v", err)
		}
		return
	}
	defer rows.Close()

	columnExists := make(map[string]bool)
	for rows.Next() {
		var cid, pk int
		var name, dataType string
		var notnullVal int
		var dfltValue interface{}

		if err := rows.Scan(&cid, &name, &dataType, &notnullVal, &dfltValue, &pk); err != nil {
			if logger.L != nil {
				logger.L.Error("Error scanning column info for 'deals'", "error", err)
			} else {
				stdlog.Printf("Error scanning column info for 'deals': %v", err)
			}
			return
		}
		columnExists[name] = true
	}
	if err = rows.Err(); err != nil {
		if logger.L != nil {
			logger.L.Error("Error iterating over column info for 'deals'", "error", err)
		} else {
			stdlog.Printf("Error iterating over column info for 'deals': %v", err)
		}
		return
	}

	if _, ok := columnExists["explicit_rate"]; !ok {
		_, err := DB.Exec("ALTER TABLE deals ADD COLUMN explicit_rate REAL")
		if err != nil {
			logger.L.Error("Error adding 'explicit_rate' column to 'deals' table", "error", err)
		} else {
			logger.L.Info("Added 'explicit_rate' column to 'deals' table")
		}
	}
	if _, ok := columnExists["country_flag"]; !ok {
		_, err := DB.Exec("ALTER TABLE deals ADD COLUMN country_flag TEXT")
		if err != nil {
			logger.L.Error("Error adding 'country_flag' column to 'deals' table", "error", err)
		} else {
			logger.L.Info("Added 'country_flag' column to 'deals' table")
		}
	}
	if _, ok := columnExists["source"]; !ok {
		_, err := DB.Exec("ALTER TABLE deals ADD COLUMN source TEXT NOT NULL DEFAULT 'upload-csv'")
		if err != nil {
			logger.L.Error("Error adding 'source' column to 'deals' table", "error", err)
		} else {
			logger.L.Info("Added 'source' column to 'deals' table")
		}
	}
}
