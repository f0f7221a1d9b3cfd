// Package database provides SQLite storage for Zafiri CMS Core.
//
// This package manages:
//   - Opening and configuring the SQLite database (WAL mode, busy timeout)
//   - Schema migrations embedded into the binary
//   - Connection lifecycle and health checks
//
// # Usage
//
//	db, err := database.Open(ctx, database.Config{
//	    Path:        cfg.Database.Path,
//	    WALMode:     cfg.Database.WALMode,
//	    BusyTimeout: cfg.Database.BusyTimeout,
//	})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	// Run migrations
//	if err := db.Migrate(ctx); err != nil {
//	    return err
//	}
//
// # Migrations
//
//   - Migration files live in the migrations/ package and are embedded via go:embed
//   - Filenames follow YYYYMMDD_HHMMSS_description.sql and apply in version order
//   - Each migration runs in its own transaction
package database
