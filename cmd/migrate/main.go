package main

import (
	"context"
	"log"
	"strings"

	"ai-sceneguide-be/internal/config"
	"ai-sceneguide-be/internal/model"
	"ai-sceneguide-be/internal/repository/implementation"
	"ai-sceneguide-be/pkg/database"
)

func main() {
	cfg := config.Load()
	migrated := 0

	if cfg.Database.Connection != "" {
		migratePrimary(cfg)
		migrated++
	}
	if cfg.Database.SecondaryPath != "" {
		migrateSecondary(cfg)
		migrated++
	}

	if migrated == 0 {
		log.Fatal("Error: neither DB_CONNECTION_STRING nor SECONDARY_DB_PATH is set")
	}
	log.Println("✅ Success: Database migration completed.")
}

func migratePrimary(cfg *config.Config) {
	db, err := database.NewGormDBFromDSN(cfg.Database.Connection, cfg.App.Environment == "production")
	if err != nil {
		log.Fatal("Error: Failed to connect to primary database:", err)
	}
	sqlDB, _ := db.DB()
	defer sqlDB.Close()

	log.Println("Step 1: Running AutoMigrate for guides...")
	if err := db.AutoMigrate(&model.Guide{}); err != nil {
		log.Fatalf("Error: AutoMigrate failed: %v", err)
	}

	log.Println("Step 2: Creating functions and indexes...")
	postMigrationSQL := []string{
		`CREATE OR REPLACE FUNCTION set_current_timestamp_updated_at() RETURNS trigger LANGUAGE plpgsql AS $$
		DECLARE _new_value TIMESTAMP WITH TIME ZONE;
		BEGIN
		  _new_value := now();
		  IF NEW.updated_at IS DISTINCT FROM _new_value THEN NEW.updated_at = _new_value; END IF;
		  RETURN NEW;
		END; $$;`,
		`DROP TRIGGER IF EXISTS set_guides_updated_at ON guides;`,
		`CREATE TRIGGER set_guides_updated_at BEFORE UPDATE ON guides
		 FOR EACH ROW EXECUTE FUNCTION set_current_timestamp_updated_at();`,
		`CREATE INDEX IF NOT EXISTS idx_guides_owner_created ON guides (owner_id, created_at DESC);`,
	}
	for _, sql := range postMigrationSQL {
		if err := db.Exec(sql).Error; err != nil {
			log.Printf("Warn: Failed to execute post-migration SQL: %v", err)
		}
	}
}

func migrateSecondary(cfg *config.Config) {
	log.Printf("Step 3: Creating secondary schema at %s...", cfg.Database.SecondaryPath)
	db, err := database.OpenSQLite(context.Background(), cfg.Database.SecondaryPath, implementation.GuideSQLiteSchema)
	if err != nil {
		log.Fatalf("Error: Failed to prepare secondary database: %v", err)
	}
	defer db.Close()

	// Files created before the column existed.
	if _, err := db.Exec(`ALTER TABLE guides ADD COLUMN extractionConfidence TEXT`); err != nil && !strings.Contains(err.Error(), "duplicate column") {
		log.Printf("Warn: Failed to add extractionConfidence column: %v", err)
	}
}
