package database

import (
	"fmt"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/sushihost/backend/internal/models"
)

// Capabilities records schema facts computed once at startup so request
// handlers never introspect the schema themselves.
type Capabilities struct {
	// HasEventMenuOwner is true once event_menus.created_by exists.
	// Against a pre-migration store, ownership-filtered listings return
	// nothing rather than leaking rows to the wrong viewer.
	HasEventMenuOwner bool
}

// AutoMigrate builds the full schema from the models. Used for fresh
// SQLite files and in tests; the production PostgreSQL schema is managed
// by the seed scripts plus the lazy column migrations below.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Category{},
		&models.Ingredient{},
		&models.MenuItem{},
		&models.MenuItemIngredient{},
		&models.Recipe{},
		&models.RecipeIngredient{},
		&models.RunbookItem{},
		&models.EventMenu{},
		&models.User{},
	)
}

// EnsureColumn adds a column if it is absent. Additive only: nothing is
// ever dropped or renamed, and a second call is a no-op. The
// check-then-act is unsynchronized, which is fine for single-process
// startup (the only place this runs).
func EnsureColumn(db *gorm.DB, table, column, definition string) error {
	exists, err := hasColumn(db, table, column)
	if err != nil {
		return fmt.Errorf("failed to check column %s.%s: %w", table, column, err)
	}
	if exists {
		return nil
	}
	if err := db.Exec(fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, column, definition)).Error; err != nil {
		return fmt.Errorf("failed to add column %s.%s: %w", table, column, err)
	}
	log.WithFields(log.Fields{"table": table, "column": column}).Info("Added column")
	return nil
}

// EnsureAuthColumns applies the lazy migrations that arrived after the
// original schema: auth state on users and ownership/read-only flags on
// event menus.
func EnsureAuthColumns(db *gorm.DB) error {
	boolFalse := "BOOLEAN DEFAULT FALSE"
	if db.Dialector.Name() == "sqlite" {
		boolFalse = "INTEGER DEFAULT 0"
	}

	migrations := []struct {
		table, column, definition string
	}{
		{"users", "role", "VARCHAR(20) DEFAULT 'user'"},
		{"users", "email_verified", boolFalse},
		{"users", "verification_token", "VARCHAR(255)"},
		{"users", "verification_token_expires", "TIMESTAMP"},
		{"event_menus", "created_by", "INTEGER REFERENCES users(id)"},
		{"event_menus", "read_only", boolFalse},
	}

	for _, m := range migrations {
		if err := EnsureColumn(db, m.table, m.column, m.definition); err != nil {
			return err
		}
	}
	return nil
}

// EnsureSeeded populates an empty store from the schema and data scripts.
// Failures are logged and swallowed: the service prefers serving an empty
// store over failing to start. This availability choice applies to
// startup seeding only, never to request-time errors.
func EnsureSeeded(db *gorm.DB, schemaPath, dataPath string) {
	var count int64
	if err := db.Model(&models.Category{}).Count(&count).Error; err != nil {
		// Probably no schema at all yet; run the scripts.
		count = 0
	}
	if count > 0 {
		return
	}

	log.Info("Empty store detected, running seed scripts")
	for _, path := range []string{schemaPath, dataPath} {
		if err := execScript(db, path); err != nil {
			log.WithError(err).WithField("script", path).Error("Seeding failed, continuing with empty store")
			return
		}
	}
	log.Info("Seeding complete")
}

// execScript runs a SQL file statement by statement. The split on ";" is
// naive but the seed data is controlled and contains no embedded
// semicolons in string literals.
func execScript(db *gorm.DB, path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	for _, stmt := range strings.Split(string(content), ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("statement failed: %w", err)
		}
	}
	return nil
}

// DetectCapabilities inspects the schema once at boot.
func DetectCapabilities(db *gorm.DB) Capabilities {
	hasOwner, err := hasColumn(db, "event_menus", "created_by")
	if err != nil {
		log.WithError(err).Warn("Failed to detect event_menus.created_by, assuming absent")
		hasOwner = false
	}
	return Capabilities{HasEventMenuOwner: hasOwner}
}

func hasColumn(db *gorm.DB, table, column string) (bool, error) {
	var count int64
	var err error
	if db.Dialector.Name() == "postgres" {
		err = db.Raw(
			"SELECT COUNT(*) FROM information_schema.columns WHERE table_name = ? AND column_name = ?",
			table, column,
		).Scan(&count).Error
	} else {
		err = db.Raw(
			"SELECT COUNT(*) FROM pragma_table_info(?) WHERE name = ?",
			table, column,
		).Scan(&count).Error
	}
	return count > 0, err
}
