package database

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"respawn/internal/middleware"

	"gorm.io/gorm"
)

// MigrationLog records an applied migration.
type MigrationLog struct {
	Version   int       `gorm:"primaryKey;autoIncrement:false"`
	Name      string    `gorm:"size:255;not null"`
	Checksum  string    `gorm:"size:64"`
	AppliedAt time.Time `gorm:"autoCreateTime;index"`
}

// TableName returns the database table name for MigrationLog.
func (MigrationLog) TableName() string {
	return "migration_logs"
}

// Migrator applies and reverts a fixed set of migrations against one database.
type Migrator struct {
	db         *gorm.DB
	migrations []Migration
}

// NewMigrator binds migrations (ordered by version) to db.
func NewMigrator(db *gorm.DB, migrations []Migration) *Migrator {
	return &Migrator{db: db, migrations: migrations}
}

func (m *Migrator) ensureLogTable(ctx context.Context) error {
	if err := m.db.WithContext(ctx).AutoMigrate(&MigrationLog{}); err != nil {
		return fmt.Errorf("ensure migration log table: %w", err)
	}
	return nil
}

// Applied returns the recorded migrations ordered by version. A missing log
// table means nothing has been applied yet.
func (m *Migrator) Applied(ctx context.Context) ([]MigrationLog, error) {
	if !m.db.Migrator().HasTable(&MigrationLog{}) {
		return nil, nil
	}
	var logs []MigrationLog
	if err := m.db.WithContext(ctx).Order("version ASC").Find(&logs).Error; err != nil {
		return nil, fmt.Errorf("load applied migrations: %w", err)
	}
	return logs, nil
}

// Pending returns the migrations not yet recorded, after verifying the log
// against the known set.
func (m *Migrator) Pending(ctx context.Context) ([]Migration, error) {
	applied, err := m.Applied(ctx)
	if err != nil {
		return nil, err
	}
	if err := m.verify(applied); err != nil {
		return nil, err
	}

	done := make(map[int]bool, len(applied))
	for _, l := range applied {
		done[l.Version] = true
	}
	var pending []Migration
	for _, mg := range m.migrations {
		if !done[mg.Version] {
			pending = append(pending, mg)
		}
	}
	return pending, nil
}

// verify rejects logs naming unknown versions or whose checksum no longer
// matches the script on disk. Logs written without a checksum are accepted.
func (m *Migrator) verify(applied []MigrationLog) error {
	var unknown, changed []string
	for _, l := range applied {
		mg := m.find(l.Version)
		switch {
		case mg == nil:
			unknown = append(unknown, fmt.Sprintf("%06d", l.Version))
		case l.Checksum != "" && l.Checksum != mg.Checksum():
			changed = append(changed, mg.String())
		}
	}
	if len(unknown) > 0 {
		return fmt.Errorf("migration_logs contains versions not present in code: %s", strings.Join(unknown, ", "))
	}
	if len(changed) > 0 {
		return fmt.Errorf("applied migrations were edited after they ran: %s", strings.Join(changed, ", "))
	}
	return nil
}

func (m *Migrator) find(version int) *Migration {
	i := slices.IndexFunc(m.migrations, func(mg Migration) bool { return mg.Version == version })
	if i < 0 {
		return nil
	}
	return &m.migrations[i]
}

// Up applies every pending migration in order. Each migration and its log
// row commit together.
func (m *Migrator) Up(ctx context.Context) (int, error) {
	if err := m.ensureLogTable(ctx); err != nil {
		return 0, err
	}
	pending, err := m.Pending(ctx)
	if err != nil {
		return 0, err
	}

	for i, mg := range pending {
		middleware.Logger.Info("Applying migration", slog.Int("version", mg.Version), slog.String("name", mg.Name))
		err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Exec(mg.UpScript).Error; err != nil {
				return fmt.Errorf("apply migration %s: %w", mg, err)
			}
			return tx.Create(&MigrationLog{Version: mg.Version, Name: mg.Name, Checksum: mg.Checksum()}).Error
		})
		if err != nil {
			return i, err
		}
	}
	return len(pending), nil
}

// Down reverts one applied migration.
func (m *Migrator) Down(ctx context.Context, version int) error {
	mg := m.find(version)
	if mg == nil {
		return fmt.Errorf("migration version %d not found", version)
	}
	applied, err := m.Applied(ctx)
	if err != nil {
		return err
	}
	if !slices.ContainsFunc(applied, func(l MigrationLog) bool { return l.Version == version }) {
		return fmt.Errorf("migration %d has not been applied", version)
	}

	middleware.Logger.Info("Rolling back migration", slog.Int("version", version), slog.String("name", mg.Name))
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(mg.DownScript).Error; err != nil {
			return fmt.Errorf("rollback migration %s: %w", mg, err)
		}
		return tx.Where("version = ?", version).Delete(&MigrationLog{}).Error
	})
}

// RunMigrations applies every pending built-in migration.
func RunMigrations(ctx context.Context, db *gorm.DB) error {
	n, err := NewMigrator(db, registered).Up(ctx)
	if err != nil {
		return err
	}
	middleware.Logger.Info("SQL migrations complete", slog.Int("applied", n))
	return nil
}

// RollbackMigration reverts a built-in migration by version number.
func RollbackMigration(ctx context.Context, db *gorm.DB, version int) error {
	return NewMigrator(db, registered).Down(ctx, version)
}
