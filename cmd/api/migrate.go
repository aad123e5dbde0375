package main

import (
	"log/slog"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/yourusername/postboard/internal/config"
	"github.com/yourusername/postboard/internal/storage"
)

// migrator は migrate サブコマンドが使う操作です。
type migrator interface {
	Up() error
	Down() error
	Version() (uint, bool, error)
	Close() error
}

// newMigrator はテストで差し替えます。
var newMigrator = func(databaseURL string) (migrator, error) {
	m, err := storage.NewMigrator(databaseURL)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// NewMigrateCmd は migrate サブコマンドを作成します。
func NewMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "データベースのマイグレーションを管理します",
		Long:  `DATABASE_URL に埋め込みのマイグレーションを適用します。サブコマンドを省略すると up と同じです。`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(func(m migrator) error { return runUp(cmd, m) })
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "未適用のマイグレーションをすべて適用します",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(func(m migrator) error { return runUp(cmd, m) })
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "すべてのマイグレーションを戻します（データは削除されます）",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(func(m migrator) error {
				if err := m.Down(); err != nil {
					return err
				}
				cmd.Println("All migrations rolled back")
				return nil
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "現在のスキーマバージョンを表示します",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(func(m migrator) error {
				version, dirty, err := m.Version()
				if err != nil {
					return err
				}
				if dirty {
					cmd.Printf("Version: %d (dirty)\n", version)
				} else {
					cmd.Printf("Version: %d\n", version)
				}
				return nil
			})
		},
	})

	return cmd
}

func runUp(cmd *cobra.Command, m migrator) error {
	if err := m.Up(); err != nil {
		return err
	}
	cmd.Println("Migrations completed successfully")
	return nil
}

func withMigrator(fn func(m migrator) error) error {
	cfg, err := config.Load()
	if err != nil {
		return oops.Code("CONFIG_INVALID").With("operation", "load config").Wrap(err)
	}
	if cfg.DatabaseURL == "" {
		return oops.Code("CONFIG_INVALID").Errorf("DATABASE_URL environment variable is required")
	}

	m, err := newMigrator(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := m.Close(); closeErr != nil {
			slog.Warn("failed to close migrator", "error", closeErr)
		}
	}()

	return fn(m)
}

// migrateUp は serve --migrate 用です。
func migrateUp(databaseURL string, logger *slog.Logger) error {
	m, err := newMigrator(databaseURL)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := m.Close(); closeErr != nil {
			logger.Warn("failed to close migrator", "error", closeErr)
		}
	}()

	if err := m.Up(); err != nil {
		return err
	}
	logger.Info("migrations applied")
	return nil
}
