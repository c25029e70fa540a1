package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/shishobooks/bookmend/pkg/config"
	"github.com/shishobooks/bookmend/pkg/database"
	"github.com/shishobooks/bookmend/pkg/library"
	"github.com/shishobooks/bookmend/pkg/migrations"
	"github.com/uptrace/bun/migrate"
	"github.com/urfave/cli/v2"
)

func main() {
	log := logger.New()

	cfg, err := config.New()
	if err != nil {
		log.Err(err).Fatal("config error")
	}
	// The migrations recreate the reader's schema for development. They must never touch the real library.
	if filepath.Base(cfg.DatabaseFilePath) == deviceDatabaseName {
		log.Err(errors.Errorf("%s is the device library", cfg.DatabaseFilePath)).Fatal("refusing to run migrations")
	}

	db, err := database.New(cfg)
	if err != nil {
		log.Err(err).Fatal("database error")
	}

	app := &cli.App{
		Name:        "migrations",
		Usage:       "CLI to manage a sandbox library database",
		Description: "Creates and migrates a database with the reader's explorer-3 schema for development and testing",
		Commands: []*cli.Command{
			{
				Name:  "init",
				Usage: "create the migration bookkeeping tables",
				Action: func(c *cli.Context) error {
					migrator := migrate.NewMigrator(db, migrations.Migrations)
					return migrator.Init(c.Context)
				},
			},
			{
				Name:  "migrate",
				Usage: "bring the sandbox up to the newest explorer-3 schema",
				Action: func(c *cli.Context) error {
					migrator := migrate.NewMigrator(db, migrations.Migrations)

					group, err := migrator.Migrate(c.Context)
					if err != nil {
						return err
					}

					if group.ID == 0 {
						fmt.Printf("There are no new migrations to run\n")
						return nil
					}

					fmt.Printf("Migrated to %s\n", group)
					return nil
				},
			},
			{
				Name:  "rollback",
				Usage: "rollback the last migration group",
				Action: func(c *cli.Context) error {
					migrator := migrate.NewMigrator(db, migrations.Migrations)

					group, err := migrator.Rollback(c.Context)
					if err != nil {
						return err
					}

					if group.ID == 0 {
						fmt.Printf("There are no groups to roll back\n")
						return nil
					}

					fmt.Printf("Rolled back %s\n", group)
					return nil
				},
			},
			{
				Name:      "register",
				Usage:     "add bare book rows for EPUB files, as the reader does when it first sees them",
				ArgsUsage: "<path/to/file.epub>...",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "storage-id", Value: cfg.StorageID, Usage: "storage id written to the files rows"},
				},
				Action: func(c *cli.Context) error {
					if c.NArg() == 0 {
						return cli.ShowCommandHelp(c, "register")
					}
					svc := library.NewService(db)
					for _, path := range c.Args().Slice() {
						id, err := svc.RegisterFile(c.Context, path, c.Int("storage-id"))
						if err != nil {
							return err
						}
						fmt.Printf("Registered %s as book %d\n", path, id)
					}
					return nil
				},
			},
			{
				Name:  "create",
				Usage: "create a Go migration for a newer firmware schema",
				Action: func(c *cli.Context) error {
					migrator := migrate.NewMigrator(db, migrations.Migrations)

					name := strings.Join(c.Args().Slice(), "_")
					mf, err := migrator.CreateGoMigration(
						c.Context,
						name,
						migrate.WithGoTemplate(migrationTemplate),
					)
					if err != nil {
						return err
					}
					fmt.Printf("Created migration %s (%s)\n", mf.Name, mf.Path)

					return nil
				},
			},
			{
				Name:  "status",
				Usage: "print migrations status",
				Action: func(c *cli.Context) error {
					migrator := migrate.NewMigrator(db, migrations.Migrations)

					ms, err := migrator.MigrationsWithStatus(c.Context)
					if err != nil {
						return err
					}
					fmt.Printf("Migrations: %s\n", ms)
					fmt.Printf("Unapplied migrations: %s\n", ms.Unapplied())
					fmt.Printf("Last migration group: %s\n", ms.LastGroup())

					return nil
				},
			},
		},
	}
	if err := app.Run(os.Args); err != nil {
		log.Err(err).Fatal("app run error")
	}
}

const deviceDatabaseName = "explorer-3.db"

const migrationTemplate = `package %s

import (
	"context"

	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

func init() {
	up := func(_ context.Context, db *bun.DB) error {
		_, err := db.Exec("")
		return errors.WithStack(err)
	}

	down := func(_ context.Context, db *bun.DB) error {
		_, err := db.Exec("")
		return errors.WithStack(err)
	}

	Migrations.MustRegister(up, down)
}
`
