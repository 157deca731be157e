package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/resys/backend/internal/infrastructure/config"
	"github.com/resys/backend/internal/infrastructure/logger"
	"github.com/resys/backend/internal/infrastructure/migration"
	"github.com/resys/backend/migrations"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

const usage = `Fulfillment schema migration tool

Usage:
  migrate [flags] <command> [arguments]

Commands:
  up                    Apply all pending migrations
  down [-all]           Roll back the last migration, or all of them
  step <n>              Apply n migrations (negative rolls back)
  to <version>          Migrate up or down to a version
  status                Show the applied version and pending migrations
  force <version>       Record a version without running SQL (-1 for none)
  drop -confirm         Drop every database object
  create <name> [desc]  Write a new migration pair into -dir
  list                  List available migrations
  validate              Check that every migration has up and down files

Flags:
  -dir string           Read migrations from this directory instead of the embedded set
  -log-level string     debug, info, warn or error (default: info)

Database settings come from config.toml, .env and RESYS_DATABASE_* variables.`

// command runs against a connected migrator
type command func(m *migration.Migrator, args []string) error

var dbCommands = map[string]command{
	"up": func(m *migration.Migrator, _ []string) error { return m.Up() },
	"down": func(m *migration.Migrator, args []string) error {
		if hasFlag(args, "all") {
			return m.Down()
		}
		return m.Steps(-1)
	},
	"step": func(m *migration.Migrator, args []string) error {
		n, err := intArg(args, "step count")
		if err != nil {
			return err
		}
		return m.Steps(n)
	},
	"to": func(m *migration.Migrator, args []string) error {
		n, err := intArg(args, "version")
		if err != nil {
			return err
		}
		if n < 0 {
			return fmt.Errorf("version must not be negative")
		}
		return m.To(uint(n))
	},
	"status": func(m *migration.Migrator, _ []string) error {
		st, err := m.Status()
		if err != nil {
			return err
		}
		fmt.Printf("version: %d dirty: %t\n", st.Version, st.Dirty)
		for _, mig := range st.Pending {
			fmt.Printf("  pending %s\n", mig.Base())
		}
		return nil
	},
	"force": func(m *migration.Migrator, args []string) error {
		n, err := intArg(args, "version")
		if err != nil {
			return err
		}
		return m.Force(n)
	},
	"drop": func(m *migration.Migrator, args []string) error {
		if !hasFlag(args, "confirm") {
			return errors.New("drop needs -confirm")
		}
		return m.Drop()
	},
}

func main() {
	var dir, logLevel string
	flag.StringVar(&dir, "dir", "", "migrations directory (default: embedded)")
	flag.StringVar(&logLevel, "log-level", "info", "log level")
	flag.Usage = func() { fmt.Fprintln(os.Stderr, usage) }
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	log, err := logger.New(&logger.Config{
		Level:      logLevel,
		Format:     "console",
		Output:     "stdout",
		TimeFormat: "2006-01-02 15:04:05",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync(log) }()

	if err := run(log, dir, args[0], args[1:]); err != nil {
		log.Fatal("Migration command failed", zap.String("command", args[0]), zap.Error(err))
	}
}

func run(log *zap.Logger, dir, name string, args []string) error {
	var source fs.FS = migrations.FS
	if dir != "" {
		source = os.DirFS(dir)
	}

	switch name {
	case "create":
		if dir == "" {
			dir = "migrations"
		}
		if len(args) == 0 {
			return errors.New("usage: migrate create <name> [description]")
		}
		desc := ""
		if len(args) > 1 {
			desc = args[1]
		}
		c, err := migration.Create(dir, args[0], desc)
		if err != nil {
			return err
		}
		log.Info("Migration created", zap.String("up", c.UpPath), zap.String("down", c.DownPath))
		return nil
	case "list":
		all, err := migration.List(source)
		if err != nil {
			return err
		}
		for _, mig := range all {
			fmt.Println(mig.Base())
		}
		return nil
	case "validate":
		return migration.Validate(source)
	}

	cmd, ok := dbCommands[name]
	if !ok {
		fmt.Fprintln(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", name)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}

	m, err := migration.New(db, migration.WithSource(source), migration.WithLogger(log))
	if err != nil {
		return err
	}
	defer m.Close()

	return cmd(m, args)
}

func intArg(args []string, what string) (int, error) {
	if len(args) == 0 {
		return 0, fmt.Errorf("%s required", what)
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", what, args[0])
	}
	return n, nil
}

func hasFlag(args []string, name string) bool {
	for _, a := range args {
		if a == "-"+name || a == "--"+name {
			return true
		}
	}
	return false
}
