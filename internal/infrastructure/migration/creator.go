package migration

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"text/template"
	"time"
)

// versionWidth matches the zero padded prefix of the checked-in files
const versionWidth = 6

var fileNamePattern = regexp.MustCompile(`^(\d+)_([a-z0-9_]+)\.(up|down)\.sql$`)

var nonWord = regexp.MustCompile(`[^a-z0-9]+`)

var fileTemplate = template.Must(template.New("migration").Parse(
	`-- {{.Name}}{{if .Down}} (rollback){{end}}
-- Created: {{.Created}}
{{- if .Description}}
-- {{.Description}}
{{- end}}

`))

// Migration is one versioned up/down pair
type Migration struct {
	Version uint
	Name    string
	HasUp   bool
	HasDown bool
}

// Base returns the file name without the direction suffix
func (m Migration) Base() string {
	return fmt.Sprintf("%0*d_%s", versionWidth, m.Version, m.Name)
}

// List reads the migrations in fsys ordered by version. Files that do not
// follow the NNNNNN_name.{up,down}.sql convention are ignored.
func List(fsys fs.FS) ([]Migration, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read migrations: %w", err)
	}

	byVersion := make(map[uint]*Migration)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		match := fileNamePattern.FindStringSubmatch(entry.Name())
		if match == nil {
			continue
		}
		v, err := strconv.ParseUint(match[1], 10, 32)
		if err != nil {
			return nil, fmt.Errorf("parse version of %s: %w", entry.Name(), err)
		}
		version := uint(v)

		mig, ok := byVersion[version]
		if !ok {
			mig = &Migration{Version: version, Name: match[2]}
			byVersion[version] = mig
		} else if mig.Name != match[2] {
			return nil, fmt.Errorf("version %d used by both %q and %q", version, mig.Name, match[2])
		}
		if match[3] == "up" {
			mig.HasUp = true
		} else {
			mig.HasDown = true
		}
	}

	out := make([]Migration, 0, len(byVersion))
	for _, mig := range byVersion {
		out = append(out, *mig)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out, nil
}

// Validate checks that every migration has both directions
func Validate(fsys fs.FS) error {
	all, err := List(fsys)
	if err != nil {
		return err
	}
	var errs []error
	for _, mig := range all {
		if !mig.HasUp {
			errs = append(errs, fmt.Errorf("%s: missing up file", mig.Base()))
		}
		if !mig.HasDown {
			errs = append(errs, fmt.Errorf("%s: missing down file", mig.Base()))
		}
	}
	return errors.Join(errs...)
}

// Created describes a freshly written migration pair
type Created struct {
	Migration
	UpPath   string
	DownPath string
}

// Create writes an empty up/down pair into dir using the next free version
func Create(dir, name, description string) (*Created, error) {
	slug := Slug(name)
	if slug == "" {
		return nil, fmt.Errorf("migration name %q has no usable characters", name)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create migrations directory: %w", err)
	}

	existing, err := List(os.DirFS(dir))
	if err != nil {
		return nil, err
	}
	var next uint = 1
	if n := len(existing); n > 0 {
		next = existing[n-1].Version + 1
	}

	c := &Created{Migration: Migration{Version: next, Name: slug, HasUp: true, HasDown: true}}
	c.UpPath = filepath.Join(dir, c.Base()+".up.sql")
	c.DownPath = filepath.Join(dir, c.Base()+".down.sql")

	created := time.Now().UTC().Format(time.RFC3339)
	if err := writeFile(c.UpPath, slug, description, created, false); err != nil {
		return nil, err
	}
	if err := writeFile(c.DownPath, slug, description, created, true); err != nil {
		_ = os.Remove(c.UpPath)
		return nil, err
	}
	return c, nil
}

func writeFile(path, name, description, created string, down bool) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	data := struct {
		Name, Description, Created string
		Down                       bool
	}{name, description, created, down}
	if err := fileTemplate.Execute(f, data); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// Slug lowercases name and joins its alphanumeric runs with underscores
func Slug(name string) string {
	return strings.Trim(nonWord.ReplaceAllString(strings.ToLower(name), "_"), "_")
}
