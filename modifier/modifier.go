// Package modifier substitutes marked setup sections of an OpenSCAD document
// with externally supplied replacement files. A section is delimited by two
// occurrences of the same literal marker line; anything between and including
// the markers is swapped for the replacement content re-wrapped in the same
// markers.
package modifier

import (
	"context"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/viant/afs"
)

const markerFormat = "/* MODIFIER %s */"

// Updater applies modifier section substitutions. Replacement files are
// resolved under the configured modifiers directory.
type Updater struct {
	fs     afs.Service
	dir    string
	logger *log.Logger
}

// Option customizes an Updater
type Option func(*Updater)

// WithLogger sets the logger used to report substitution anomalies
func WithLogger(logger *log.Logger) Option {
	return func(u *Updater) {
		u.logger = logger
	}
}

// WithFileService sets the file service used to load replacement files
func WithFileService(fs afs.Service) Option {
	return func(u *Updater) {
		u.fs = fs
	}
}

// New creates an Updater resolving replacement files under dir
func New(dir string, options ...Option) *Updater {
	result := &Updater{
		fs:     afs.New(),
		dir:    dir,
		logger: log.New(io.Discard),
	}
	for _, option := range options {
		option(result)
	}
	return result
}

// Apply replaces each paired modifier section of content with the mapped
// replacement file. Unmatched or single-occurrence markers are reported and
// left untouched, as is a section whose replacement file is absent; anomalies
// never fail the run.
func (u *Updater) Apply(ctx context.Context, content string, modifiers map[string]string) string {
	updated := content
	for _, name := range sortedKeys(modifiers) {
		filename := modifiers[name]
		u.logger.Info("processing modifier", "name", name, "file", filename)

		marker := fmt.Sprintf(markerFormat, name)
		first := strings.Index(updated, marker)
		if first == -1 {
			u.logger.Warn("modifier section not found in file", "name", name)
			continue
		}
		second := strings.Index(updated[first+len(marker):], marker)
		if second == -1 {
			u.logger.Warn("found only one occurrence of modifier marker, need end marker", "name", name)
			continue
		}
		end := first + len(marker) + second + len(marker)
		section := updated[first:end]

		location := path.Join(u.dir, filename)
		data, err := u.fs.DownloadWithURL(ctx, location)
		if err != nil {
			u.logger.Warn("modifier file not found", "path", location, "error", err)
			continue
		}

		replacement := fmt.Sprintf("%s\n%s\n%s", marker, string(data), marker)
		updated = strings.ReplaceAll(updated, section, replacement)
		u.logger.Info("replaced modifier section", "name", name, "file", filename)
	}
	return updated
}

func sortedKeys(modifiers map[string]string) []string {
	keys := make([]string, 0, len(modifiers))
	for key := range modifiers {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
