// Package flattener resolves use/include statements in OpenSCAD sources
// recursively, producing a single self-contained document. include splices
// the referenced file in full; use carries only its module, function and
// internal constant definitions across. A file reachable more than once in
// the dependency graph is expanded on first contact only.
package flattener

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/viant/afs"

	"scadflat/inspector"
)

// ErrFileNotFound indicates a referenced document is absent. It aborts the
// whole flatten operation; no partial output is valid.
var ErrFileNotFound = errors.New("file not found")

// Flattener rewrites use/include statements recursively
type Flattener struct {
	fs        afs.Service
	inspector *inspector.Inspector
	logger    *log.Logger
}

// Option customizes a Flattener
type Option func(*Flattener)

// WithLogger sets the logger used for per-directive progress reporting
func WithLogger(logger *log.Logger) Option {
	return func(f *Flattener) {
		f.logger = logger
	}
}

// WithFileService sets the file service used to load referenced documents
func WithFileService(fs afs.Service) Option {
	return func(f *Flattener) {
		f.fs = fs
	}
}

// WithInspector sets the inspector used to extract definitions for use statements
func WithInspector(anInspector *inspector.Inspector) Option {
	return func(f *Flattener) {
		f.inspector = anInspector
	}
}

// New creates a Flattener with the supplied options
func New(options ...Option) *Flattener {
	result := &Flattener{
		fs:        afs.New(),
		inspector: inspector.NewInspector(nil),
		logger:    log.New(io.Discard),
	}
	for _, option := range options {
		option(result)
	}
	return result
}

// Flatten returns content with every use/include statement resolved
// recursively, searching referenced files under rootDir. The visited set is
// created here and shared by reference across the whole recursion, so a file
// reachable by two different paths renders as a skip marker the second time
// regardless of which statement kind reaches it.
func (f *Flattener) Flatten(ctx context.Context, content, rootDir string) (string, error) {
	visited := make(map[string]bool)
	return f.flatten(ctx, content, rootDir, visited)
}

func (f *Flattener) flatten(ctx context.Context, content, rootDir string, visited map[string]bool) (string, error) {
	flattened := content
	directives := findDirectives(content)
	f.logger.Debug("found use/include statements", "count", len(directives))
	for _, directive := range directives {
		candidate := path.Join(rootDir, directive.Path)
		if visited[candidate] {
			f.logger.Info("skipping already included file", "path", candidate)
			flattened = strings.ReplaceAll(flattened, directive.Raw(), skipBlock(directive.Path))
			continue
		}
		resolved, err := f.resolve(ctx, directive, candidate, visited)
		if err != nil {
			return "", err
		}
		switch directive.Kind {
		case KindInclude:
			f.logger.Info("including content", "path", candidate)
			flattened = strings.ReplaceAll(flattened, directive.Raw(), includeBlock(directive.Path, resolved))
		case KindUse:
			f.logger.Info("using definitions", "path", candidate)
			definitions, err := f.inspector.InspectSource([]byte(resolved))
			if err != nil {
				return "", fmt.Errorf("failed to extract definitions from %v: %w", candidate, err)
			}
			texts := make([]string, 0, len(definitions))
			for _, definition := range definitions {
				texts = append(texts, definition.Text)
			}
			flattened = strings.ReplaceAll(flattened, directive.Raw(), useBlock(directive.Path, strings.Join(texts, "\n\n")))
		}
	}
	return flattened, nil
}

// resolve loads the referenced file and recursively flattens it with the
// file's own directory as the new search root. The candidate path joins the
// visited set before recursing, which is what terminates cyclic references.
func (f *Flattener) resolve(ctx context.Context, directive *Directive, candidate string, visited map[string]bool) (string, error) {
	exists, err := f.fs.Exists(ctx, candidate)
	if err != nil {
		return "", fmt.Errorf("failed to check %v referenced by %q: %w", candidate, directive.Raw(), err)
	}
	if !exists {
		return "", fmt.Errorf("%w: %v referenced by %q", ErrFileNotFound, candidate, directive.Raw())
	}
	data, err := f.fs.DownloadWithURL(ctx, candidate)
	if err != nil {
		return "", fmt.Errorf("failed to load %v referenced by %q: %w", candidate, directive.Raw(), err)
	}
	f.logger.Debug("processing referenced file", "kind", directive.Kind, "path", candidate)
	visited[candidate] = true
	return f.flatten(ctx, string(data), path.Dir(candidate), visited)
}

func includeBlock(ref, content string) string {
	return fmt.Sprintf("// -----\n// BEGIN include <%s>\n// -----\n%s\n// ---\n// END include <%s>\n// ---\n", ref, content, ref)
}

func useBlock(ref, definitions string) string {
	return fmt.Sprintf("// -----\n// BEGIN use <%s>\n// -----\n%s\n// ---\n// END use <%s>\n// ---\n", ref, definitions, ref)
}

func skipBlock(ref string) string {
	return fmt.Sprintf("// --------\n// SKIPPING <%s>\n// --------\n", ref)
}
