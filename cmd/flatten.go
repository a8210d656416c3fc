package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"github.com/viant/afs"
	"github.com/viant/afs/file"

	"scadflat/config"
	"scadflat/flattener"
	"scadflat/modifier"
)

// watchDebounce coalesces bursts of file events into one regeneration
const watchDebounce = 100 * time.Millisecond

var (
	flattenConfigFile   string
	flattenInputFile    string
	flattenOutputFile   string
	flattenModifiersDir string
	flattenWatch        bool
	flattenVerbose      bool
)

var flattenCmd = &cobra.Command{
	Use:   "flatten [config-file]",
	Short: "Generate a flat OpenSCAD file",
	Long: `Generate a flat OpenSCAD file from a source file, resolving
use/include statements recursively and applying configured modifier
substitutions first.

The run is driven either by a config file (JSON or YAML with input_file,
output_file and optional modifiers) or directly by --input/--output flags.

Examples:
  scadflat flatten config/makerworld.json
  scadflat flatten --config config/printables.yaml
  scadflat flatten --input src/charger.scad --output flat/charger.scad
  scadflat flatten config/makerworld.json --watch`,
	Args: cobra.MaximumNArgs(1),
	RunE: runFlatten,
}

func init() {
	flattenCmd.Flags().StringVarP(&flattenConfigFile, "config", "c", "", "config file (JSON or YAML)")
	flattenCmd.Flags().StringVarP(&flattenInputFile, "input", "i", "", "input .scad file (bypasses config file)")
	flattenCmd.Flags().StringVarP(&flattenOutputFile, "output", "o", "", "output .scad file (bypasses config file)")
	flattenCmd.Flags().StringVar(&flattenModifiersDir, "modifiers-dir", "", "directory holding modifier replacement files")
	flattenCmd.Flags().BoolVarP(&flattenWatch, "watch", "w", false, "regenerate whenever watched sources change")
	flattenCmd.Flags().BoolVarP(&flattenVerbose, "verbose", "v", false, "enable verbose output")
	rootCmd.AddCommand(flattenCmd)
}

func runFlatten(cmd *cobra.Command, args []string) error {
	logger := log.NewWithOptions(os.Stderr, log.Options{Prefix: "scadflat"})
	if flattenVerbose {
		logger.SetLevel(log.DebugLevel)
	}
	cfg, err := resolveConfig(args)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if err := generate(ctx, cfg, logger); err != nil {
		logger.Error("failed to generate flat file", "input", cfg.InputFile, "error", err)
		return err
	}
	if flattenWatch {
		return watchLoop(ctx, cfg, logger)
	}
	return nil
}

// resolveConfig picks the run configuration from the positional config file,
// the --config flag, or the direct --input/--output flags.
func resolveConfig(args []string) (*config.Config, error) {
	location := flattenConfigFile
	if len(args) > 0 {
		location = args[0]
	}
	if location != "" {
		return config.Load(location)
	}
	cfg := &config.Config{
		InputFile:    flattenInputFile,
		OutputFile:   flattenOutputFile,
		ModifiersDir: flattenModifiersDir,
	}
	cfg.Init()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w (supply a config file or --input and --output)", err)
	}
	return cfg, nil
}

// generate runs one full pipeline: read input, apply modifier substitutions,
// flatten, write output. Any flatten error aborts before writing; no partial
// output file is produced.
func generate(ctx context.Context, cfg *config.Config, logger *log.Logger) error {
	fs := afs.New()
	content, err := fs.DownloadWithURL(ctx, cfg.InputFile)
	if err != nil {
		return fmt.Errorf("failed to read input file %v: %w", cfg.InputFile, err)
	}
	logger.Info("processing", "input", cfg.InputFile)

	updated := string(content)
	if len(cfg.Modifiers) > 0 {
		logger.Info("updating modifiers", "count", len(cfg.Modifiers))
		updater := modifier.New(cfg.ModifiersDir, modifier.WithLogger(logger), modifier.WithFileService(fs))
		updated = updater.Apply(ctx, updated, cfg.Modifiers)
	}

	flat, err := flattener.New(flattener.WithLogger(logger), flattener.WithFileService(fs)).
		Flatten(ctx, updated, cfg.SearchRoot)
	if err != nil {
		return err
	}

	if err := fs.Upload(ctx, cfg.OutputFile, file.DefaultFileOsMode, strings.NewReader(flat)); err != nil {
		return fmt.Errorf("failed to write output file %v: %w", cfg.OutputFile, err)
	}
	logger.Info("generated flat file", "input", cfg.InputFile, "output", cfg.OutputFile)
	return nil
}

// watchLoop regenerates the output whenever a .scad file under the search
// root or the input file's directory changes. Regeneration failures are
// logged and watching continues; only watcher setup errors are fatal.
func watchLoop(ctx context.Context, cfg *config.Config, logger *log.Logger) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	dirs := watchDirs(cfg)
	for _, dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %v: %w", dir, err)
		}
	}
	logger.Info("watching for changes", "dirs", dirs)

	var pending *time.Timer
	regenerate := make(chan struct{}, 1)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Create) {
				continue
			}
			if filepath.Ext(event.Name) != ".scad" {
				continue
			}
			if filepath.Clean(event.Name) == filepath.Clean(cfg.OutputFile) {
				continue
			}
			if pending != nil {
				pending.Stop()
			}
			pending = time.AfterFunc(watchDebounce, func() {
				select {
				case regenerate <- struct{}{}:
				default:
				}
			})
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error("watch error", "error", err)
		case <-regenerate:
			if err := generate(ctx, cfg, logger); err != nil {
				logger.Error("failed to regenerate flat file", "input", cfg.InputFile, "error", err)
			}
		}
	}
}

func watchDirs(cfg *config.Config) []string {
	dirs := []string{filepath.Dir(cfg.InputFile)}
	if cfg.SearchRoot != "" && filepath.Clean(cfg.SearchRoot) != filepath.Clean(dirs[0]) {
		dirs = append(dirs, cfg.SearchRoot)
	}
	return dirs
}
