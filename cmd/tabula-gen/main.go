// Command tabula-gen scans Go packages for tabula model declarations and
// writes the generated aggregator and row codecs. It is meant to run via
// go:generate:
//
//	//go:generate go run github.com/vk/tabula/cmd/tabula-gen --config tabula.hcl
package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vk/tabula/internal/analyzer"
	"github.com/vk/tabula/internal/ctxlog"
	"github.com/vk/tabula/internal/genconfig"
	"github.com/vk/tabula/internal/generator"
)

func main() {
	if err := newRootCmd(os.Stderr).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd(logW io.Writer) *cobra.Command {
	var (
		configPath  string
		packages    []string
		output      string
		packageName string
		contextName string
		logLevel    string
		logFormat   string
	)

	cmd := &cobra.Command{
		Use:           "tabula-gen",
		Short:         "Generate typed tabula repositories from annotated Go models",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger(logLevel, logFormat, logW)
			if err != nil {
				return err
			}
			ctx := ctxlog.WithLogger(cmd.Context(), logger)

			cfg := &genconfig.Generate{}
			if configPath != "" {
				cfg, err = genconfig.Load(configPath)
				if err != nil {
					return err
				}
			}
			if len(packages) > 0 {
				cfg.Packages = packages
			}
			if output != "" {
				cfg.Output = output
			}
			if packageName != "" {
				cfg.Package = packageName
			}
			if contextName != "" {
				cfg.Context = contextName
			}
			applyDefaults(cfg)
			if len(cfg.Packages) == 0 {
				return errors.New("no packages to scan: set --packages or a config file")
			}

			logger.Debug("Analyzing packages.", "patterns", cfg.Packages)
			res, err := analyzer.Load(ctx, "", cfg.Packages...)
			if err != nil {
				return err
			}
			if len(res.Models) == 0 {
				return errors.New("no models found in the scanned packages")
			}

			src, problems, err := generator.Generate(generator.Options{
				PackageName: cfg.Package,
				ContextName: cfg.Context,
			}, res.Models)
			for _, p := range problems {
				logger.Warn("Model excluded from generation.", "problem", p.String())
			}
			if err != nil {
				return err
			}

			if dir := filepath.Dir(cfg.Output); dir != "." {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return fmt.Errorf("create output directory: %w", err)
				}
			}
			if err := os.WriteFile(cfg.Output, src, 0o644); err != nil {
				return fmt.Errorf("write output: %w", err)
			}

			logger.Info("Generation complete.",
				"models", len(res.Models)-len(problems),
				"skipped", len(res.Problems)+len(problems),
				"output", cfg.Output)
			return nil
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "HCL config file (see package genconfig)")
	cmd.Flags().StringSliceVar(&packages, "packages", nil, "go/packages patterns to scan for models")
	cmd.Flags().StringVar(&output, "output", "", "generated file path")
	cmd.Flags().StringVar(&packageName, "package", "", "generated package name")
	cmd.Flags().StringVar(&contextName, "context", "", "aggregator type name")
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "logging level: debug, info, warn, or error")
	cmd.Flags().StringVar(&logFormat, "log-format", "text", "log output format: text or json")
	return cmd
}

func applyDefaults(cfg *genconfig.Generate) {
	if cfg.Output == "" {
		cfg.Output = filepath.Join("tabuladata", "tabula_gen.go")
	}
	if cfg.Package == "" {
		cfg.Package = filepath.Base(filepath.Dir(cfg.Output))
	}
	if cfg.Context == "" {
		cfg.Context = "Data"
	}
}

// newLogger creates a configured slog.Logger. It does not touch the global
// logger, keeping instances isolated for tests.
func newLogger(levelStr, formatStr string, outW io.Writer) (*slog.Logger, error) {
	var level slog.Level
	switch strings.ToLower(levelStr) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return nil, fmt.Errorf("invalid log-level: must be 'debug', 'info', 'warn', or 'error'")
	}

	handlerOpts := &slog.HandlerOptions{Level: level}
	switch strings.ToLower(formatStr) {
	case "json":
		return slog.New(slog.NewJSONHandler(outW, handlerOpts)), nil
	case "text":
		return slog.New(slog.NewTextHandler(outW, handlerOpts)), nil
	default:
		return nil, fmt.Errorf("invalid log-format: must be 'text' or 'json'")
	}
}
