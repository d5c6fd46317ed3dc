package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/loomkit/weft/cmd/weft/internal/config"
	"github.com/loomkit/weft/internal/logger"
	"github.com/loomkit/weft/pkg/extensions/bem"
	"github.com/loomkit/weft/pkg/extensions/vue"
	"github.com/loomkit/weft/pkg/style"
	"github.com/loomkit/weft/pkg/weft"
)

func newBuildCommand() *cobra.Command {
	var output string
	var templatesDir string
	var dialect string

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Render all templates to the output directory",
		Long:  `Renders every JSON template in the templates directory with the configured dialect and extensions.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(output, templatesDir, dialect)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output directory (overrides weft.yml)")
	cmd.Flags().StringVarP(&templatesDir, "templates", "t", "", "Templates directory (overrides weft.yml)")
	cmd.Flags().StringVarP(&dialect, "dialect", "d", "", "Render dialect: plain or vue (overrides weft.yml)")

	return cmd
}

func runBuild(output, templatesDir, dialect string) error {
	cfg, err := config.Load(".")
	if err != nil {
		logger.Warn("failed to load "+config.FileName+", using defaults", "err", err)
		cfg = config.DefaultConfig()
	}
	if output != "" {
		cfg.OutputDir = output
	}
	if templatesDir != "" {
		cfg.TemplatesDir = templatesDir
	}
	if dialect != "" {
		cfg.Dialect = dialect
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	logger.Configure(cfg.Verbose, os.Stderr)

	engine, err := newEngine(cfg)
	if err != nil {
		return err
	}

	templates, err := filepath.Glob(filepath.Join(cfg.TemplatesDir, "*.json"))
	if err != nil {
		return err
	}
	if len(templates) == 0 {
		return fmt.Errorf("no templates found in %s", cfg.TemplatesDir)
	}

	logger.Info("building templates", "count", len(templates), "dialect", cfg.Dialect)

	failed := 0
	for _, path := range templates {
		result, err := renderTemplate(context.Background(), engine, cfg, path)
		if err != nil {
			failed++
			logger.Error("render failed", "template", filepath.Base(path), "err", err)
			continue
		}
		for _, rerr := range result.Errors {
			logger.Warn("template issue", "template", filepath.Base(path), "issue", rerr)
		}
		reportOutputSize(result.FilePath)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d templates failed", failed, len(templates))
	}
	logger.Success(fmt.Sprintf("rendered %d templates to %s", len(templates), cfg.OutputDir))
	return nil
}

// newEngine assembles the render engine from the project configuration: the
// dialect backend first, then the named extensions in declaration order.
func newEngine(cfg *config.Config) (*weft.Engine, error) {
	var extensions []weft.Extension
	if cfg.Dialect == "vue" {
		extensions = append(extensions, vue.New())
	}
	for _, name := range cfg.Extensions {
		switch name {
		case bem.Key:
			extensions = append(extensions, bem.New())
		case vue.Key:
			// Already active when the dialect selects it.
			if cfg.Dialect != "vue" {
				extensions = append(extensions, vue.New())
			}
		default:
			return nil, fmt.Errorf("unknown extension %q in %s", name, config.FileName)
		}
	}
	return weft.New(extensions...), nil
}

// renderTemplate renders one template file to the configured output directory.
func renderTemplate(ctx context.Context, engine *weft.Engine, cfg *config.Config, path string) (*weft.Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return engine.Render(ctx, data, weft.Options{
		Name:                  name,
		OutputDir:             cfg.OutputDir,
		FileExtension:         cfg.FileExtension,
		PreferSelfClosingTags: cfg.PreferSelfClosingTags,
		WriteOutputFile:       true,
		Verbose:               cfg.Verbose,
		StyleFormat:           style.Format(cfg.Styles.OutputFormat),
	})
}

func reportOutputSize(path string) {
	if path == "" {
		return
	}
	if info, err := os.Stat(path); err == nil {
		logger.Debug("wrote output", "file", path, "size", formatSize(info.Size()))
	}
}

func formatSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(size)/float64(div), "KMGTPE"[exp])
}
