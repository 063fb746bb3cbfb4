package cli

import (
	"context"
	"fmt"

	"github.com/charmbracelet/fang"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/fuabioo/xlcodec/internal/accel"
	"github.com/fuabioo/xlcodec/internal/codec"
	"github.com/fuabioo/xlcodec/internal/config"
	"github.com/fuabioo/xlcodec/internal/output"
)

// rootCmd is the base command
var rootCmd = &cobra.Command{
	Use:   "xlcodec",
	Short: "xlcodec - spreadsheet models to xlsx and back",
	Long: `xlcodec converts JSON workbook documents to xlsx packages and imports
xlsx packages back into the same document form.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

// Execute runs the root command
func Execute(ctx context.Context, version, commit, date string) error {

	// Build version string with commit and date
	versionStr := version
	if versionStr == "" {
		versionStr = "dev"
	}
	if commit != "" {
		versionStr += fmt.Sprintf(" (commit: %s)", commit)
	}
	if date != "" {
		versionStr += fmt.Sprintf(" built: %s", date)
	}

	return fang.Execute(ctx, rootCmd,
		fang.WithVersion(versionStr),
	)
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringP("format", "f", string(output.FormatJSON), "Output format (json, csv, tsv)")
	flags.StringP("basepath", "b", "", "Resolve relative file paths against this directory (env: "+EnvBasepath+")")
	flags.StringP("config", "c", "", "YAML option profile")
	flags.String("log-level", "", "Log level (trace, debug, info, warn, error); overrides the profile")
}

// GetFormatFromCmd returns the --format value, defaulting to json.
func GetFormatFromCmd(cmd *cobra.Command) string {
	format, err := cmd.Flags().GetString("format")
	if err != nil || format == "" {
		return string(output.FormatJSON)
	}
	return format
}

// loadSettings resolves the option profile named by --config and builds the
// logger every command reports through.
func loadSettings(cmd *cobra.Command) (*config.Config, *logrus.Logger, error) {
	path, _ := cmd.Flags().GetString("config")
	if path != "" {
		path = ResolveFilePath(GetBasepathFromCmd(cmd), path)
	}
	cfg, err := config.Resolve(path)
	if err != nil {
		return nil, nil, err
	}
	if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
		cfg.LogLevel = lvl
		if err := cfg.Validate(); err != nil {
			return nil, nil, err
		}
	}

	log := logrus.New()
	log.SetOutput(cmd.ErrOrStderr())
	log.SetLevel(cfg.Level())
	log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	return cfg, log, nil
}

// newReader builds a Reader, attaching the accelerated parser when the
// profile enables it and the parser passes its load-time probe.
func newReader(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) *codec.Reader {
	opts := []codec.Option{codec.WithLogger(log)}
	if cfg.Accelerate {
		bridge := accel.New(accel.WithLogger(log))
		if err := bridge.EnsureLoaded(ctx); err != nil {
			log.WithError(err).Debug("using structural parsers")
		} else {
			opts = append(opts, codec.WithAccelerator(bridge))
		}
	}
	return codec.NewReader(opts...)
}
