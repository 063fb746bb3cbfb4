package cli

import (
	"fmt"
	"io"
	"runtime"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/fuabioo/xlcodec/internal/codec"
	"github.com/fuabioo/xlcodec/internal/model"
	"github.com/fuabioo/xlcodec/internal/output"
)

// ImportResult is the JSON form of one imported package.
type ImportResult struct {
	File     string          `json:"file"`
	Workbook *model.Document `json:"workbook"`
	Stats    codec.Stats     `json:"stats"`
	Warnings []codec.Warning `json:"warnings,omitempty"`
}

var importCmd = &cobra.Command{
	Use:   "import <file.xlsx>...",
	Short: "Read xlsx packages into workbook documents",
	Long: `Import reads one or more xlsx packages. With --format json each package
becomes a workbook document; csv and tsv print the display text of every
imported sheet. Several files are imported concurrently.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		files := resolveArgs(cmd, args)
		format := GetFormatFromCmd(cmd)
		if _, err := output.NewFormatter(format); err != nil {
			return err
		}

		cfg, log, err := loadSettings(cmd)
		if err != nil {
			return err
		}

		opts := cfg.Import
		flags := cmd.Flags()
		if flags.Changed("sheet") {
			opts.Sheets, _ = flags.GetStringSlice("sheet")
		}
		if flags.Changed("sheet-index") {
			opts.SheetIndexes, _ = flags.GetIntSlice("sheet-index")
		}
		if flags.Changed("max-rows") {
			opts.MaxRows, _ = flags.GetInt("max-rows")
		}
		if flags.Changed("max-cols") {
			opts.MaxCols, _ = flags.GetInt("max-cols")
		}
		if flags.Changed("skip-styles") {
			opts.SkipStyles, _ = flags.GetBool("skip-styles")
		}
		if flags.Changed("accelerate") {
			cfg.Accelerate, _ = flags.GetBool("accelerate")
		}

		jobs, _ := flags.GetInt("jobs")
		if jobs <= 0 {
			jobs = runtime.GOMAXPROCS(0)
		}

		reader := newReader(cmd.Context(), cfg, log)
		results := make([]*codec.Result, len(files))

		g, ctx := errgroup.WithContext(cmd.Context())
		g.SetLimit(jobs)
		for i, file := range files {
			g.Go(func() error {
				if err := ctx.Err(); err != nil {
					return err
				}
				res, err := reader.ImportFile(file, opts)
				if err != nil {
					return fmt.Errorf("%s: %w", file, err)
				}
				results[i] = res
				log.WithField("file", file).WithField("cells", res.Stats.Cells).
					WithField("warnings", len(res.Warnings)).Info("imported")
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		return writeImport(cmd.OutOrStdout(), format, files, results)
	},
}

func writeImport(w io.Writer, format string, files []string, results []*codec.Result) error {
	if f, _ := output.ParseFormat(format); f == output.FormatJSON {
		docs := make([]ImportResult, len(results))
		for i, res := range results {
			docs[i] = ImportResult{
				File:     files[i],
				Workbook: model.NewDocument(res.Workbook),
				Stats:    res.Stats,
				Warnings: res.Warnings,
			}
		}
		if len(docs) == 1 {
			return output.Print(w, docs[0], format)
		}
		return output.Print(w, docs, format)
	}

	for i, res := range results {
		if len(results) > 1 {
			if i > 0 {
				if _, err := io.WriteString(w, "\n"); err != nil {
					return err
				}
			}
			if _, err := fmt.Fprintf(w, "## %s\n", files[i]); err != nil {
				return err
			}
		}
		if err := output.WriteSheets(w, format, res.Workbook.Sheets); err != nil {
			return err
		}
	}
	return nil
}

func init() {
	importCmd.Flags().StringSliceP("sheet", "s", nil, "Sheet names to import (default: all)")
	importCmd.Flags().IntSlice("sheet-index", nil, "Zero-based sheet positions to import")
	importCmd.Flags().Int("max-rows", 0, "Rows per sheet (0 = unlimited)")
	importCmd.Flags().Int("max-cols", 0, "Columns per sheet (0 = unlimited)")
	importCmd.Flags().Bool("skip-styles", false, "Do not resolve cell styles")
	importCmd.Flags().Bool("accelerate", true, "Use the accelerated parser when it is available")
	importCmd.Flags().IntP("jobs", "j", 0, "Files imported concurrently (0 = GOMAXPROCS)")
	rootCmd.AddCommand(importCmd)
}
