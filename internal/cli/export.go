package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/fuabioo/xlcodec/internal/codec"
	"github.com/fuabioo/xlcodec/internal/model"
	"github.com/fuabioo/xlcodec/internal/output"
)

// ErrOutputExists is returned when export would replace a file without
// --overwrite.
var ErrOutputExists = errors.New("output file exists (use --overwrite)")

// ExportResult is printed after a successful export.
type ExportResult struct {
	File   string   `json:"file"`
	Sheets []string `json:"sheets"`
	Cells  int      `json:"cells"`
	Bytes  int64    `json:"bytes"`
}

var exportCmd = &cobra.Command{
	Use:   "export <workbook.json|-> <out.xlsx>",
	Short: "Write a JSON workbook document as xlsx",
	Long: `Export reads a workbook document (sheets, cells, styles, merges,
hyperlinks, comments) as JSON and writes it as an xlsx package.
Use "-" to read the document from stdin.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		paths := resolveArgs(cmd, args)
		src, dst := paths[0], paths[1]

		cfg, log, err := loadSettings(cmd)
		if err != nil {
			return err
		}

		overwrite, _ := cmd.Flags().GetBool("overwrite")
		if !overwrite {
			if _, err := os.Stat(dst); err == nil {
				return fmt.Errorf("%w: %s", ErrOutputExists, dst)
			}
		}

		data, err := readInput(cmd, src)
		if err != nil {
			return err
		}
		wb, err := model.ParseDocument(data)
		if err != nil {
			return fmt.Errorf("%s: %w", src, err)
		}

		opts := cfg.Export
		flags := cmd.Flags()
		if flags.Changed("inline-strings") {
			opts.InlineStrings, _ = flags.GetBool("inline-strings")
		}
		if flags.Changed("compression") {
			opts.CompressionLevel, _ = flags.GetInt("compression")
		}
		if flags.Changed("omit-properties") {
			opts.OmitProperties, _ = flags.GetBool("omit-properties")
		}

		if err := codec.NewWriter(codec.WithLogger(log)).ExportFile(dst, wb, opts); err != nil {
			return err
		}

		res := ExportResult{File: dst, Sheets: wb.SheetNames()}
		for _, s := range wb.Sheets {
			res.Cells += s.Len()
		}
		if info, err := os.Stat(dst); err == nil {
			res.Bytes = info.Size()
		}
		format := GetFormatFromCmd(cmd)
		if f, _ := output.ParseFormat(format); f != output.FormatJSON {
			return output.Print(cmd.OutOrStdout(), [][]string{
				{"file", "sheets", "cells", "bytes"},
				{res.File, fmt.Sprint(len(res.Sheets)), fmt.Sprint(res.Cells), fmt.Sprint(res.Bytes)},
			}, format)
		}
		return output.Print(cmd.OutOrStdout(), res, format)
	},
}

func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}

func init() {
	exportCmd.Flags().Bool("overwrite", false, "Replace an existing output file")
	exportCmd.Flags().Bool("inline-strings", false, "Store text inline instead of in the shared-string table")
	exportCmd.Flags().Int("compression", 0, "Deflate level -2..9 (0: default)")
	exportCmd.Flags().Bool("omit-properties", false, "Leave out document properties")
	rootCmd.AddCommand(exportCmd)
}
