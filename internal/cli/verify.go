package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fuabioo/xlcodec/internal/codec"
	"github.com/fuabioo/xlcodec/internal/output"
	"github.com/fuabioo/xlcodec/internal/verify"
)

// ErrVerifyFailed is returned when excelize disagrees with the import.
var ErrVerifyFailed = errors.New("verification failed")

var verifyCmd = &cobra.Command{
	Use:   "verify <file.xlsx>",
	Short: "Cross-check an import against excelize",
	Long: `Verify imports a package and compares every value, formula, merge,
hyperlink and comment with what excelize reads from the same bytes.
Exits non-zero when anything differs.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		file := ResolveFilePath(GetBasepathFromCmd(cmd), args[0])
		cfg, log, err := loadSettings(cmd)
		if err != nil {
			return err
		}

		data, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", file, err)
		}
		res, err := newReader(cmd.Context(), cfg, log).Import(data, codec.ImportOptions{})
		if err != nil {
			return err
		}
		report, err := verify.Check(data, res.Workbook)
		if err != nil {
			return err
		}

		format := GetFormatFromCmd(cmd)
		if f, _ := output.ParseFormat(format); f == output.FormatJSON {
			err = output.Print(cmd.OutOrStdout(), report, format)
		} else {
			rows := [][]string{{"sheet", "address", "field", "want", "got"}}
			for _, m := range report.Mismatches {
				rows = append(rows, []string{m.Sheet, m.Address, m.Field, m.Want, m.Got})
			}
			err = output.Print(cmd.OutOrStdout(), rows, format)
		}
		if err != nil {
			return err
		}

		if !report.OK() {
			return fmt.Errorf("%w: %d mismatches in %s", ErrVerifyFailed, len(report.Mismatches), file)
		}
		log.WithField("cells", report.Cells).Info("verified")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(verifyCmd)
}
