package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fuabioo/xlcodec/internal/output"
	"github.com/fuabioo/xlcodec/internal/verify"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <file.xlsx>",
	Short: "List package parts and summarize sheets",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		file := ResolveFilePath(GetBasepathFromCmd(cmd), args[0])
		data, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", file, err)
		}

		info, err := verify.Inspect(data, nil)
		if err != nil {
			return err
		}

		format := GetFormatFromCmd(cmd)
		parts, _ := cmd.Flags().GetBool("parts")
		if f, _ := output.ParseFormat(format); f == output.FormatJSON {
			if !parts {
				info.Parts = nil
			}
			return output.Print(cmd.OutOrStdout(), info, format)
		}

		if parts {
			rows := [][]string{{"part", "size"}}
			for _, p := range info.Parts {
				rows = append(rows, []string{p.Name, fmt.Sprint(p.Size)})
			}
			return output.Print(cmd.OutOrStdout(), rows, format)
		}
		rows := [][]string{{"sheet", "visible", "dimension", "rows", "cols"}}
		for _, s := range info.Sheets {
			rows = append(rows, []string{s.Name, fmt.Sprint(s.Visible), s.Dimension, fmt.Sprint(s.Rows), fmt.Sprint(s.Cols)})
		}
		return output.Print(cmd.OutOrStdout(), rows, format)
	},
}

func init() {
	inspectCmd.Flags().Bool("parts", false, "Include the package part listing")
	rootCmd.AddCommand(inspectCmd)
}
