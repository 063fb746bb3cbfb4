package cli

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

// EnvBasepath is consulted when --basepath is not given.
const EnvBasepath = "XLCODEC_BASEPATH"

// ResolveFilePath resolves a file path relative to a basepath.
// If basepath is empty, file is absolute or file is "-" (stdin/stdout),
// file is returned unchanged. Otherwise, filepath.Join(basepath, file) is
// returned.
func ResolveFilePath(basepath, file string) string {
	if basepath == "" || file == "-" {
		return file
	}
	if filepath.IsAbs(file) {
		return file
	}
	return filepath.Join(basepath, file)
}

// GetBasepathFromCmd returns the basepath from the command flag,
// falling back to the XLCODEC_BASEPATH environment variable.
func GetBasepathFromCmd(cmd *cobra.Command) string {
	basepath, err := cmd.Flags().GetString("basepath")
	if err != nil {
		// Flag not registered or other error, fall back to env
		basepath = ""
	}
	if basepath == "" {
		basepath = os.Getenv(EnvBasepath)
	}
	return basepath
}

func resolveArgs(cmd *cobra.Command, files []string) []string {
	base := GetBasepathFromCmd(cmd)
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = ResolveFilePath(base, f)
	}
	return out
}
