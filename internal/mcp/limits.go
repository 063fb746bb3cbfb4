package mcp

const (
	// DefaultRowLimit caps the rows import_workbook returns per sheet when
	// the caller gives no max_rows.
	DefaultRowLimit = 1000

	// MaxRowLimit is the absolute maximum rows per sheet import_workbook
	// returns
	MaxRowLimit = 10000

	// MaxPackageBytes is the largest package the server reads.
	MaxPackageBytes = 100 * 1024 * 1024

	// MaxOutputBytes is the maximum size of JSON output (5MB)
	MaxOutputBytes = 5 * 1024 * 1024
)
