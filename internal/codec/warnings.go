package codec

import (
	"fmt"
	"time"
)

// Warning codes. A warning never fails an import; only the unit it names
// (a sheet, merge, hyperlink or cell) is skipped.
const (
	WarnMissingSheetPart    = "missing_sheet_part"
	WarnInvalidMerge        = "invalid_merge"
	WarnInvalidReference    = "invalid_reference"
	WarnInvalidSharedString = "invalid_shared_string"
	WarnInvalidStyleIndex   = "invalid_style_index"
	WarnInvalidHyperlink    = "invalid_hyperlink"
	WarnMissingCommentsPart = "missing_comments_part"
	WarnUnknownSheet        = "unknown_sheet"
	WarnRowsTruncated       = "rows_truncated"
	WarnColsTruncated       = "cols_truncated"
)

// Warning is a non-fatal problem found while importing.
type Warning struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Sheet   string `json:"sheet,omitempty"`
	Address string `json:"address,omitempty"`
}

func (w Warning) String() string {
	switch {
	case w.Sheet != "" && w.Address != "":
		return fmt.Sprintf("%s: %s!%s: %s", w.Code, w.Sheet, w.Address, w.Message)
	case w.Sheet != "":
		return fmt.Sprintf("%s: %s: %s", w.Code, w.Sheet, w.Message)
	}
	return w.Code + ": " + w.Message
}

// Stats summarizes one import.
type Stats struct {
	Sheets       int           `json:"sheets"`
	Cells        int           `json:"cells"`
	FormulaCells int           `json:"formulaCells"`
	Merges       int           `json:"merges"`
	Accelerated  int           `json:"accelerated"` // parts served by the accelerator
	Duration     time.Duration `json:"duration"`
}
