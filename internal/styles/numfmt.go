package styles

// FirstCustomNumFmtID is the first id available to custom number formats;
// 0 through 163 are reserved for built-ins.
const FirstCustomNumFmtID = 164

// builtinNumFmts holds the built-in formats that have a fixed code.
var builtinNumFmts = map[int]string{
	0:  "General",
	1:  "0",
	2:  "0.00",
	3:  "#,##0",
	4:  "#,##0.00",
	9:  "0%",
	10: "0.00%",
	11: "0.00E+00",
	12: "# ?/?",
	13: "# ??/??",
	14: "mm-dd-yy",
	15: "d-mmm-yy",
	16: "d-mmm",
	17: "mmm-yy",
	18: "h:mm AM/PM",
	19: "h:mm:ss AM/PM",
	20: "h:mm",
	21: "h:mm:ss",
	22: "m/d/yy h:mm",
	37: "#,##0 ;(#,##0)",
	38: "#,##0 ;[Red](#,##0)",
	39: "#,##0.00;(#,##0.00)",
	40: "#,##0.00;[Red](#,##0.00)",
	45: "mm:ss",
	46: "[h]:mm:ss",
	47: "mmss.0",
	48: "##0.0E+0",
	49: "@",
}

var builtinByCode = func() map[string]int {
	m := make(map[string]int, len(builtinNumFmts))
	for id, code := range builtinNumFmts {
		m[code] = id
	}
	return m
}()

// Number format ids used for date cells that carry no explicit format.
const (
	DateNumFmtID     = 14
	DateTimeNumFmtID = 22
)

// BuiltinNumFmt returns the code of a built-in number format.
func BuiltinNumFmt(id int) (string, bool) {
	code, ok := builtinNumFmts[id]
	return code, ok
}

// BuiltinNumFmtID returns the built-in id for a code, if there is one.
func BuiltinNumFmtID(code string) (int, bool) {
	id, ok := builtinByCode[code]
	return id, ok
}

// NumFmt is a custom number format record.
type NumFmt struct {
	ID   int
	Code string
}
