package confluence

// Format identifies the dataset encoding shared by every chunk of one merge.
// The set is closed: the dispatcher switches over it explicitly and rejects
// anything else before any I/O happens.
type Format string

const (
	FormatCSV         Format = "CSV"
	FormatJSONArray   Format = "JSON_ARRAY"
	FormatArrowStream Format = "ARROW_STREAM"
)
