package exitcode

const (
	UsageError      = 1
	ValidationError = 2
	StoreError      = 3
	ExportError     = 4
	ProcessingError = 5
)
