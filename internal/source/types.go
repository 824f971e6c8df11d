package source

// FileKind classifies a discovered input file.
type FileKind int

const (
	KindUnknown FileKind = iota
	KindTransactions
	KindSARIMA
	KindHoltWinters
)

func (k FileKind) String() string {
	switch k {
	case KindTransactions:
		return "transactions"
	case KindSARIMA:
		return "sarima"
	case KindHoltWinters:
		return "holtwinters"
	default:
		return "unknown"
	}
}

// DiscoveredFile represents an input file found during directory scanning.
type DiscoveredFile struct {
	Path string
	Name string
	Kind FileKind
	Size int64
}
