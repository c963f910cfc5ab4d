package trends

// Selection sentinel shared by the category and bucket filters.
const All = "all"

// Score band thresholds, applied to the raw score.
const (
	HighScoreThreshold = 0.8
	MidScoreThreshold  = 0.6
)

// Localized labels.
const (
	Uncategorized      = "Unkategorisiert"
	UnknownSourceLabel = "Unbekannte Quelle"
	labelWeekPrefix    = "KW "
	labelNoWeek        = "Ohne KW"
	labelNoDay         = "Ohne Datum"
	labelNoMonth       = "Ohne Monat"
)

// Bucket key parts.
const (
	keySeparator        = ":"
	clusterKeySeparator = "|"
	keyUnknown          = "unknown"
	dayKeyLayout        = "2006-01-02"
	monthKeyLayout      = "2006-01"
	dayLabelLayout      = "02.01.2006"
)

const (
	categoryHistogramSize   = 6
	clusterExpandedMaxItems = 3
	percentScale            = 100
)
