package recorder

// CycleRecord summarizes one completed aggregation cycle.
type CycleRecord struct {
	Trigger       string // "startup", "scheduled", "new win"
	TotalWonDeals int
	TotalValue    float64
	AverageTicket float64
	DurationMs    int64
}

// WinRecord is one winning deal the watcher saw for the first time.
type WinRecord struct {
	DealID      string
	Salesperson string
	Value       float64
	Title       string
}

// Recorder keeps an append-only history of cycles and wins for diagnosing
// metric jumps after the fact. Nothing recorded here is ever read back into
// process state; the remote CRM stays the source of truth.
type Recorder interface {
	RecordCycle(rec *CycleRecord) error
	RecordWin(rec *WinRecord) error
	Close() error
}
