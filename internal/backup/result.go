package backup

// Result is the full accounting of one backup run. Error always
// holds masked text; raw failure detail never leaves the run. Err
// carries the failure-class sentinel for callers that branch on it.
type Result struct {
	Success      bool
	Cancelled    bool
	BackupID     string
	Error        string
	Err          error
	Size         string
	FilesCleaned int
	Duration     float64
}
