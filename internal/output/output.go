package output

import "time"

// Stats holds aggregate run statistics for the final tally.
type Stats struct {
	Targets       int
	Processed     int
	Failed        int
	Skipped       int
	DetectFailed  int
	ReportErrors  int
	TotalResults  int
	Interesting   int
	Duration      time.Duration
	FailedTargets []string
}
