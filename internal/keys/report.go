package keys

import (
	"fmt"

	"apiprobe/internal/models"
)

const reportPrefix = "reports"

// Report returns the canonical S3 key for an archived RunReport. Reports are
// grouped by the UTC day the run started.
func Report(r *models.RunReport) string {
	return fmt.Sprintf("%s/%s/%s.json",
		reportPrefix,
		r.StartedAt.UTC().Format("2006/01/02"),
		r.ID,
	)
}
