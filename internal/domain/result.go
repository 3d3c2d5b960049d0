package domain

import "time"

// Outcome is the terminal state of one artifact's processing step.
type Outcome string

const (
	// OutcomeUploaded means the artifact changed and was synchronized.
	OutcomeUploaded Outcome = "uploaded"
	// OutcomeSkipped means nothing was transferred, see SkipReason.
	OutcomeSkipped Outcome = "skipped"
	// OutcomeFailed means production, fingerprinting, or upload failed.
	OutcomeFailed Outcome = "failed"
)

// String returns the string representation of the outcome.
func (o Outcome) String() string {
	return string(o)
}

// SkipReason explains an OutcomeSkipped entry.
type SkipReason string

const (
	// SkipUnchanged means the fingerprint matched the ledger record.
	SkipUnchanged SkipReason = "unchanged"
	// SkipSourceMissing means the configured source does not exist.
	SkipSourceMissing SkipReason = "source-missing"
	// SkipDryRun means a changed artifact was detected but not uploaded.
	SkipDryRun SkipReason = "dry-run"
)

// ArtifactResult records the outcome of one artifact's processing step.
type ArtifactResult struct {
	Name      string        `json:"name"`
	Outcome   Outcome       `json:"outcome"`
	Reason    SkipReason    `json:"reason,omitempty"`
	Error     string        `json:"error,omitempty"`
	Hash      string        `json:"hash,omitempty"`
	SizeBytes int64         `json:"size_bytes,omitempty"`
	Duration  time.Duration `json:"duration"`
}

// RunReport aggregates the per-artifact outcomes of one backup run.
// It is built fresh each run and never persisted.
type RunReport struct {
	RunID      string           `json:"run_id"`
	StartedAt  time.Time        `json:"started_at"`
	FinishedAt time.Time        `json:"finished_at"`
	Duration   time.Duration    `json:"duration"`
	DryRun     bool             `json:"dry_run"`
	Artifacts  []ArtifactResult `json:"artifacts"`
}

// NewRunReport creates a RunReport for a run starting now.
func NewRunReport(runID string, dryRun bool) *RunReport {
	return &RunReport{
		RunID:     runID,
		StartedAt: time.Now(),
		DryRun:    dryRun,
	}
}

// Complete marks the run as finished.
func (r *RunReport) Complete() {
	r.FinishedAt = time.Now()
	r.Duration = r.FinishedAt.Sub(r.StartedAt)
}

// Counts returns the number of uploaded, skipped, and failed artifacts.
func (r *RunReport) Counts() (uploaded, skipped, failed int) {
	for _, a := range r.Artifacts {
		switch a.Outcome {
		case OutcomeUploaded:
			uploaded++
		case OutcomeSkipped:
			skipped++
		case OutcomeFailed:
			failed++
		}
	}
	return uploaded, skipped, failed
}

// Success reports whether no artifact ended in OutcomeFailed.
func (r *RunReport) Success() bool {
	_, _, failed := r.Counts()
	return failed == 0
}

// BytesUploaded returns the total size of uploaded artifacts.
func (r *RunReport) BytesUploaded() int64 {
	var n int64
	for _, a := range r.Artifacts {
		if a.Outcome == OutcomeUploaded {
			n += a.SizeBytes
		}
	}
	return n
}
