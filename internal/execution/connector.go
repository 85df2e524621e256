package execution

import (
	"context"
	"errors"
	"strings"

	"github.com/joshijeet02/Career-huntin/internal/database"
)

// Connector performs one delivery attempt against an external channel.
// Real job-board or outreach integrations plug in here.
type Connector interface {
	Attempt(ctx context.Context, job *database.JobRecord, action string, attempt int) error
}

// MockConnector is the deterministic stand-in used for local runs and
// tests: companies containing "transient" fail every attempt before
// the last one, and jobs with a blocked status never go through.
type MockConnector struct{}

var (
	errTransientTimeout = errors.New("Transient connector timeout")
	errJobBlocked       = errors.New("Job blocked")
)

// Attempt implements Connector.
func (MockConnector) Attempt(_ context.Context, job *database.JobRecord, _ string, attempt int) error {
	if strings.Contains(strings.ToLower(job.Company), "transient") && attempt < MaxAttempts {
		return errTransientTimeout
	}
	if strings.Contains(job.Status, database.JobStatusBlocked) {
		return errJobBlocked
	}
	return nil
}
