// Package analytics derives funnel metrics from the execution event
// trail. Reply, interview and offer events are written by processes
// outside the pipeline, so the funnel only reads, never writes.
package analytics

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/joshijeet02/Career-huntin/internal/database"
)

// Funnel is the application funnel snapshot.
type Funnel struct {
	Applied   int64 `json:"applied"`
	Replied   int64 `json:"replied"`
	Interview int64 `json:"interview"`
	Offers    int64 `json:"offers"`
}

// ComputeFunnel counts successful events per funnel stage.
func ComputeFunnel(ctx context.Context, db *gorm.DB) (*Funnel, error) {
	funnel := &Funnel{}
	stages := map[string]*int64{
		database.EventTypeApplication: &funnel.Applied,
		database.EventTypeReply:       &funnel.Replied,
		database.EventTypeInterview:   &funnel.Interview,
		database.EventTypeOffer:       &funnel.Offers,
	}

	for eventType, target := range stages {
		if err := db.WithContext(ctx).Model(&database.ExecutionEvent{}).
			Where("event_type = ? AND status = ?", eventType, database.EventStatusSuccess).
			Count(target).Error; err != nil {
			return nil, fmt.Errorf("count %s events: %w", eventType, err)
		}
	}

	return funnel, nil
}
