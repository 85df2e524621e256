// Package audit appends generic observability entries for pipeline
// actions. Entries are write-only from the pipeline's point of view.
package audit

import (
	"context"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/joshijeet02/Career-huntin/internal/database"
)

// Log appends one audit entry. Failures are returned to the caller so
// the surrounding transaction can decide; callers outside transactions
// typically just log them.
func Log(ctx context.Context, db *gorm.DB, entityType string, entityID uint, action string, details map[string]interface{}) error {
	entry := database.AuditLog{
		EntityType: entityType,
		EntityID:   entityID,
		Action:     action,
		Details:    datatypes.JSONMap(details),
	}
	return db.WithContext(ctx).Create(&entry).Error
}
