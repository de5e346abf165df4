package notification

import (
	"context"
	"fmt"
	"log"
	"time"
)

// CleanupService prunes read notifications past the retention window.
type CleanupService struct {
	repo Repository
}

func NewCleanupService(repo Repository) *CleanupService {
	return &CleanupService{repo: repo}
}

// CleanupOldNotifications removes read notifications older than daysToKeep.
func (c *CleanupService) CleanupOldNotifications(ctx context.Context, daysToKeep int) (int64, error) {
	if daysToKeep < 1 {
		return 0, fmt.Errorf("retention must be at least 1 day, got %d", daysToKeep)
	}
	startTime := time.Now()

	deleted, err := c.repo.DeleteReadOlderThan(ctx, time.Duration(daysToKeep)*24*time.Hour)
	if err != nil {
		log.Printf("notification cleanup failed: %v", err)
		return 0, err
	}

	log.Printf("notification cleanup completed: deleted=%d retention_days=%d duration=%v", deleted, daysToKeep, time.Since(startTime))
	return deleted, nil
}
