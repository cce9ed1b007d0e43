package jobs

import (
	"log"
	"time"

	"github.com/humpydonkey/patient-appointment-management/internal/storage"
	"github.com/humpydonkey/patient-appointment-management/internal/utils"
)

// CleanupJob periodically purges expired OTP challenges and session rows
type CleanupJob struct {
	store    storage.Store
	interval time.Duration
	stop     chan struct{}
}

// NewCleanupJob creates a new cleanup job
func NewCleanupJob(store storage.Store) *CleanupJob {
	return &CleanupJob{
		store:    store,
		interval: 5 * time.Minute,
		stop:     make(chan struct{}),
	}
}

// Start launches the cleanup loop in a background goroutine
func (j *CleanupJob) Start() {
	go func() {
		ticker := time.NewTicker(j.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				j.runOnce()
			case <-j.stop:
				return
			}
		}
	}()
}

// Stop halts the cleanup loop
func (j *CleanupJob) Stop() {
	close(j.stop)
}

func (j *CleanupJob) runOnce() {
	now := utils.Now()
	if err := j.store.DeleteExpiredOTPs(now); err != nil {
		log.Printf("cleanup: failed to delete expired OTPs: %v", err)
	}
	if err := j.store.DeleteExpiredSessions(now); err != nil {
		log.Printf("cleanup: failed to delete expired sessions: %v", err)
	}
}
