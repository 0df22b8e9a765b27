package background

import (
	"context"
	"fmt"
	"log"
	"time"

	"lumi/internal/repositories"

	"github.com/go-co-op/gocron/v2"
)

// JobScheduler runs periodic maintenance: sweeping dead reset tokens and
// long-expired pending invites.
type JobScheduler struct {
	scheduler  gocron.Scheduler
	inviteRepo repositories.InviteRepository
	resetRepo  repositories.ResetTokenRepository
}

func NewJobScheduler(inviteRepo repositories.InviteRepository, resetRepo repositories.ResetTokenRepository) (*JobScheduler, error) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	return &JobScheduler{
		scheduler:  scheduler,
		inviteRepo: inviteRepo,
		resetRepo:  resetRepo,
	}, nil
}

func (js *JobScheduler) Start() error {
	_, err := js.scheduler.NewJob(
		gocron.DurationJob(time.Hour),
		gocron.NewTask(js.sweepExpiredCredentials),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithName("expired-credential-sweep"),
	)
	if err != nil {
		return fmt.Errorf("failed to schedule credential sweep: %w", err)
	}

	js.scheduler.Start()
	log.Println("Background job scheduler started")
	return nil
}

func (js *JobScheduler) Stop() error {
	return js.scheduler.Shutdown()
}

// sweepExpiredCredentials deletes used or expired reset tokens right away.
// Expired pending invites are kept for 30 days first so the registration
// page can still say "expired" instead of "not found".
func (js *JobScheduler) sweepExpiredCredentials() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	now := time.Now()
	if deleted, err := js.resetRepo.DeleteExpired(ctx, now); err != nil {
		log.Printf("Credential sweep: failed to delete dead reset tokens: %v", err)
	} else if deleted > 0 {
		log.Printf("Credential sweep: deleted %d dead reset tokens", deleted)
	}

	if deleted, err := js.inviteRepo.DeleteExpiredPending(ctx, now.AddDate(0, 0, -30)); err != nil {
		log.Printf("Credential sweep: failed to delete stale invites: %v", err)
	} else if deleted > 0 {
		log.Printf("Credential sweep: deleted %d stale invites", deleted)
	}
}
