// services/scheduler.go
package services

import (
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// StartTimeoutScheduler runs the battle-countdown sweep. The job is
// idempotent and re-entrant: a tick that fires late or twice resolves each
// expired battle at most once thanks to the claim flag.
func (s *BattleService) StartTimeoutScheduler(interval time.Duration) {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	sched, _ := gocron.NewScheduler()
	sched.Start()

	_, _ = sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			if n := s.SweepExpiredBattles(time.Now()); n > 0 {
				log.Printf("⌛ Timed out %d expired battle(s)", n)
			}
		}),
	)
}
