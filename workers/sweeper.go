// workers/sweeper.go
package workers

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/gofiber/fiber/v2/log"
)

// GameSweeper ends games whose pending player ran out of time.
type GameSweeper interface {
	SweepTimeouts(ctx context.Context) (int, error)
}

// TicketSweeper drops tickets nobody polled within the lease.
type TicketSweeper interface {
	ExpireTickets(ctx context.Context) (int64, error)
}

type Sweeper struct {
	sched   gocron.Scheduler
	games   GameSweeper
	tickets TicketSweeper
}

func NewSweeper(games GameSweeper, tickets TicketSweeper) (*Sweeper, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}
	return &Sweeper{sched: sched, games: games, tickets: tickets}, nil
}

// Start registers both jobs on interval and runs them until ctx ends.
func (s *Sweeper) Start(ctx context.Context, interval time.Duration) error {
	jobs := []struct {
		name string
		run  func()
	}{
		{"game-timeouts", func() { s.sweepGames(ctx) }},
		{"ticket-expiry", func() { s.sweepTickets(ctx) }},
	}
	for _, j := range jobs {
		_, err := s.sched.NewJob(
			gocron.DurationJob(interval),
			gocron.NewTask(j.run),
			gocron.WithName(j.name),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
		)
		if err != nil {
			return fmt.Errorf("schedule %s: %w", j.name, err)
		}
	}
	s.sched.Start()

	go func() {
		<-ctx.Done()
		if err := s.sched.Shutdown(); err != nil {
			log.Warnf("[Sweeper] shutdown: %v", err)
		}
	}()
	return nil
}

func (s *Sweeper) sweepGames(ctx context.Context) {
	n, err := s.games.SweepTimeouts(ctx)
	if err != nil {
		log.Errorf("[Sweeper] game timeouts: %v", err)
		return
	}
	if n > 0 {
		log.Infof("[Sweeper] timed out %d game(s)", n)
	}
}

func (s *Sweeper) sweepTickets(ctx context.Context) {
	n, err := s.tickets.ExpireTickets(ctx)
	if err != nil {
		log.Errorf("[Sweeper] ticket expiry: %v", err)
		return
	}
	if n > 0 {
		log.Infof("[Sweeper] expired %d ticket(s)", n)
	}
}
