// salary/scheduler.go
package salary

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"
)

// Summary is the result of one scheduler run.
type Summary struct {
	Checked  int `json:"checked"`
	Eligible int `json:"eligible"`
	Created  int `json:"created"`
}

// Scheduler creates salary requests for every eligible user on the 1st of
// each calendar month (UTC). It is safe to invoke any number of times per
// day: runs on other days are no-ops, and reruns on the 1st short-circuit
// once requests for the month exist. Races between concurrent runs are
// settled by the store's uniqueness guard.
type Scheduler struct {
	store     Store
	readModel ReadModel
	registry  *Registry
	events    Events
	activity  ActivityLogger
	now       func() time.Time

	// SummaryHook, when set, receives the summary of every run that reached
	// candidate processing.
	SummaryHook func(Summary)
}

// NewScheduler wires a scheduler. A nil now defaults to time.Now.
func NewScheduler(store Store, readModel ReadModel, registry *Registry, events Events, activity ActivityLogger, now func() time.Time) *Scheduler {
	if now == nil {
		now = time.Now
	}
	if events == nil {
		events = NopEvents{}
	}
	if activity == nil {
		activity = NopActivity{}
	}
	return &Scheduler{
		store:     store,
		readModel: readModel,
		registry:  registry,
		events:    events,
		activity:  activity,
		now:       now,
	}
}

// Run blocks, checking once per hour whether the monthly batch is due, until
// the context is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		if _, err := s.RunDailyCheck(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("salary scheduler: %v", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// RunDailyCheck performs a no-op unless today is the 1st of the month (UTC).
// On the 1st it exits early if requests for this month already exist,
// otherwise it processes the month.
func (s *Scheduler) RunDailyCheck(ctx context.Context) (Summary, error) {
	now := s.now().UTC()
	if now.Day() != 1 {
		return Summary{}, nil
	}

	month := MonthKey(now)
	exists, err := s.store.ExistsForMonth(ctx, month)
	if err != nil {
		return Summary{}, err
	}
	if exists {
		log.Printf("salary scheduler: requests for %s already created, skipping", month)
		return Summary{}, nil
	}

	return s.ProcessMonth(ctx)
}

// ProcessMonth enumerates candidates and creates a pending request for every
// eligible one, unconditionally of the calendar day. Duplicate-month
// conflicts are benign: another run or a user pull got there first.
func (s *Scheduler) ProcessMonth(ctx context.Context) (Summary, error) {
	now := s.now().UTC()
	month := MonthKey(now)

	candidates, err := s.readModel.ListCandidates(ctx)
	if err != nil {
		return Summary{}, err
	}

	var summary Summary
	for _, cand := range candidates {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		stats, err := s.readModel.Snapshot(ctx, cand.UserID)
		if err != nil {
			log.Printf("salary scheduler: snapshot for %s failed: %v", cand.UserID.Hex(), err)
			continue
		}
		summary.Checked++

		if !stats.Found || !stats.Active || stats.PayoutAddress == "" {
			continue
		}

		planID, _ := Evaluate(s.registry, stats.ActiveReferrals, stats.CompositeBalance)
		if planID == 0 {
			continue
		}
		summary.Eligible++

		plan, ok := s.registry.Get(planID)
		if !ok {
			continue
		}

		req, err := s.store.Create(ctx, cand.UserID, plan.ID, plan.MonthlyAmount, stats.PayoutAddress, now)
		if err != nil {
			if errors.Is(err, ErrAlreadyExistsThisMonth) {
				continue
			}
			log.Printf("salary scheduler: create for %s failed: %v", cand.UserID.Hex(), err)
			continue
		}
		summary.Created++

		s.events.RequestCreated(ctx, CreatedEvent{
			RequestID:     req.ID,
			UserID:        req.UserID,
			PlanID:        req.PlanID,
			Amount:        req.Amount,
			PayoutAddress: req.PayoutAddress,
			CreatedAt:     req.CreatedAt,
		})
		s.activity.Log(ctx, req.UserID, "automatic_salary_request",
			fmt.Sprintf("Automatic salary request created for %s - %.0f USDT", plan.Name, plan.MonthlyAmount))
	}

	log.Printf("salary scheduler: month %s done: checked=%d eligible=%d created=%d",
		month, summary.Checked, summary.Eligible, summary.Created)

	if s.SummaryHook != nil {
		s.SummaryHook(summary)
	}
	return summary, nil
}
