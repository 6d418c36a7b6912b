package jobs

import (
	"context"
	"sort"
	"time"

	"loyaltystay/cache"
	"loyaltystay/clock"
	"loyaltystay/models"
	"loyaltystay/services/logger"

	"github.com/robfig/cron/v3"
)

type AvailabilitySyncer interface {
	SyncAvailabilityBlock(ctx context.Context, companyID uint, key string) (map[string]models.AvailabilityBlock, error)
	GetAvailabilityRefreshKeys(ctx context.Context, companyID uint) ([]string, error)
}

type RateSyncer interface {
	SyncRates(ctx context.Context, companyID, destinationID uint) ([]models.Rate, error)
}

type CompanyLister interface {
	ListActive(ctx context.Context) ([]models.Company, error)
}

type DestinationLister interface {
	ListDestinations(ctx context.Context, companyID uint) ([]models.Destination, error)
}

type SchedulerOptions struct {
	Availability AvailabilitySyncer
	Rates        RateSyncer
	Companies    CompanyLister
	Catalog      DestinationLister
	Clock        clock.Clock
	Logger       logger.Logger
	// MonthsAhead is how many months after the current one are kept warm
	// even when nothing is cached for them yet.
	MonthsAhead int
	Timeout     time.Duration
}

// Scheduler runs the availability refresh and the rate sync on cron specs.
type Scheduler struct {
	cron *cron.Cron
	opts SchedulerOptions
}

func NewScheduler(opts SchedulerOptions) *Scheduler {
	if opts.Clock == nil {
		opts.Clock = clock.NewSystem()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Minute
	}
	return &Scheduler{cron: cron.New(cron.WithLocation(time.UTC)), opts: opts}
}

// Start registers both jobs and starts the cron loop.
func (s *Scheduler) Start(availabilitySpec, rateSpec string) error {
	if _, err := s.cron.AddFunc(availabilitySpec, s.run("availability refresh", s.RefreshAvailability)); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc(rateSpec, s.run("rate sync", s.SyncRates)); err != nil {
		return err
	}
	s.cron.Start()
	s.opts.Logger.Info("cron jobs started: availability %q, rates %q", availabilitySpec, rateSpec)
	return nil
}

// Stop waits for running jobs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Scheduler) run(name string, job func(ctx context.Context) int) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.opts.Timeout)
		defer cancel()
		start := time.Now()
		n := job(ctx)
		s.opts.Logger.Info("%s finished: %d synced in %s", name, n, time.Since(start))
	}
}

// RefreshAvailability syncs each destination-month once, whether it was
// named by one cached day or thirty. Failures are logged and skipped.
func (s *Scheduler) RefreshAvailability(ctx context.Context) int {
	companies, err := s.opts.Companies.ListActive(ctx)
	if err != nil {
		s.opts.Logger.Error("availability refresh: list companies: %v", err)
		return 0
	}
	synced := 0
	for _, company := range companies {
		for _, key := range s.monthKeys(ctx, company.ID) {
			if ctx.Err() != nil {
				return synced
			}
			if _, err := s.opts.Availability.SyncAvailabilityBlock(ctx, company.ID, key); err != nil {
				s.opts.Logger.Warn("availability refresh %s: %v", key, err)
				continue
			}
			synced++
		}
	}
	return synced
}

// monthKeys returns one key per destination-month to refresh, sorted.
func (s *Scheduler) monthKeys(ctx context.Context, companyID uint) []string {
	months := map[string]string{}
	add := func(k cache.AvailabilityKey) {
		if _, ok := months[k.MonthKey()]; !ok {
			first := time.Date(k.Date.Year(), k.Date.Month(), 1, 0, 0, 0, 0, time.UTC)
			months[k.MonthKey()] = cache.NewAvailabilityKey(k.CompanyID, k.DestinationID, first).String()
		}
	}

	keys, err := s.opts.Availability.GetAvailabilityRefreshKeys(ctx, companyID)
	if err != nil {
		s.opts.Logger.Warn("availability refresh: keys of company %d: %v", companyID, err)
	}
	now := s.opts.Clock.Now()
	thisMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	for _, raw := range keys {
		k, err := cache.ParseAvailabilityKey(raw)
		if err != nil {
			s.opts.Logger.Debug("availability refresh: skipping key %q: %v", raw, err)
			continue
		}
		if k.Date.Before(thisMonth) {
			continue
		}
		add(k)
	}

	destinations, err := s.opts.Catalog.ListDestinations(ctx, companyID)
	if err != nil {
		s.opts.Logger.Warn("availability refresh: destinations of company %d: %v", companyID, err)
	}
	for _, d := range destinations {
		for i := 0; i <= s.opts.MonthsAhead; i++ {
			add(cache.NewAvailabilityKey(companyID, d.ID, thisMonth.AddDate(0, i, 0)))
		}
	}

	out := make([]string, 0, len(months))
	for _, k := range months {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// SyncRates refreshes the rate codes of every destination of every active
// company.
func (s *Scheduler) SyncRates(ctx context.Context) int {
	companies, err := s.opts.Companies.ListActive(ctx)
	if err != nil {
		s.opts.Logger.Error("rate sync: list companies: %v", err)
		return 0
	}
	synced := 0
	for _, company := range companies {
		destinations, err := s.opts.Catalog.ListDestinations(ctx, company.ID)
		if err != nil {
			s.opts.Logger.Warn("rate sync: destinations of company %d: %v", company.ID, err)
			continue
		}
		for _, d := range destinations {
			if _, err := s.opts.Rates.SyncRates(ctx, company.ID, d.ID); err != nil {
				s.opts.Logger.Warn("rate sync company %d destination %d: %v", company.ID, d.ID, err)
				continue
			}
			synced++
		}
	}
	return synced
}
