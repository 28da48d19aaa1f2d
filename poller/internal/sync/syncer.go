package sync

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/crownpoint-data/pos-sync/common/logging"
	"github.com/crownpoint-data/pos-sync/poller/internal/metrics"
	"github.com/crownpoint-data/pos-sync/poller/internal/odata"
)

// Fetcher retrieves one page of raw records per call.
type Fetcher interface {
	FetchPage(ctx context.Context, endpoint odata.Endpoint, targetDate *time.Time, skip int) ([]odata.Record, error)
	PageSize() int
}

// RecordPublisher hands a raw page to the channel and confirms durable hand-off.
type RecordPublisher interface {
	PublishRecords(ctx context.Context, records []odata.Record, endpoint odata.Endpoint, syncID string) error
}

// EndpointResult is the per-endpoint outcome of a sync run.
type EndpointResult struct {
	Status           string `json:"status"`
	RecordsPublished int    `json:"records_published"`
	Message          string `json:"message,omitempty"`
}

// Statuses for EndpointResult.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Syncer walks the date range x pagination loop for each endpoint and hands
// pages to the publisher. One instance serves the whole process.
type Syncer struct {
	endpoints odata.Endpoints
	fetcher   Fetcher
	publisher RecordPublisher
	zone      *time.Location
	log       *logging.Logger
	now       func() time.Time
}

// NewSyncer wires the orchestrator. zone is the business-local time zone the
// vendor partitions business dates in.
func NewSyncer(endpoints odata.Endpoints, fetcher Fetcher, publisher RecordPublisher, zone *time.Location, log *logging.Logger) *Syncer {
	if log == nil {
		log = logging.Default()
	}
	if zone == nil {
		zone = time.UTC
	}
	return &Syncer{
		endpoints: endpoints,
		fetcher:   fetcher,
		publisher: publisher,
		zone:      zone,
		log:       log,
		now:       time.Now,
	}
}

// KnownEndpoints returns the configured endpoint names, sorted.
func (s *Syncer) KnownEndpoints() []string {
	return s.endpoints.Names()
}

// FilterEndpoints splits requested names into configured and unknown ones,
// both sorted. Unknown names are the caller's to warn about; they never fail
// a request.
func (s *Syncer) FilterEndpoints(requested []string) (valid, invalid []string) {
	seen := make(map[string]bool, len(requested))
	for _, name := range requested {
		if seen[name] {
			continue
		}
		seen[name] = true
		if _, ok := s.endpoints[name]; ok {
			valid = append(valid, name)
		} else {
			invalid = append(invalid, name)
		}
	}
	sort.Strings(valid)
	sort.Strings(invalid)
	return valid, invalid
}

// SyncEndpoint runs one endpoint's full sync for the look-back window and
// returns the number of records durably published.
//
// Failure containment: a page fetch or publish error aborts pagination for the
// current date only; remaining dates still run. The error budget for transient
// transport failures lives below, in the fetcher's retrying transport.
func (s *Syncer) SyncEndpoint(ctx context.Context, name string, daysBack int) (int, error) {
	endpoint, ok := s.endpoints[name]
	if !ok {
		return 0, fmt.Errorf("no configuration for endpoint %q", name)
	}

	syncID := fmt.Sprintf("%s_%s", name, s.now().UTC().Format("20060102_150405"))
	log := s.log.With("sync_id", syncID, "endpoint", name)
	log.Info("starting sync", "days_back", daysBack)

	dates := s.dateRange(endpoint, daysBack)
	pageSize := s.fetcher.PageSize()
	total := 0

	for _, targetDate := range dates {
		if targetDate != nil {
			log.Info("processing date", "date", targetDate.Format("2006-01-02"), "zone", s.zone.String())
		}

		skip := 0
		for {
			records, err := s.fetcher.FetchPage(ctx, endpoint, targetDate, skip)
			if err != nil {
				// Stop this date, keep going with the rest of the range.
				metrics.PageFailures.WithLabelValues(name).Inc()
				log.Error("failed to fetch page", "skip", skip, "error", err)
				break
			}
			metrics.PagesFetched.WithLabelValues(name).Inc()

			if len(records) == 0 {
				break
			}

			if err := s.publisher.PublishRecords(ctx, records, endpoint, syncID); err != nil {
				// Same containment as a fetch failure.
				metrics.PublishFailures.WithLabelValues(name).Inc()
				log.Error("failed to publish page", "skip", skip, "error", err)
				break
			}

			total += len(records)
			skip += pageSize
			if len(records) < pageSize {
				// A short page signals end-of-data for this date.
				break
			}
		}
	}

	log.Info("completed sync", "total_records", total)
	return total, nil
}

// Run syncs each named endpoint sequentially and in isolation: one endpoint's
// failure never aborts its siblings. It returns per-endpoint results plus the
// number of failed endpoints.
func (s *Syncer) Run(ctx context.Context, names []string, daysBack int) (map[string]EndpointResult, int) {
	results := make(map[string]EndpointResult, len(names))
	failed := 0

	for _, name := range names {
		count, err := s.SyncEndpoint(ctx, name, daysBack)
		if err != nil {
			s.log.Error("sync failed for endpoint", "endpoint", name, "error", err)
			results[name] = EndpointResult{Status: StatusError, Message: err.Error()}
			metrics.SyncRuns.WithLabelValues(name, StatusError).Inc()
			failed++
			continue
		}
		s.log.Info("endpoint synced", "endpoint", name, "records_published", count)
		results[name] = EndpointResult{Status: StatusSuccess, RecordsPublished: count}
		metrics.SyncRuns.WithLabelValues(name, StatusSuccess).Inc()
	}
	return results, failed
}

// dateRange returns the closed set of business-local days {today ..
// today-daysBack}, or a single nil entry for unpartitioned endpoints.
func (s *Syncer) dateRange(endpoint odata.Endpoint, daysBack int) []*time.Time {
	if endpoint.DateField == "" {
		return []*time.Time{nil}
	}

	end := s.now().In(s.zone)
	dates := make([]*time.Time, 0, daysBack+1)
	for i := 0; i <= daysBack; i++ {
		d := end.AddDate(0, 0, -i)
		dates = append(dates, &d)
	}
	return dates
}
