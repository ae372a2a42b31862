package stats

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/2beens/trackfit/internal/auth"
	"github.com/2beens/trackfit/internal/telemetry/metrics"
	"github.com/2beens/trackfit/internal/telemetry/tracing"
	"github.com/2beens/trackfit/internal/workouts"
	"github.com/2beens/trackfit/pkg"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=stats_test

type entriesRepo interface {
	ListAll(ctx context.Context, userID string) ([]workouts.Entry, error)
}

type Handler struct {
	repo           entriesRepo
	cache          *Cache
	metricsManager *metrics.Manager
	sourceUnit     Unit
	location       *time.Location
	// overridable in tests
	now func() time.Time
}

type NewHandlerParams struct {
	Repo           entriesRepo
	Cache          *Cache
	MetricsManager *metrics.Manager
	// SourceUnit is the unit the body weight is stored in.
	SourceUnit Unit
	Location   *time.Location
	Now        func() time.Time
}

func NewHandler(params NewHandlerParams) *Handler {
	h := &Handler{
		repo:           params.Repo,
		cache:          params.Cache,
		metricsManager: params.MetricsManager,
		sourceUnit:     params.SourceUnit,
		location:       params.Location,
		now:            params.Now,
	}
	if h.sourceUnit == "" {
		h.sourceUnit = UnitKg
	}
	if h.location == nil {
		h.location = time.UTC
	}
	if h.now == nil {
		h.now = time.Now
	}
	return h
}

// HandleGet serves the statistics bundle of the logged user:
//
//	GET /stats?period=30d&unit=lb&weekdays=30days&granularity=week
func (handler *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.stats.get")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	opts, err := handler.parseOptions(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	span.SetAttributes(
		attribute.String("period", string(opts.Period)),
		attribute.String("unit", string(opts.Unit)),
	)

	cacheKey := fmt.Sprintf(
		"%s::%s::%s::%s::%s",
		Today(opts.Now, opts.Location).Format(workouts.DateLayout),
		opts.Period, opts.Unit, opts.WeekdayRange, opts.Granularity,
	)
	var bundleKey []byte
	if handler.cache != nil {
		bundleKey = handler.cache.Key(userID, cacheKey)
		if cached, found := handler.cache.GetKey(bundleKey); found {
			handler.cacheLookup("hit")
			span.SetAttributes(attribute.Bool("cached", true))
			pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, cached)
			return
		}
		handler.cacheLookup("miss")
	}

	entries, err := handler.repo.ListAll(ctx, userID)
	if err != nil {
		log.Errorf("get stats, list entries for user [%s]: %s", userID, err)
		http.Error(w, "failed to get entries", http.StatusInternalServerError)
		return
	}

	start := time.Now()
	bundle := ComputeStatistics(entries, opts)
	if handler.metricsManager != nil {
		handler.metricsManager.HistStatsComputeDuration.Observe(time.Since(start).Seconds())
	}

	bundleJson, err := json.Marshal(bundle)
	if err != nil {
		log.Errorf("marshal stats bundle: %s", err)
		http.Error(w, "failed to marshal response", http.StatusInternalServerError)
		return
	}

	if handler.cache != nil {
		handler.cache.SetKey(bundleKey, bundleJson)
	}

	log.Tracef("stats for user [%s] computed over %d entries", userID, len(entries))
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, bundleJson)
}

func (handler *Handler) parseOptions(r *http.Request) (Options, error) {
	opts := Options{
		Period:       PeriodAll,
		Unit:         handler.sourceUnit,
		SourceUnit:   handler.sourceUnit,
		WeekdayRange: WeekdayRangeMonth,
		Granularity:  GranularityDay,
		Now:          handler.now(),
		Location:     handler.location,
	}

	query := r.URL.Query()
	var err error
	if p := query.Get("period"); p != "" {
		if opts.Period, err = ParsePeriod(p); err != nil {
			return Options{}, err
		}
	}
	if u := query.Get("unit"); u != "" {
		if opts.Unit, err = ParseUnit(u); err != nil {
			return Options{}, err
		}
	}
	if wr := query.Get("weekdays"); wr != "" {
		if opts.WeekdayRange, err = ParseWeekdayRange(wr); err != nil {
			return Options{}, err
		}
	}
	if g := query.Get("granularity"); g != "" {
		if opts.Granularity, err = ParseGranularity(g); err != nil {
			return Options{}, err
		}
	}

	return opts, nil
}

func (handler *Handler) cacheLookup(result string) {
	if handler.metricsManager != nil {
		handler.metricsManager.CounterStatsCache.WithLabelValues(result).Inc()
	}
}
