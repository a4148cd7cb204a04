package pagination

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	// PageSizeParam is the query parameter carrying the page size.
	PageSizeParam = "per_page"

	// DefaultPageSize is used by FetchAll.
	DefaultPageSize = 100

	// MinLimit and MaxLimit bound Request.Limit when ReturnAll is false.
	MinLimit = 1
	MaxLimit = 250
)

var (
	// ErrInvalidLimit is returned for a limit outside [MinLimit, MaxLimit].
	ErrInvalidLimit = fmt.Errorf("limit must be between %d and %d", MinLimit, MaxLimit)

	// ErrPageLimit is returned when Config.MaxPages is set and reached.
	ErrPageLimit = errors.New("page limit reached")
)

var (
	mailPagesFetchedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mail_pages_fetched_total",
		Help: "Total list pages fetched by resource",
	}, []string{"resource"})

	mailRecordsCollectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mail_records_collected_total",
		Help: "Total list entries collected by resource",
	}, []string{"resource"})
)

// Requester is the authenticated JSON request capability the fetcher runs on.
// *client.Client implements it.
type Requester interface {
	Request(ctx context.Context, method, path string, body any, query url.Values) (map[string]any, error)
}

// Config holds fetcher configuration.
type Config struct {
	// PageSize for exhaustive fetches
	PageSize int

	// MaxPages caps exhaustive fetches; 0 means unbounded
	MaxPages int
}

// DefaultConfig returns the default configuration: 100 entries per page, no page cap.
func DefaultConfig() Config {
	return Config{
		PageSize: DefaultPageSize,
		MaxPages: 0,
	}
}

// Request holds the caller's list options.
type Request struct {
	// ReturnAll fetches every page
	ReturnAll bool

	// Limit is the number of entries wanted when ReturnAll is false
	Limit int

	// Simplify emits one record per list entry instead of envelopes
	Simplify bool

	// Filters are resource-specific query parameters
	Filters url.Values

	// Seed is the starting cursor or page, if any
	Seed string
}

// Fetcher runs list requests against one Requester.
type Fetcher struct {
	requester Requester
	config    Config
	logger    zerolog.Logger
}

// NewFetcher creates a new fetcher.
func NewFetcher(requester Requester, config Config) *Fetcher {
	if config.PageSize <= 0 {
		config.PageSize = DefaultPageSize
	}
	if config.MaxPages < 0 {
		config.MaxPages = 0
	}

	return &Fetcher{
		requester: requester,
		config:    config,
		logger:    log.With().Str("component", "pagination").Logger(),
	}
}

// FetchSinglePage issues exactly one GET for res with the filters, the page
// size (paginated resources only, when > 0) and the continuation value if set.
func (f *Fetcher) FetchSinglePage(ctx context.Context, res Resource, filters url.Values, pageSize int, continuation string) (Envelope, error) {
	query := url.Values{}
	for k, v := range filters {
		query[k] = append([]string(nil), v...)
	}

	if res.Paginated() {
		if pageSize > 0 {
			query.Set(PageSizeParam, strconv.Itoa(pageSize))
		}
		if continuation != "" {
			query.Set(res.Style.Param(), continuation)
		}
	}

	env, err := f.requester.Request(ctx, http.MethodGet, res.Path, nil, query)
	if err != nil {
		return nil, err
	}

	mailPagesFetchedTotal.WithLabelValues(res.Name).Inc()
	return env, nil
}

// FetchAll follows the resource's continuation from seed until the server
// reports no further page, and returns every entry in server order.
// A failure on any page discards what was accumulated.
func (f *Fetcher) FetchAll(ctx context.Context, res Resource, filters url.Values, seed string) ([]Record, error) {
	if !res.Paginated() {
		env, err := f.FetchSinglePage(ctx, res, filters, 0, "")
		if err != nil {
			return nil, err
		}
		return f.entries(res, env)
	}

	all := []Record{}
	next := seed
	pages := 0

	for {
		if f.config.MaxPages > 0 && pages >= f.config.MaxPages {
			return nil, fmt.Errorf("%w: %s after %d pages", ErrPageLimit, res.Name, pages)
		}

		env, err := f.FetchSinglePage(ctx, res, filters, f.config.PageSize, next)
		if err != nil {
			return nil, fmt.Errorf("fetch %s page %d: %w", res.Name, pages+1, err)
		}
		pages++

		entries, err := f.entries(res, env)
		if err != nil {
			return nil, err
		}
		all = append(all, entries...)

		tok := res.Style.Extract(env)
		cont, ok := res.Style.Next(tok)

		f.logger.Debug().
			Str("resource", res.Name).
			Int("page", pages).
			Int("entries", len(entries)).
			Bool("more", ok).
			Msg("Fetched page")

		if !ok {
			break
		}
		next = cont
	}

	return all, nil
}

// Collect applies ReturnAll, Limit and Simplify to a list request and returns
// the output records in server order.
func (f *Fetcher) Collect(ctx context.Context, res Resource, req Request) ([]Record, error) {
	if !req.ReturnAll && (req.Limit < MinLimit || req.Limit > MaxLimit) {
		return nil, fmt.Errorf("%w (got %d)", ErrInvalidLimit, req.Limit)
	}

	if !res.Paginated() {
		return f.collectUnpaginated(ctx, res, req)
	}

	if req.ReturnAll {
		all, err := f.FetchAll(ctx, res, req.Filters, req.Seed)
		if err != nil {
			return nil, err
		}
		if req.Simplify {
			return all, nil
		}
		return []Record{synthesizeEnvelope(res.ListField, all)}, nil
	}

	env, err := f.FetchSinglePage(ctx, res, req.Filters, req.Limit, req.Seed)
	if err != nil {
		return nil, err
	}
	if req.Simplify {
		return f.entries(res, env)
	}
	return []Record{env}, nil
}

// collectUnpaginated fetches the whole list once and truncates client-side.
func (f *Fetcher) collectUnpaginated(ctx context.Context, res Resource, req Request) ([]Record, error) {
	env, err := f.FetchSinglePage(ctx, res, req.Filters, 0, "")
	if err != nil {
		return nil, err
	}

	entries, err := f.entries(res, env)
	if err != nil {
		return nil, err
	}

	truncated := !req.ReturnAll && len(entries) > req.Limit
	if truncated {
		entries = entries[:req.Limit]
	}

	switch {
	case req.Simplify:
		return entries, nil
	case truncated:
		return []Record{withList(env, res.ListField, entries)}, nil
	default:
		return []Record{env}, nil
	}
}

func (f *Fetcher) entries(res Resource, env Envelope) ([]Record, error) {
	entries, err := ListEntries(env, res.ListField)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", res.Name, err)
	}
	mailRecordsCollectedTotal.WithLabelValues(res.Name).Add(float64(len(entries)))
	return entries, nil
}
