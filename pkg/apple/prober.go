package apple

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"pickupwatch/pkg/config"
)

// DisplayUnavailable is the pickupDisplay value of a part that cannot be picked up.
const DisplayUnavailable = "unavailable"

// AvailabilityResult is the pickup status of one part at one store.
type AvailabilityResult struct {
	StoreName     string
	StoreNumber   string
	PartNumber    string
	ProductTitle  string
	PickupQuote   string
	PickupDisplay string
	Available     bool
}

// ProbeReport is the outcome of one successful probe.
type ProbeReport struct {
	// Results are grouped by store in response order, parts in query order.
	Results []AvailabilityResult
	// Excluded lists the configured-out stores the response contained.
	Excluded []Store
}

// Hits returns the available entries of the report.
func (r *ProbeReport) Hits() []AvailabilityResult {
	if r == nil {
		return nil
	}
	return Hits(r.Results)
}

// Hits filters results down to the available entries, keeping order.
func Hits(results []AvailabilityResult) []AvailabilityResult {
	var hits []AvailabilityResult
	for _, r := range results {
		if r.Available {
			hits = append(hits, r)
		}
	}
	return hits
}

// IsAvailable classifies one part. Anything other than an explicit
// "unavailable" display counts, as does the pickup-today quote.
func IsAvailable(quote, display, pickupTodayQuote string) bool {
	return quote == pickupTodayQuote || display != DisplayUnavailable
}

// Prober queries pickup availability for a fixed product selection and location.
type Prober struct {
	api      *API
	location string
	parts    []string
	products config.ProductSelection
	excluded map[string]struct{}
	sentinel string
	now      func() time.Time
}

// NewProber creates a prober for cfg's products, area and exclusions.
func NewProber(cfg *config.MonitorConfig, api *API) *Prober {
	excluded := make(map[string]struct{}, len(cfg.ExcludeStores))
	for _, s := range cfg.ExcludeStores {
		excluded[s] = struct{}{}
	}

	sentinel := cfg.PickupTodayQuote
	if sentinel == "" {
		sentinel = config.DefaultPickupTodayQuote
	}

	return &Prober{
		api:      api,
		location: cfg.SelectedArea,
		parts:    cfg.SelectedProducts.PartNumbers(),
		products: cfg.SelectedProducts,
		excluded: excluded,
		sentinel: sentinel,
		now:      time.Now,
	}
}

// Query returns the fixed part of the lookup query.
func (p *Prober) Query() url.Values {
	query := url.Values{}
	query.Set("location", p.location)
	query.Set("mt", "regular")
	for i, part := range p.parts {
		query.Set("parts."+strconv.Itoa(i), part)
	}
	return query
}

// Probe runs one availability lookup. On error no partial results are returned.
func (p *Prober) Probe(ctx context.Context) (*ProbeReport, error) {
	query := p.Query()
	query.Set("_", strconv.FormatInt(p.now().UnixMilli(), 10))

	resp, err := p.api.FulfillmentMessages(ctx, query)
	if err != nil {
		return nil, err
	}

	stores, ok := resp.stores()
	if !ok {
		return nil, fmt.Errorf("%w: missing body.content.pickupMessage", ErrDecode)
	}

	report := &ProbeReport{}
	for _, store := range stores {
		if _, skip := p.excluded[store.StoreNumber]; skip {
			report.Excluded = append(report.Excluded, store)
			continue
		}
		for _, part := range p.parts {
			pa := store.PartsAvailability[part]
			if pa == nil {
				return nil, fmt.Errorf("%w: store %s (%s) part %s", ErrMissingPart, store.StoreName, store.StoreNumber, part)
			}

			title := pa.StorePickupProductTitle
			if title == "" {
				title = p.products[part].Title
			}
			report.Results = append(report.Results, AvailabilityResult{
				StoreName:     store.StoreName,
				StoreNumber:   store.StoreNumber,
				PartNumber:    part,
				ProductTitle:  title,
				PickupQuote:   pa.PickupSearchQuote,
				PickupDisplay: pa.PickupDisplay,
				Available:     IsAvailable(pa.PickupSearchQuote, pa.PickupDisplay, p.sentinel),
			})
		}
	}
	return report, nil
}
