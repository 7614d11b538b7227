package apple

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"pickupwatch/pkg/config"
	"pickupwatch/pkg/transport"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pickupToday = config.DefaultPickupTodayQuote

func newTestAPI(t *testing.T, handler http.HandlerFunc) *API {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := transport.New(transport.Options{Timeout: 2 * time.Second})
	require.NoError(t, err)
	return NewAPI(client).WithBaseURL(srv.URL)
}

func testConfig() *config.MonitorConfig {
	cfg := config.NewMonitorConfig()
	cfg.SelectedArea = "广东 深圳 南山区"
	cfg.SelectedProducts = config.ProductSelection{
		"MLTE3CH/A": {Classification: "iPhone 13 Pro", Title: "iPhone 13 Pro 256GB 远峰蓝色"},
		"MLT83CH/A": {Classification: "iPhone 13 Pro", Title: "iPhone 13 Pro 128GB 石墨色"},
	}
	return cfg
}

type part struct {
	quote, display, title string
}

func storeJSON(name, number string, parts map[string]part) map[string]interface{} {
	pa := map[string]interface{}{}
	for code, p := range parts {
		pa[code] = map[string]string{
			"pickupSearchQuote":       p.quote,
			"pickupDisplay":           p.display,
			"storePickupProductTitle": p.title,
		}
	}
	return map[string]interface{}{
		"storeName":         name,
		"storeNumber":       number,
		"partsAvailability": pa,
		"retailStore": map[string]interface{}{
			"address": map[string]string{"street": name + " street"},
		},
	}
}

func writeStores(w http.ResponseWriter, stores ...map[string]interface{}) {
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"head": map[string]string{"status": "200"},
		"body": map[string]interface{}{
			"content": map[string]interface{}{
				"pickupMessage": map[string]interface{}{"stores": stores},
			},
		},
	})
}

func TestIsAvailable(t *testing.T) {
	tests := []struct {
		quote, display string
		want           bool
	}{
		{pickupToday, "available", true},
		{pickupToday, DisplayUnavailable, true},
		{"暂无供应", "available", true},
		{"暂无供应", "ineligible", true},
		{"", "", true},
		{"暂无供应", DisplayUnavailable, false},
		{"今天可取貨", DisplayUnavailable, false},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s/%s", tt.quote, tt.display), func(t *testing.T) {
			assert.Equal(t, tt.want, IsAvailable(tt.quote, tt.display, pickupToday))
		})
	}
}

func TestProbeQuery(t *testing.T) {
	var got url.Values
	var userAgent string
	api := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, fulfillmentPath, r.URL.Path)
		got = r.URL.Query()
		userAgent = r.Header.Get("User-Agent")
		writeStores(w)
	})

	p := NewProber(testConfig(), api)
	p.now = func() time.Time { return time.UnixMilli(1634625600123) }

	report, err := p.Probe(context.Background())
	require.NoError(t, err)
	assert.Empty(t, report.Results)

	assert.Equal(t, "广东 深圳 南山区", got.Get("location"))
	assert.Equal(t, "regular", got.Get("mt"))
	assert.Equal(t, "MLT83CH/A", got.Get("parts.0"))
	assert.Equal(t, "MLTE3CH/A", got.Get("parts.1"))
	assert.Equal(t, "1634625600123", got.Get("_"))
	assert.Contains(t, userAgent, "Mozilla/5.0")
}

func TestProbeCacheBusterChangesEveryCall(t *testing.T) {
	var stamps []string
	api := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		stamps = append(stamps, r.URL.Query().Get("_"))
		writeStores(w)
	})

	p := NewProber(testConfig(), api)
	ms := int64(1000)
	p.now = func() time.Time { ms++; return time.UnixMilli(ms) }

	for i := 0; i < 3; i++ {
		_, err := p.Probe(context.Background())
		require.NoError(t, err)
	}
	assert.Equal(t, []string{"1001", "1002", "1003"}, stamps)
}

func TestProbeResults(t *testing.T) {
	api := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		writeStores(w,
			storeJSON("Apple 深圳益田假日广场", "R577", map[string]part{
				"MLT83CH/A": {"暂无供应", DisplayUnavailable, "iPhone 13 Pro 128GB 石墨色"},
				"MLTE3CH/A": {pickupToday, "available", "iPhone 13 Pro 256GB 远峰蓝色"},
			}),
			storeJSON("Apple 深圳万象城", "R484", map[string]part{
				"MLT83CH/A": {"暂无供应", DisplayUnavailable, ""},
				"MLTE3CH/A": {"暂无供应", DisplayUnavailable, "iPhone 13 Pro 256GB 远峰蓝色"},
			}),
		)
	})

	report, err := NewProber(testConfig(), api).Probe(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Results, 4)

	assert.Equal(t, AvailabilityResult{
		StoreName:     "Apple 深圳益田假日广场",
		StoreNumber:   "R577",
		PartNumber:    "MLTE3CH/A",
		ProductTitle:  "iPhone 13 Pro 256GB 远峰蓝色",
		PickupQuote:   pickupToday,
		PickupDisplay: "available",
		Available:     true,
	}, report.Results[1])

	// empty product title falls back to the configured one
	assert.Equal(t, "iPhone 13 Pro 128GB 石墨色", report.Results[2].ProductTitle)

	hits := report.Hits()
	require.Len(t, hits, 1)
	assert.Equal(t, "R577", hits[0].StoreNumber)
}

func TestProbeNeverReportsExcludedStores(t *testing.T) {
	statuses := []part{
		{pickupToday, "available", "t"},
		{pickupToday, DisplayUnavailable, "t"},
		{"暂无供应", "available", "t"},
		{"暂无供应", DisplayUnavailable, "t"},
	}

	for i, a := range statuses {
		for j, b := range statuses {
			t.Run(fmt.Sprintf("%d-%d", i, j), func(t *testing.T) {
				api := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
					writeStores(w,
						storeJSON("Excluded", "R001", map[string]part{"MLT83CH/A": a, "MLTE3CH/A": b}),
						storeJSON("Kept", "R002", map[string]part{"MLT83CH/A": b, "MLTE3CH/A": a}),
					)
				})

				cfg := testConfig()
				cfg.ExcludeStores = []string{"R001"}
				report, err := NewProber(cfg, api).Probe(context.Background())
				require.NoError(t, err)

				for _, hit := range report.Hits() {
					assert.NotEqual(t, "R001", hit.StoreNumber)
				}
				for _, r := range report.Results {
					assert.Equal(t, "R002", r.StoreNumber)
				}
				require.Len(t, report.Excluded, 1)
				assert.Equal(t, "Excluded", report.Excluded[0].StoreName)
			})
		}
	}
}

func TestProbeErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		wantErr error
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusServiceUnavailable)
			},
			wantErr: ErrStatus,
		},
		{
			name: "rate limited",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(541)
			},
			wantErr: ErrStatus,
		},
		{
			name: "malformed json",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`<html>blocked</html>`))
			},
			wantErr: ErrDecode,
		},
		{
			name: "missing pickup message",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"head":{"status":"200"},"body":{"content":{}}}`))
			},
			wantErr: ErrDecode,
		},
		{
			name: "store missing a part",
			handler: func(w http.ResponseWriter, r *http.Request) {
				writeStores(w,
					storeJSON("Full", "R001", map[string]part{
						"MLT83CH/A": {pickupToday, "available", "t"},
						"MLTE3CH/A": {pickupToday, "available", "t"},
					}),
					storeJSON("Partial", "R002", map[string]part{
						"MLT83CH/A": {pickupToday, "available", "t"},
					}),
				)
			},
			wantErr: ErrMissingPart,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newTestAPI(t, tt.handler)
			report, err := NewProber(testConfig(), api).Probe(context.Background())
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, report)
		})
	}
}

func TestProbeMissingPartInExcludedStoreIsIgnored(t *testing.T) {
	api := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		writeStores(w, storeJSON("Partial", "R002", map[string]part{}))
	})

	cfg := testConfig()
	cfg.ExcludeStores = []string{"R002"}
	report, err := NewProber(cfg, api).Probe(context.Background())
	require.NoError(t, err)
	assert.Empty(t, report.Results)
}

func TestProbeRequestError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	client, err := transport.New(transport.Options{Timeout: time.Second})
	require.NoError(t, err)

	report, err := NewProber(testConfig(), NewAPI(client).WithBaseURL(base)).Probe(context.Background())
	assert.ErrorIs(t, err, ErrRequest)
	assert.Nil(t, report)
}

func TestProberCustomPickupQuote(t *testing.T) {
	api := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		writeStores(w, storeJSON("HK", "R409", map[string]part{
			"MLT83CH/A": {"今天可取貨", DisplayUnavailable, "t"},
			"MLTE3CH/A": {"暂无供应", DisplayUnavailable, "t"},
		}))
	})

	cfg := testConfig()
	cfg.PickupTodayQuote = "今天可取貨"
	report, err := NewProber(cfg, api).Probe(context.Background())
	require.NoError(t, err)

	hits := report.Hits()
	require.Len(t, hits, 1)
	assert.Equal(t, "MLT83CH/A", hits[0].PartNumber)
}
