// Package apple talks to the apple.com.cn retail endpoints: the pickup
// fulfillment lookup used by every scan, and the address lookup used while
// configuring.
package apple

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"pickupwatch/pkg/logger"
	"pickupwatch/pkg/transport"

	"go.uber.org/zap"
)

const (
	DefaultBaseURL = "https://www.apple.com.cn"

	fulfillmentPath   = "/shop/fulfillment-messages"
	addressLookupPath = "/shop/address-lookup"

	maxBodySize = 4 << 20
)

// browserHeaders make requests look like the store page's own XHR calls.
var browserHeaders = map[string]string{
	"Accept":             "application/json, text/plain, */*",
	"Accept-Language":    "zh-CN,zh;q=0.9,en;q=0.8",
	"Referer":            "https://www.apple.com.cn/store",
	"DNT":                "1",
	"Sec-Ch-Ua":          `"Google Chrome";v="131", "Chromium";v="131", "Not_A Brand";v="24"`,
	"Sec-Ch-Ua-Mobile":   "?0",
	"Sec-Ch-Ua-Platform": `"macOS"`,
	"User-Agent":         "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36",
}

// API is a thin client for the retail JSON endpoints.
type API struct {
	client  *transport.Client
	baseURL string
}

// NewAPI creates an API client against DefaultBaseURL.
func NewAPI(client *transport.Client) *API {
	return &API{client: client, baseURL: DefaultBaseURL}
}

// WithBaseURL points the client at another host, e.g. a test server.
func (a *API) WithBaseURL(baseURL string) *API {
	a.baseURL = baseURL
	return a
}

// FulfillmentMessages fetches pickup availability for query.
func (a *API) FulfillmentMessages(ctx context.Context, query url.Values) (*FulfillmentResponse, error) {
	var resp FulfillmentResponse
	if err := a.getJSON(ctx, fulfillmentPath, query, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Stores lists the stores around location, using part to make the query valid.
func (a *API) Stores(ctx context.Context, location, part string) ([]Store, error) {
	query := url.Values{}
	query.Set("location", location)
	query.Set("parts.0", part)

	resp, err := a.FulfillmentMessages(ctx, query)
	if err != nil {
		return nil, err
	}
	stores, ok := resp.stores()
	if !ok {
		return nil, fmt.Errorf("%w: missing body.content.pickupMessage", ErrDecode)
	}
	return stores, nil
}

// LookupAddress resolves the next address level for the selections in query.
func (a *API) LookupAddress(ctx context.Context, query url.Values) (*AddressLookup, error) {
	var resp addressLookupResponse
	if err := a.getJSON(ctx, addressLookupPath, query, &resp); err != nil {
		return nil, err
	}
	if resp.Body == nil {
		return nil, fmt.Errorf("%w: missing address body", ErrDecode)
	}
	return &AddressLookup{fields: resp.Body}, nil
}

func (a *API) getJSON(ctx context.Context, path string, query url.Values, v interface{}) error {
	requestURL := a.baseURL + path
	if len(query) > 0 {
		requestURL += "?" + query.Encode()
	}

	resp, err := a.client.Do(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
		if err != nil {
			return nil, err
		}
		for name, value := range browserHeaders {
			req.Header.Set(name, value)
		}
		return req, nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRequest, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return fmt.Errorf("%w: read body: %v", ErrRequest, err)
	}

	logger.Debug("Apple store response",
		zap.String("path", path),
		zap.Int("status_code", resp.StatusCode),
		zap.Int("bytes", len(body)))

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %s returned %d", ErrStatus, path, resp.StatusCode)
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return nil
}
