package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// ErrNotConfigured means provider credentials are absent. The affected call
// fails fast; whether that is fatal for a domain or for the whole run is the
// caller's decision.
var ErrNotConfigured = errors.New("search: GOOGLE_API_KEY and SEARCH_ENGINE_ID must be set")

// ProviderError wraps any transport or decoding failure from the upstream
// search index. Callers skip the affected domain and continue.
type ProviderError struct {
	Err error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("search provider: %v", e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// RawResult is one ranked search hit: what the index knew about the page
// before we ever fetched it.
type RawResult struct {
	Title    string
	Link     string
	Snippet  string
	Metatags map[string]string
}

const defaultBaseURL = "https://www.googleapis.com/customsearch/v1"

// maxResults is the provider's per-call ceiling.
const maxResults = 10

// Client queries the Google Custom Search JSON API.
type Client struct {
	httpClient *http.Client
	apiKey     string
	engineID   string
	baseURL    string
}

func NewClient(apiKey, engineID string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		apiKey:     apiKey,
		engineID:   engineID,
		baseURL:    defaultBaseURL,
	}
}

type searchResponse struct {
	Items []struct {
		Title   string `json:"title"`
		Link    string `json:"link"`
		Snippet string `json:"snippet"`
		Pagemap struct {
			Metatags []map[string]string `json:"metatags"`
		} `json:"pagemap"`
	} `json:"items"`
}

// Search issues one query and returns at most ten ranked results. A days
// value above zero restricts results to that many past days via the
// provider's dateRestrict parameter.
func (c *Client) Search(ctx context.Context, query string, days int) ([]RawResult, error) {
	if c.apiKey == "" || c.engineID == "" {
		return nil, ErrNotConfigured
	}

	params := url.Values{}
	params.Set("key", c.apiKey)
	params.Set("cx", c.engineID)
	params.Set("q", query)
	params.Set("num", strconv.Itoa(maxResults))
	if days > 0 {
		params.Set("dateRestrict", "d"+strconv.Itoa(days))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, &ProviderError{Err: err}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &ProviderError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &ProviderError{Err: fmt.Errorf("status %d", resp.StatusCode)}
	}

	var payload searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, &ProviderError{Err: fmt.Errorf("decode failed: %w", err)}
	}

	var results []RawResult
	for _, item := range payload.Items {
		if len(results) >= maxResults {
			break
		}
		r := RawResult{
			Title:    item.Title,
			Link:     item.Link,
			Snippet:  item.Snippet,
			Metatags: map[string]string{},
		}
		if len(item.Pagemap.Metatags) > 0 {
			r.Metatags = item.Pagemap.Metatags[0]
		}
		results = append(results, r)
	}
	return results, nil
}
