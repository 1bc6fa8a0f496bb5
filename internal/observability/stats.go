package observability

import (
	"sync"
	"sync/atomic"
)

type StatsSnapshot struct {
	SearchesRun       uint64            `json:"searches_run"`
	PagesFetched      uint64            `json:"pages_fetched"`
	JobsFound         uint64            `json:"jobs_found"`
	JobsCreated       uint64            `json:"jobs_created"`
	EmbeddingCalls    uint64            `json:"embedding_calls"`
	ErrorsTotal       uint64            `json:"errors_total"`
	ScrapeSecondsAvg  float64           `json:"scrape_seconds_avg"`
	ErrorsByType      map[string]uint64 `json:"errors_by_type,omitempty"`
	ErrorsByComponent map[string]uint64 `json:"errors_by_component,omitempty"`
}

var (
	searchesRun    uint64
	pagesFetched   uint64
	jobsFound      uint64
	jobsCreated    uint64
	embeddingCalls uint64
	errorsTotal    uint64

	scrapeCount uint64
	scrapeNanos uint64

	statsMu           sync.Mutex
	errorsByType      = map[string]uint64{}
	errorsByComponent = map[string]uint64{}
)

func IncSearchesRun(_ string) {
	atomic.AddUint64(&searchesRun, 1)
}

func IncPagesFetched(_ string) {
	atomic.AddUint64(&pagesFetched, 1)
}

func IncJobsFound(_ string) {
	atomic.AddUint64(&jobsFound, 1)
}

func IncJobsCreated(_ string) {
	atomic.AddUint64(&jobsCreated, 1)
}

func IncEmbeddingCall(_ string) {
	atomic.AddUint64(&embeddingCalls, 1)
}

func ObserveScrapeDuration(_ string, seconds float64) {
	if seconds <= 0 {
		return
	}
	atomic.AddUint64(&scrapeCount, 1)
	atomic.AddUint64(&scrapeNanos, uint64(seconds*1e9))
}

func IncError(errType, component string) {
	if errType == "" {
		errType = "unknown"
	}
	if component == "" {
		component = "unknown"
	}
	atomic.AddUint64(&errorsTotal, 1)
	statsMu.Lock()
	errorsByType[errType]++
	errorsByComponent[component]++
	statsMu.Unlock()
}

func Snapshot() StatsSnapshot {
	statsMu.Lock()
	errorsTypeCopy := copyMap(errorsByType)
	errorsComponentCopy := copyMap(errorsByComponent)
	statsMu.Unlock()

	count := atomic.LoadUint64(&scrapeCount)
	avg := 0.0
	if count > 0 {
		avg = float64(atomic.LoadUint64(&scrapeNanos)) / float64(count) / 1e9
	}

	return StatsSnapshot{
		SearchesRun:       atomic.LoadUint64(&searchesRun),
		PagesFetched:      atomic.LoadUint64(&pagesFetched),
		JobsFound:         atomic.LoadUint64(&jobsFound),
		JobsCreated:       atomic.LoadUint64(&jobsCreated),
		EmbeddingCalls:    atomic.LoadUint64(&embeddingCalls),
		ErrorsTotal:       atomic.LoadUint64(&errorsTotal),
		ScrapeSecondsAvg:  avg,
		ErrorsByType:      errorsTypeCopy,
		ErrorsByComponent: errorsComponentCopy,
	}
}

func copyMap(src map[string]uint64) map[string]uint64 {
	if len(src) == 0 {
		return map[string]uint64{}
	}
	out := make(map[string]uint64, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
