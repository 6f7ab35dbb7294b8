package metrics

import (
	"encoding/json"
	"maps"
	"math"
	"net/http"
	"slices"
	"time"

	dto "github.com/prometheus/client_model/go"
)

// Summary is the JSON digest served at /metrics/summary.
type Summary struct {
	HTTP        httpSummary                 `json:"http"`
	Auth        authInfo                    `json:"auth"`
	RateLimit   rateLimitInfo               `json:"rateLimit"`
	Errors      map[string]float64          `json:"errors"`
	MoodEntries moodInfo                    `json:"moodEntries"`
	Integrity   map[string]integrityOutcome `json:"integrity"`
	DB          dbInfo                      `json:"db"`
	Server      serverInfo                  `json:"server"`
}

type httpSummary struct {
	TotalRequests float64 `json:"totalRequests"`
	ErrorRate     float64 `json:"errorRate"`
	P50Latency    float64 `json:"p50Latency"`
	P95Latency    float64 `json:"p95Latency"`
	P99Latency    float64 `json:"p99Latency"`
}

type authInfo struct {
	Failures  float64            `json:"failures"`
	Successes float64            `json:"successes"`
	ByReason  map[string]float64 `json:"byReason"`
}

type rateLimitInfo struct {
	Rejections float64 `json:"rejections"`
}

type moodInfo struct {
	Created float64 `json:"created"`
}

type integrityOutcome struct {
	OK     float64 `json:"ok"`
	Failed float64 `json:"failed"`
}

type dbInfo struct {
	TotalConns    float64 `json:"totalConns"`
	IdleConns     float64 `json:"idleConns"`
	AcquiredConns float64 `json:"acquiredConns"`
	MaxConns      float64 `json:"maxConns"`
}

type serverInfo struct {
	StartTime     float64 `json:"startTime"`
	UptimeSeconds float64 `json:"uptimeSeconds"`
}

// Handler returns an http.HandlerFunc that serves the live summary as JSON.
func (m *Metrics) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		summary, err := m.Summarize()
		if err != nil {
			http.Error(w, "failed to gather metrics", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-cache, no-store")
		_ = json.NewEncoder(w).Encode(summary)
	}
}

// Summarize gathers the registry into a Summary.
func (m *Metrics) Summarize() (*Summary, error) {
	families, err := m.registry.Gather()
	if err != nil {
		return nil, err
	}

	fam := make(map[string]*dto.MetricFamily, len(families))
	for _, f := range families {
		fam[f.GetName()] = f
	}

	requests := fam["pulse_http_requests_total"]
	latency := fam["pulse_http_request_duration_seconds"]
	start := gaugeValue(fam["pulse_server_start_time_seconds"])

	s := &Summary{
		HTTP: httpSummary{
			TotalRequests: sumCounter(requests),
			ErrorRate:     errorRate(requests),
			P50Latency:    histogramPercentile(latency, 0.50),
			P95Latency:    histogramPercentile(latency, 0.95),
			P99Latency:    histogramPercentile(latency, 0.99),
		},
		Auth: authInfo{
			Failures:  sumCounter(fam["pulse_auth_failures_total"]),
			Successes: sumCounter(fam["pulse_auth_successes_total"]),
			ByReason:  countersByLabel(fam["pulse_auth_failures_total"], "reason"),
		},
		RateLimit: rateLimitInfo{
			Rejections: sumCounter(fam["pulse_ratelimit_rejections_total"]),
		},
		Errors: countersByLabel(fam["pulse_app_errors_total"], "kind"),
		MoodEntries: moodInfo{
			Created: sumCounter(fam["pulse_mood_entries_created_total"]),
		},
		Integrity: integrityOutcomes(fam["pulse_integrity_operations_total"]),
		DB: dbInfo{
			TotalConns:    gaugeValue(fam["pulse_db_pool_total_conns"]),
			IdleConns:     gaugeValue(fam["pulse_db_pool_idle_conns"]),
			AcquiredConns: gaugeValue(fam["pulse_db_pool_acquired_conns"]),
			MaxConns:      gaugeValue(fam["pulse_db_pool_max_conns"]),
		},
		Server: serverInfo{
			StartTime:     start,
			UptimeSeconds: float64(time.Now().Unix()) - start,
		},
	}
	return s, nil
}

func labelValue(m *dto.Metric, name string) string {
	for _, lp := range m.GetLabel() {
		if lp.GetName() == name {
			return lp.GetValue()
		}
	}
	return ""
}

func sumCounter(f *dto.MetricFamily) float64 {
	if f == nil {
		return 0
	}
	var total float64
	for _, m := range f.GetMetric() {
		total += m.GetCounter().GetValue()
	}
	return total
}

func countersByLabel(f *dto.MetricFamily, label string) map[string]float64 {
	out := map[string]float64{}
	if f == nil {
		return out
	}
	for _, m := range f.GetMetric() {
		out[labelValue(m, label)] += m.GetCounter().GetValue()
	}
	return out
}

func integrityOutcomes(f *dto.MetricFamily) map[string]integrityOutcome {
	out := map[string]integrityOutcome{}
	if f == nil {
		return out
	}
	for _, m := range f.GetMetric() {
		op := labelValue(m, "op")
		o := out[op]
		if labelValue(m, "outcome") == "ok" {
			o.OK += m.GetCounter().GetValue()
		} else {
			o.Failed += m.GetCounter().GetValue()
		}
		out[op] = o
	}
	return out
}

func gaugeValue(f *dto.MetricFamily) float64 {
	if f == nil || len(f.GetMetric()) == 0 {
		return 0
	}
	return f.GetMetric()[0].GetGauge().GetValue()
}

// errorRate is the share of requests answered with a 4xx or 5xx status.
func errorRate(f *dto.MetricFamily) float64 {
	if f == nil {
		return 0
	}
	var total, errors float64
	for _, m := range f.GetMetric() {
		v := m.GetCounter().GetValue()
		total += v
		if code := labelValue(m, "status_code"); len(code) > 0 && code[0] >= '4' {
			errors += v
		}
	}
	if total == 0 {
		return 0
	}
	return errors / total
}

// histogramPercentile estimates quantile q of a histogram family, merging
// the buckets of every label set and interpolating linearly inside the bucket
// that holds the rank. Samples above the last finite bound report that bound.
func histogramPercentile(f *dto.MetricFamily, q float64) float64 {
	if f == nil {
		return 0
	}

	var samples uint64
	cumulative := map[float64]uint64{}
	for _, m := range f.GetMetric() {
		h := m.GetHistogram()
		if h == nil {
			continue
		}
		samples += h.GetSampleCount()
		for _, b := range h.GetBucket() {
			if !math.IsInf(b.GetUpperBound(), 1) {
				cumulative[b.GetUpperBound()] += b.GetCumulativeCount()
			}
		}
	}
	if samples == 0 || len(cumulative) == 0 {
		return 0
	}

	bounds := slices.Sorted(maps.Keys(cumulative))
	rank := q * float64(samples)
	lower, below := 0.0, uint64(0)
	for _, upper := range bounds {
		seen := cumulative[upper]
		if float64(seen) < rank {
			lower, below = upper, seen
			continue
		}
		inBucket := seen - below
		if inBucket == 0 {
			return upper
		}
		return lower + (upper-lower)*(rank-float64(below))/float64(inBucket)
	}
	return bounds[len(bounds)-1]
}
