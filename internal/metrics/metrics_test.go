// Dashfeed - SaaS Metrics Dashboard Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dashfeed

package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	io_prometheus_client "github.com/prometheus/client_model/go"
)

// histogramCount extracts the sample count from a Prometheus histogram.
func histogramCount(t *testing.T, m prometheus.Metric) uint64 {
	t.Helper()
	var pb io_prometheus_client.Metric
	if err := m.Write(&pb); err != nil {
		t.Fatalf("failed to write metric: %v", err)
	}
	return pb.GetHistogram().GetSampleCount()
}

func TestRecordAPIRequest(t *testing.T) {
	hist := APIRequestDuration.WithLabelValues("GET", "/api/v1/widgets/billing/mrr").(prometheus.Metric)
	before := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("GET", "/api/v1/widgets/billing/mrr", "200"))
	observed := histogramCount(t, hist)

	RecordAPIRequest("GET", "/api/v1/widgets/billing/mrr", "200", 25*time.Millisecond)

	after := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("GET", "/api/v1/widgets/billing/mrr", "200"))
	if after-before != 1 {
		t.Errorf("api_requests_total delta = %v, want 1", after-before)
	}
	if got := histogramCount(t, hist) - observed; got != 1 {
		t.Errorf("api_request_duration samples delta = %d, want 1", got)
	}
}

func TestTrackActiveRequest(t *testing.T) {
	before := testutil.ToFloat64(APIActiveRequests)
	TrackActiveRequest(true)
	if got := testutil.ToFloat64(APIActiveRequests); got != before+1 {
		t.Errorf("active requests = %v, want %v", got, before+1)
	}
	TrackActiveRequest(false)
	if got := testutil.ToFloat64(APIActiveRequests); got != before {
		t.Errorf("active requests = %v, want %v", got, before)
	}
}

func TestRecordUpstreamRequest(t *testing.T) {
	tests := []struct {
		name   string
		status int
		label  string
	}{
		{"success", 200, "200"},
		{"rate limited", 429, "429"},
		{"transport failure", 0, "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := UpstreamRequestsTotal.WithLabelValues("crm", "/v1/deals", tt.label)
			before := testutil.ToFloat64(c)
			RecordUpstreamRequest("crm", "/v1/deals", tt.status, time.Second)
			if got := testutil.ToFloat64(c) - before; got != 1 {
				t.Errorf("delta = %v, want 1", got)
			}
		})
	}
}

func TestRecordCacheLookupAndDecision(t *testing.T) {
	hits := testutil.ToFloat64(CacheHits.WithLabelValues("billing"))
	misses := testutil.ToFloat64(CacheMisses.WithLabelValues("billing"))
	stored := testutil.ToFloat64(CacheStores.WithLabelValues("billing", "stored"))
	skipped := testutil.ToFloat64(CacheStores.WithLabelValues("billing", "skipped"))

	RecordCacheLookup("billing", true)
	RecordCacheLookup("billing", false)
	RecordCacheLookup("billing", false)
	RecordCacheDecision("billing", true)
	RecordCacheDecision("billing", false)

	if d := testutil.ToFloat64(CacheHits.WithLabelValues("billing")) - hits; d != 1 {
		t.Errorf("hits delta = %v, want 1", d)
	}
	if d := testutil.ToFloat64(CacheMisses.WithLabelValues("billing")) - misses; d != 2 {
		t.Errorf("misses delta = %v, want 2", d)
	}
	if d := testutil.ToFloat64(CacheStores.WithLabelValues("billing", "stored")) - stored; d != 1 {
		t.Errorf("stored delta = %v, want 1", d)
	}
	if d := testutil.ToFloat64(CacheStores.WithLabelValues("billing", "skipped")) - skipped; d != 1 {
		t.Errorf("skipped delta = %v, want 1", d)
	}
}

func TestRecordRefresh(t *testing.T) {
	ok := testutil.ToFloat64(RefreshRuns.WithLabelValues("billing.mrr", "success"))
	bad := testutil.ToFloat64(RefreshRuns.WithLabelValues("billing.mrr", "failure"))

	RecordRefresh("billing.mrr", nil)
	RecordRefresh("billing.mrr", errors.New("boom"))

	if d := testutil.ToFloat64(RefreshRuns.WithLabelValues("billing.mrr", "success")) - ok; d != 1 {
		t.Errorf("success delta = %v, want 1", d)
	}
	if d := testutil.ToFloat64(RefreshRuns.WithLabelValues("billing.mrr", "failure")) - bad; d != 1 {
		t.Errorf("failure delta = %v, want 1", d)
	}
}

func TestRecordRefreshCycle(t *testing.T) {
	RefreshLastSuccess.Set(0)
	samples := histogramCount(t, RefreshDuration)

	RecordRefreshCycle(time.Second, 2)
	if got := testutil.ToFloat64(RefreshLastSuccess); got != 0 {
		t.Errorf("last success set after failing cycle: %v", got)
	}

	RecordRefreshCycle(time.Second, 0)
	if got := testutil.ToFloat64(RefreshLastSuccess); got == 0 {
		t.Error("last success not set after clean cycle")
	}
	if got := histogramCount(t, RefreshDuration) - samples; got != 2 {
		t.Errorf("refresh duration samples delta = %d, want 2", got)
	}
}

func TestSetAppInfo(t *testing.T) {
	SetAppInfo("test")
	if n := testutil.CollectAndCount(AppInfo); n < 1 {
		t.Errorf("app_info series = %d, want >= 1", n)
	}
}

func TestAppUptime(t *testing.T) {
	if got := testutil.ToFloat64(AppUptime); got < 0 {
		t.Errorf("uptime = %v, want >= 0", got)
	}
}
