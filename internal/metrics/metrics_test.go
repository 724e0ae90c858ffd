package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// TestNewCollector_ReturnsNonNil はCollectorが正常に生成されることを検証する。
func TestNewCollector_ReturnsNonNil(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	if c == nil {
		t.Fatal("expected non-nil Collector")
	}
}

// counterValue は指定名のカウンタ値をレジストリから取得する。
func counterValue(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()

	metrics, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}
	for _, mf := range metrics {
		if mf.GetName() == name {
			return mf.GetMetric()[0].GetCounter().GetValue()
		}
	}
	t.Fatalf("%s metric not found", name)
	return 0
}

// TestRecordSessionRecorded_IncrementsCounter はセッション記録カウンタが増加することを検証する。
func TestRecordSessionRecorded_IncrementsCounter(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordSessionRecorded("book-1")
	c.RecordSessionRecorded("book-1")

	if val := counterValue(t, reg, "bookshelf_sessions_recorded_total"); val != 2 {
		t.Errorf("sessions_recorded_total = %v, want 2", val)
	}
}

// TestRecordBookCompleted_IncrementsCounter は読了到達カウンタが増加することを検証する。
func TestRecordBookCompleted_IncrementsCounter(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordBookCompleted("book-2")

	if val := counterValue(t, reg, "bookshelf_books_completed_total"); val != 1 {
		t.Errorf("books_completed_total = %v, want 1", val)
	}
}

// TestRecordGoalAchieved_IncrementsCounter は目標達成カウンタが増加することを検証する。
func TestRecordGoalAchieved_IncrementsCounter(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordGoalAchieved(2025)

	if val := counterValue(t, reg, "bookshelf_goals_achieved_total"); val != 1 {
		t.Errorf("goals_achieved_total = %v, want 1", val)
	}
}

// TestRecordCoverFetch_IncrementsCounters はカバー取得成功・失敗カウンタが独立に増加することを検証する。
func TestRecordCoverFetch_IncrementsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordCoverFetchSuccess()
	c.RecordCoverFetchSuccess()
	c.RecordCoverFetchFailure()

	if val := counterValue(t, reg, "bookshelf_cover_fetch_success_total"); val != 2 {
		t.Errorf("cover_fetch_success_total = %v, want 2", val)
	}
	if val := counterValue(t, reg, "bookshelf_cover_fetch_fail_total"); val != 1 {
		t.Errorf("cover_fetch_fail_total = %v, want 1", val)
	}
}

// TestRecordSessionLatency_ObservesHistogram はレイテンシのヒストグラムに値が記録されることを検証する。
func TestRecordSessionLatency_ObservesHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordSessionLatency(100 * time.Millisecond)
	c.RecordSessionLatency(2 * time.Second)

	metrics, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	found := false
	for _, mf := range metrics {
		if mf.GetName() == "bookshelf_session_record_latency_seconds" {
			found = true
			h := mf.GetMetric()[0].GetHistogram()
			if h.GetSampleCount() != 2 {
				t.Errorf("sample_count = %d, want 2", h.GetSampleCount())
			}
			// 合計は0.1 + 2.0 = 2.1秒
			if h.GetSampleSum() < 2.0 || h.GetSampleSum() > 2.2 {
				t.Errorf("sample_sum = %v, want ~2.1", h.GetSampleSum())
			}
		}
	}
	if !found {
		t.Error("bookshelf_session_record_latency_seconds metric not found")
	}
}

// TestMetricsHandler_ReturnsPrometheusFormat は/metricsエンドポイントがPrometheus形式で返すことを検証する。
func TestMetricsHandler_ReturnsPrometheusFormat(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	// いくつかのメトリクスを記録
	c.RecordSessionRecorded("book-test")
	c.RecordBookCompleted("book-test")
	c.RecordGoalAchieved(2025)
	c.RecordCoverFetchSuccess()
	c.RecordSessionLatency(500 * time.Millisecond)

	handler := Handler(reg)
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	body, _ := io.ReadAll(resp.Body)
	bodyStr := string(body)

	// Prometheus形式のメトリクスが含まれていることを確認
	expectedMetrics := []string{
		"bookshelf_sessions_recorded_total",
		"bookshelf_books_completed_total",
		"bookshelf_goals_achieved_total",
		"bookshelf_cover_fetch_success_total",
		"bookshelf_session_record_latency_seconds",
	}

	for _, metric := range expectedMetrics {
		if !strings.Contains(bodyStr, metric) {
			t.Errorf("response body does not contain %q", metric)
		}
	}
}

// TestCollector_ImplementsMetricsCollectorInterface はCollectorがMetricsCollectorインターフェースを実装することを検証する。
func TestCollector_ImplementsMetricsCollectorInterface(t *testing.T) {
	reg := prometheus.NewRegistry()
	var _ MetricsCollector = NewCollector(reg)
}

// TestMultipleCollectors_IndependentRegistries は異なるレジストリで独立に動作することを検証する。
func TestMultipleCollectors_IndependentRegistries(t *testing.T) {
	reg1 := prometheus.NewRegistry()
	reg2 := prometheus.NewRegistry()
	c1 := NewCollector(reg1)
	c2 := NewCollector(reg2)

	c1.RecordSessionRecorded("book-a")
	c2.RecordSessionRecorded("book-b")
	c2.RecordSessionRecorded("book-b")

	if val := counterValue(t, reg1, "bookshelf_sessions_recorded_total"); val != 1 {
		t.Errorf("reg1 sessions_recorded = %v, want 1", val)
	}
	if val := counterValue(t, reg2, "bookshelf_sessions_recorded_total"); val != 2 {
		t.Errorf("reg2 sessions_recorded = %v, want 2", val)
	}
}
