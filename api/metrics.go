package api

import (
	"sort"
	"sync"
	"time"
)

// RouteMetrics aggregates request metrics for a single method+path pair
type RouteMetrics struct {
	Method      string        `json:"method"`
	Path        string        `json:"path"`
	Count       int64         `json:"count"`
	ErrorCount  int64         `json:"errorCount"`
	TotalTime   time.Duration `json:"totalTime"`
	AvgTime     time.Duration `json:"avgTime"`
	MinTime     time.Duration `json:"minTime"`
	MaxTime     time.Duration `json:"maxTime"`
	LastRequest time.Time     `json:"lastRequest"`
}

// MetricsCollector collects and aggregates request metrics in-process
type MetricsCollector struct {
	mu           sync.RWMutex
	routeMetrics map[string]*RouteMetrics
}

var (
	metricsOnce sync.Once
	metrics     *MetricsCollector
)

// GetMetrics returns the process-wide metrics collector
func GetMetrics() *MetricsCollector {
	metricsOnce.Do(func() {
		metrics = &MetricsCollector{
			routeMetrics: make(map[string]*RouteMetrics),
		}
	})
	return metrics
}

// Record folds one completed request into the per-route aggregates
func (mc *MetricsCollector) Record(method, path string, status int, duration time.Duration) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	key := method + " " + path
	rm, ok := mc.routeMetrics[key]
	if !ok {
		rm = &RouteMetrics{Method: method, Path: path, MinTime: duration}
		mc.routeMetrics[key] = rm
	}

	rm.Count++
	if status >= 400 {
		rm.ErrorCount++
	}
	rm.TotalTime += duration
	rm.AvgTime = rm.TotalTime / time.Duration(rm.Count)
	if duration < rm.MinTime {
		rm.MinTime = duration
	}
	if duration > rm.MaxTime {
		rm.MaxTime = duration
	}
	rm.LastRequest = time.Now()
}

// Snapshot returns a copy of all route aggregates, sorted by route key
func (mc *MetricsCollector) Snapshot() []RouteMetrics {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	out := make([]RouteMetrics, 0, len(mc.routeMetrics))
	for _, rm := range mc.routeMetrics {
		out = append(out, *rm)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Path == out[j].Path {
			return out[i].Method < out[j].Method
		}
		return out[i].Path < out[j].Path
	})
	return out
}
