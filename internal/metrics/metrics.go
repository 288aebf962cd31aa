// Package metrics 采集流程的 Prometheus 指标
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// 源级别的结果
const (
	SourceOK    = "ok"
	SourceError = "error"
	SourceEmpty = "empty"
)

type Collector struct {
	sources     *prometheus.CounterVec
	articles    *prometheus.CounterVec
	runDuration prometheus.Histogram
	lastRun     prometheus.Gauge
	emptyCats   prometheus.Gauge
}

func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		sources: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "newshub_source_fetch_total",
			Help: "按结果统计的源抓取次数",
		}, []string{"source", "result"}),
		articles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "newshub_articles_total",
			Help: "按分类与结果统计的文章数（inserted/skipped/failed）",
		}, []string{"category", "outcome"}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "newshub_collect_duration_seconds",
			Help:    "一轮采集的耗时（秒）",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "newshub_collect_last_finished_timestamp_seconds",
			Help: "最近一轮采集完成的时间",
		}),
		emptyCats: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "newshub_collect_empty_categories",
			Help: "最近一轮没有新文章的分类数",
		}),
	}

	reg.MustRegister(c.sources, c.articles, c.runDuration, c.lastRun, c.emptyCats)
	return c
}

// RecordSource 记录一个源的抓取结果与文章去向
func (c *Collector) RecordSource(source, category, result string, inserted, skipped, failed int) {
	c.sources.WithLabelValues(source, result).Inc()
	if inserted > 0 {
		c.articles.WithLabelValues(category, "inserted").Add(float64(inserted))
	}
	if skipped > 0 {
		c.articles.WithLabelValues(category, "skipped").Add(float64(skipped))
	}
	if failed > 0 {
		c.articles.WithLabelValues(category, "failed").Add(float64(failed))
	}
}

// RecordRun 记录一轮采集结束
func (c *Collector) RecordRun(seconds float64, finishedUnix float64, emptyCategories int) {
	c.runDuration.Observe(seconds)
	c.lastRun.Set(finishedUnix)
	c.emptyCats.Set(float64(emptyCategories))
}

// Handler 返回 /metrics 的 HTTP handler
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
