package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	pagesProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "layocr_pages_processed_total",
			Help: "Total number of processed pages",
		},
		[]string{"mode", "status"},
	)

	pageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "layocr_page_duration_seconds",
			Help:    "Page processing duration in seconds",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 25, 50, 100},
		},
		[]string{"mode"},
	)

	regionsPerPage = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "layocr_layout_regions",
			Help:    "Number of layout regions detected per page",
			Buckets: []float64{0, 1, 2, 5, 10, 25, 50, 100},
		},
	)

	wordsPerPage = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "layocr_words_recognized",
			Help:    "Number of words recognized per page",
			Buckets: []float64{0, 10, 50, 100, 500, 1000, 5000},
		},
		[]string{"mode"},
	)
)

func recordPage(res *PageResult) {
	status := "success"
	if res.Err != nil {
		status = "error"
	}
	mode := string(res.Mode)
	pagesProcessed.WithLabelValues(mode, status).Inc()
	pageDuration.WithLabelValues(mode).Observe(res.Duration.Seconds())
	if res.Err != nil {
		return
	}
	wordsPerPage.WithLabelValues(mode).Observe(float64(res.Words))
	if res.Mode == ModeLayout {
		regionsPerPage.Observe(float64(res.Regions))
	}
}
