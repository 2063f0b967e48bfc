package service

import "github.com/prometheus/client_golang/prometheus"

// Metrics counts upload pipeline outcomes. A nil *Metrics records nothing.
type Metrics struct {
	uploads *prometheus.CounterVec
	scans   *prometheus.CounterVec
	bytes   prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		uploads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "docvault_uploads_total",
				Help: "Upload attempts by outcome.",
			},
			[]string{"outcome"},
		),
		scans: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "docvault_scan_results_total",
				Help: "Malware scan verdicts.",
			},
			[]string{"result"},
		),
		bytes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "docvault_uploaded_bytes_total",
			Help: "Bytes of successfully stored uploads.",
		}),
	}

	for _, c := range []prometheus.Collector{m.uploads, m.scans, m.bytes} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) upload(outcome string, size int64) {
	if m == nil {
		return
	}
	m.uploads.WithLabelValues(outcome).Inc()
	if outcome == "success" {
		m.bytes.Add(float64(size))
	}
}

func (m *Metrics) scan(result string) {
	if m == nil {
		return
	}
	m.scans.WithLabelValues(result).Inc()
}
