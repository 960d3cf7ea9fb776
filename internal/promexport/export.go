package promexport

import (
	"log/slog"
	"net/http"
	"sync"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"google.golang.org/protobuf/proto"

	"github.com/regionpulse/regionpulse/internal/telemetry"
)

// Collector counts service activity and renders the /metrics exposition.
// All methods are safe for concurrent use.
type Collector struct {
	store *telemetry.Store

	mu             sync.Mutex
	queries        float64
	regionsQueried float64
	badRequests    float64
}

// New returns a Collector reading dataset gauges from st.
func New(st *telemetry.Store) *Collector {
	return &Collector{store: st}
}

// QueryServed records one successful latency query covering n regions.
func (c *Collector) QueryServed(n int) {
	c.mu.Lock()
	c.queries++
	c.regionsQueried += float64(n)
	c.mu.Unlock()
}

// BadRequest records one rejected (malformed) request.
func (c *Collector) BadRequest() {
	c.mu.Lock()
	c.badRequests++
	c.mu.Unlock()
}

// ServeHTTP renders all metric families in Prometheus text format.
func (c *Collector) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	format := expfmt.NewFormat(expfmt.TypeTextPlain)
	w.Header().Set("Content-Type", string(format))

	enc := expfmt.NewEncoder(w, format)
	for _, mf := range c.families() {
		if err := enc.Encode(mf); err != nil {
			slog.Error("promexport: encode failed", "metric", mf.GetName(), "err", err)
			return
		}
	}
}

// families builds the current metric families.
func (c *Collector) families() []*dto.MetricFamily {
	c.mu.Lock()
	queries, regions, bad := c.queries, c.regionsQueried, c.badRequests
	c.mu.Unlock()

	return []*dto.MetricFamily{
		counter("regionpulse_queries_total",
			"Latency summary queries served.", queries),
		counter("regionpulse_regions_queried_total",
			"Region summaries computed across all queries.", regions),
		counter("regionpulse_bad_requests_total",
			"Requests rejected for a malformed body.", bad),
		gauge("regionpulse_dataset_records",
			"Telemetry records currently loaded.", float64(c.store.Count())),
		gauge("regionpulse_dataset_regions",
			"Distinct regions in the loaded dataset.", float64(len(c.store.Regions()))),
	}
}

func counter(name, help string, v float64) *dto.MetricFamily {
	return &dto.MetricFamily{
		Name: proto.String(name),
		Help: proto.String(help),
		Type: dto.MetricType_COUNTER.Enum(),
		Metric: []*dto.Metric{
			{Counter: &dto.Counter{Value: proto.Float64(v)}},
		},
	}
}

func gauge(name, help string, v float64) *dto.MetricFamily {
	return &dto.MetricFamily{
		Name: proto.String(name),
		Help: proto.String(help),
		Type: dto.MetricType_GAUGE.Enum(),
		Metric: []*dto.Metric{
			{Gauge: &dto.Gauge{Value: proto.Float64(v)}},
		},
	}
}
