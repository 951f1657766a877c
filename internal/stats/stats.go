package stats

import (
	"encoding/json"
	"expvar"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

type StatsProvider interface {
	Incr(name string)
	Decr(name string)
	RegisterMetric(name string)
}

// StatsUpdater keeps counters in an expvar map. Updates are applied by a
// single goroutine started with Run.
type StatsUpdater struct {
	log        zerolog.Logger
	vars       *expvar.Map
	updateChan chan *metricsUpdateReq
	stopOnce   sync.Once
	done       chan struct{}
}

type metricsUpdateReq struct {
	name  string
	value int64
}

// NewStatsUpdater creates a stats updater and serves its counters on
// GET /debug/vars of mux.
func NewStatsUpdater(mux *http.ServeMux, logger zerolog.Logger) *StatsUpdater {
	su := &StatsUpdater{
		log:        logger,
		vars:       new(expvar.Map).Init(),
		updateChan: make(chan *metricsUpdateReq, 512),
		done:       make(chan struct{}),
	}
	if mux != nil {
		mux.Handle("GET /debug/vars", http.HandlerFunc(su.expvarHandler))
	}
	su.initializeMetrics()

	return su
}

func (su *StatsUpdater) expvarHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	expvarData := make(map[string]any)
	su.vars.Do(func(kv expvar.KeyValue) {
		var value any
		json.Unmarshal([]byte(kv.Value.String()), &value)
		expvarData[kv.Key] = value
	})

	json.NewEncoder(w).Encode(expvarData)
}

func (su *StatsUpdater) initializeMetrics() {
	startTime := time.Now()
	su.vars.Set("Uptime", expvar.Func(func() any {
		return time.Since(startTime).Milliseconds()
	}))
}

func (su *StatsUpdater) updateMetrics() {
	defer close(su.done)
	for req := range su.updateChan {
		metric, ok := su.vars.Get(req.name).(*expvar.Int)
		if !ok {
			su.log.Warn().Str("metric", req.name).Msg("update for unregistered metric")
			continue
		}

		metric.Add(req.value)
	}
}

func (su *StatsUpdater) Incr(name string) {
	su.updateChan <- &metricsUpdateReq{name: name, value: 1}
}

func (su *StatsUpdater) Decr(name string) {
	su.updateChan <- &metricsUpdateReq{name: name, value: -1}
}

func (su *StatsUpdater) RegisterMetric(name string) {
	su.vars.Set(name, new(expvar.Int))
}

// Value returns the current value of a registered counter.
func (su *StatsUpdater) Value(name string) (int64, bool) {
	metric, ok := su.vars.Get(name).(*expvar.Int)
	if !ok {
		return 0, false
	}
	return metric.Value(), true
}

func (su *StatsUpdater) Run() {
	go su.updateMetrics()
}

// Stop closes the update channel and waits for pending updates to be applied.
func (su *StatsUpdater) Stop() {
	su.stopOnce.Do(func() {
		close(su.updateChan)
		<-su.done
	})
}
