package sqlstore

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/ValentinKolb/sKV/lib/store"
	"github.com/VictoriaMetrics/metrics"
	"github.com/lni/dragonboat/v4/logger"
	gometrics "github.com/rcrowley/go-metrics"
)

// TraceLogger prints the call trace of stores opened in debug mode. Debug mode sets it
// to info level, independent of the level of the other loggers.
var TraceLogger = logger.GetLogger("trace")

// diagnostics observes every store operation. It never changes the result of an operation.
type diagnostics struct {
	debug  bool
	tracer logger.ILogger

	// metrics is private to the store, so two stores in one process do not share counters
	metrics *metrics.Set

	// pings backs AvgPing
	pings gometrics.Timer
}

func newDiagnostics(debug bool, tracer logger.ILogger) *diagnostics {
	if debug {
		tracer.SetLevel(logger.INFO)
	}
	return &diagnostics{
		debug:   debug,
		tracer:  tracer,
		metrics: metrics.NewSet(),
		pings:   gometrics.NewTimer(),
	}
}

// close stops the background ticker of the ping timer
func (d *diagnostics) close() {
	d.pings.Stop()
}

// trace is a single running operation
type trace struct {
	d     *diagnostics
	op    string
	table string
	call  string
	start time.Time
}

// begin starts tracing an operation. In debug mode the call is logged right away.
func (d *diagnostics) begin(op, table string, args ...any) *trace {
	t := &trace{d: d, op: op, table: table, start: time.Now()}
	if d.debug {
		t.call = formatCall(op, table, args)
		d.tracer.Infof("[received] %s", t.call)
	}
	return t
}

// end records the outcome of the operation. In debug mode the result or error is
// logged before the operation returns to its caller.
func (t *trace) end(result any, err error) {
	elapsed := time.Since(t.start)

	labels := fmt.Sprintf(`{op=%q}`, t.op)
	if t.table != "" {
		labels = fmt.Sprintf(`{op=%q,table=%q}`, t.op, t.table)
	}
	t.d.metrics.GetOrCreateCounter("skv_operations_total" + labels).Inc()
	if err != nil {
		t.d.metrics.GetOrCreateCounter("skv_operation_errors_total" + labels).Inc()
	}
	t.d.metrics.GetOrCreateHistogram(fmt.Sprintf(`skv_operation_duration_seconds{op=%q}`, t.op)).Update(elapsed.Seconds())

	if !t.d.debug {
		return
	}
	if err != nil {
		t.d.tracer.Infof("[failed] %s -> %v", t.call, err)
		return
	}
	t.d.tracer.Infof("[returning] %s -> %s (%s)", t.call, formatResult(result), elapsed)
}

// WriteMetrics implements store.MetricsWriter
func (s *storeImpl) WriteMetrics(w io.Writer) {
	s.diag.metrics.WritePrometheus(w)
	fmt.Fprintf(w, "skv_ping_avg_seconds %g\n", s.AvgPing().Seconds())
	fmt.Fprintf(w, "skv_ping_total %d\n", s.diag.pings.Count())
}

// --------------------------------------------------------------------------
// Formatting
// --------------------------------------------------------------------------

func formatCall(op, table string, args []any) string {
	parts := make([]string, 0, len(args)+1)
	if table != "" {
		parts = append(parts, fmt.Sprintf("%q", table))
	}
	for _, arg := range args {
		parts = append(parts, formatArg(arg))
	}
	return op + "(" + strings.Join(parts, ", ") + ")"
}

func formatArg(arg any) string {
	switch v := arg.(type) {
	case string:
		return fmt.Sprintf("%q", v)
	case nil:
		return "nil"
	case func(store.Record) bool:
		return "filter(fn)"
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}

func formatResult(result any) string {
	switch v := result.(type) {
	case nil:
		return "ok"
	case store.GetResult:
		return fmt.Sprintf("{value: %v, key: %q, scope: %q, default: %t}", v.Value, v.Key, v.Scope, v.Default)
	case []store.Record:
		return fmt.Sprintf("%d records", len(v))
	case store.Record:
		return fmt.Sprintf("{value: %v, key: %q}", v.Value, v.Key)
	default:
		return fmt.Sprintf("%v", v)
	}
}
