package prometheus

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	goGuard "github.com/MrEthical07/goGuard"
	"github.com/MrEthical07/goGuard/metrics/export/internaldefs"
)

const contentType = "text/plain; version=0.0.4; charset=utf-8"

type metricsSource interface {
	MetricsSnapshot() goGuard.MetricsSnapshot
	AuditDropped() uint64
}

// PrometheusExporter renders guard metrics as labelled Prometheus families.
type PrometheusExporter struct {
	source metricsSource
}

// NewPrometheusExporter creates an exporter reading from engine.
func NewPrometheusExporter(engine *goGuard.Engine) *PrometheusExporter {
	return &PrometheusExporter{source: engine}
}

// NewPrometheusExporterFromSource creates an exporter over any snapshot source.
func NewPrometheusExporterFromSource(source metricsSource) *PrometheusExporter {
	return &PrometheusExporter{source: source}
}

// Handler serves Render on every request.
func (p *PrometheusExporter) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", contentType)
		_, _ = w.Write([]byte(p.Render()))
	})
}

// Render returns every family in text exposition format, or "" when the
// engine has metrics disabled and no audit events were dropped.
func (p *PrometheusExporter) Render() string {
	if p == nil || p.source == nil {
		return ""
	}

	snapshot := p.source.MetricsSnapshot()
	dropped := p.source.AuditDropped()
	if len(snapshot.Counters) == 0 && len(snapshot.Histograms) == 0 && dropped == 0 {
		return ""
	}

	var b strings.Builder
	b.Grow(4096)

	for _, f := range internaldefs.Families {
		writeHeader(&b, f.Name, f.Help, "counter")
		for _, s := range f.Series {
			writeSample(&b, f.Name, f.LabelKey, s.LabelValue, strconv.FormatUint(snapshot.Counters[s.ID], 10))
		}
	}

	for _, def := range internaldefs.HistogramDefs {
		raw, ok := snapshot.Histograms[def.ID]
		if !ok {
			continue
		}
		cumulative := internaldefs.CumulativeBuckets(internaldefs.NormalizeBuckets(raw))
		writeHistogram(&b, def, cumulative, snapshot.HistogramSums[def.ID])
	}

	writeHeader(&b, internaldefs.AuditDroppedName, "Audit events dropped on a full dispatcher queue.", "counter")
	writeSample(&b, internaldefs.AuditDroppedName, "", "", strconv.FormatUint(dropped, 10))

	return b.String()
}

func writeHeader(b *strings.Builder, name, help, kind string) {
	b.WriteString("# HELP ")
	b.WriteString(name)
	b.WriteByte(' ')
	b.WriteString(escapeHelp(help))
	b.WriteString("\n# TYPE ")
	b.WriteString(name)
	b.WriteByte(' ')
	b.WriteString(kind)
	b.WriteByte('\n')
}

func writeSample(b *strings.Builder, name, labelKey, labelValue, value string) {
	b.WriteString(name)
	if labelKey != "" {
		b.WriteByte('{')
		b.WriteString(labelKey)
		b.WriteString("=\"")
		b.WriteString(escapeLabel(labelValue))
		b.WriteString("\"}")
	}
	b.WriteByte(' ')
	b.WriteString(value)
	b.WriteByte('\n')
}

func writeHistogram(b *strings.Builder, def internaldefs.HistogramDef, cumulative [8]uint64, sum time.Duration) {
	writeHeader(b, def.Name, def.Help, "histogram")
	bucket := def.Name + "_bucket"
	for i, le := range internaldefs.HistogramBounds {
		writeSample(b, bucket, "le", le, strconv.FormatUint(cumulative[i], 10))
	}
	writeSample(b, def.Name+"_sum", "", "", strconv.FormatFloat(sum.Seconds(), 'g', -1, 64))
	writeSample(b, def.Name+"_count", "", "", strconv.FormatUint(cumulative[len(cumulative)-1], 10))
}

func escapeHelp(help string) string {
	help = strings.ReplaceAll(help, "\\", "\\\\")
	return strings.ReplaceAll(help, "\n", "\\n")
}

func escapeLabel(v string) string {
	v = strings.ReplaceAll(v, "\\", "\\\\")
	v = strings.ReplaceAll(v, "\"", "\\\"")
	return strings.ReplaceAll(v, "\n", "\\n")
}
