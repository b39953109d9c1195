package observability

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// Prometheus text exposition for the handful of series this service keeps.
// Families are created once in New and written in registration order.

const labelSep = "\xff"

type point struct {
	values []string
	v      float64
}

// family is a counter or gauge, optionally split by labels.
type family struct {
	name, help, kind string
	labels           []string

	mu     sync.Mutex
	points map[string]*point
}

func counter(name, help string, labels ...string) *family {
	return &family{name: name, help: help, kind: "counter", labels: labels, points: map[string]*point{}}
}

func gauge(name, help string, labels ...string) *family {
	return &family{name: name, help: help, kind: "gauge", labels: labels, points: map[string]*point{}}
}

func (f *family) at(values []string) *point {
	key := strings.Join(values, labelSep)
	p, ok := f.points[key]
	if !ok {
		p = &point{values: append([]string(nil), values...)}
		f.points[key] = p
	}
	return p
}

func (f *family) add(d float64, values ...string) {
	f.mu.Lock()
	f.at(values).v += d
	f.mu.Unlock()
}

func (f *family) set(v float64, values ...string) {
	f.mu.Lock()
	f.at(values).v = v
	f.mu.Unlock()
}

func (f *family) write(w io.Writer) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := header(w, f.name, f.help, f.kind); err != nil {
		return err
	}
	if len(f.labels) == 0 && len(f.points) == 0 {
		_, err := fmt.Fprintf(w, "%s %f\n", f.name, 0.0)
		return err
	}
	for _, key := range sortedKeys(f.points) {
		p := f.points[key]
		if _, err := fmt.Fprintf(w, "%s%s %f\n", f.name, labelSet(f.labels, p.values, ""), p.v); err != nil {
			return err
		}
	}
	return nil
}

type bins struct {
	values []string
	counts []uint64 // cumulative, one per bound
	sum    float64
	total  uint64
}

type histogram struct {
	name, help string
	labels     []string
	bounds     []float64

	mu     sync.Mutex
	series map[string]*bins
}

func newHistogram(name, help string, bounds []float64, labels ...string) *histogram {
	return &histogram{name: name, help: help, labels: labels, bounds: bounds, series: map[string]*bins{}}
}

func (h *histogram) observe(v float64, values ...string) {
	key := strings.Join(values, labelSep)
	h.mu.Lock()
	defer h.mu.Unlock()
	b, ok := h.series[key]
	if !ok {
		b = &bins{values: append([]string(nil), values...), counts: make([]uint64, len(h.bounds))}
		h.series[key] = b
	}
	for i, bound := range h.bounds {
		if v <= bound {
			b.counts[i]++
		}
	}
	b.sum += v
	b.total++
}

func (h *histogram) write(w io.Writer) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := header(w, h.name, h.help, "histogram"); err != nil {
		return err
	}
	for _, key := range sortedKeys(h.series) {
		b := h.series[key]
		for i, bound := range h.bounds {
			le := strconv.FormatFloat(bound, 'g', -1, 64)
			if _, err := fmt.Fprintf(w, "%s_bucket%s %d\n", h.name, labelSet(h.labels, b.values, le), b.counts[i]); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, "%s_bucket%s %d\n", h.name, labelSet(h.labels, b.values, "+Inf"), b.total); err != nil {
			return err
		}
		plain := labelSet(h.labels, b.values, "")
		if _, err := fmt.Fprintf(w, "%s_sum%s %f\n%s_count%s %d\n", h.name, plain, b.sum, h.name, plain, b.total); err != nil {
			return err
		}
	}
	return nil
}

func header(w io.Writer, name, help, kind string) error {
	_, err := fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s %s\n", name, help, name, kind)
	return err
}

// labelSet renders {a="x",b="y"}, appending le when set. Missing values
// render as "unknown".
func labelSet(names, values []string, le string) string {
	if len(names) == 0 && le == "" {
		return ""
	}
	pairs := make([]string, 0, len(names)+1)
	for i, n := range names {
		v := "unknown"
		if i < len(values) && values[i] != "" {
			v = values[i]
		}
		pairs = append(pairs, n+"="+strconv.Quote(v))
	}
	if le != "" {
		pairs = append(pairs, `le="`+le+`"`)
	}
	return "{" + strings.Join(pairs, ",") + "}"
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
