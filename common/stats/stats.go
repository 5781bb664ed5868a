// Package stats provides a minimal set of instruments which both build on and
// are by default backed by go-metrics. We wrap go-metrics so callers receive a
// StatsReceiver that can be passed down a call tree and scoped at each level,
// and so the backing registry never leaks into component APIs.
package stats

import (
	"encoding/json"
	"strings"

	"github.com/rcrowley/go-metrics"
)

// Stats users can either reference this global receiver or construct their own.
var CurrentStatsReceiver StatsReceiver = NilStatsReceiver()

// Counter is an event counter.
type Counter interface {
	Inc(int64)
	Count() int64
	Clear()
}

// Gauge holds an int64 value that can be set arbitrarily.
type Gauge interface {
	Update(int64)
	Value() int64
}

// StatsReceiver creates and registers instruments under a hierarchical name.
//
// Name elements are joined with a '/' path separator, so
//
//	statsReceiver.Scope("foo", "bar").Counter("baz")   // is equivalent to
//	statsReceiver.Counter("foo", "bar", "baz")
//
// Elements containing '/' have it replaced rather than rejected, because stat
// names are sometimes generated dynamically and stripping is more useful than
// panicking.
type StatsReceiver interface {
	// Return a stats receiver that will automatically namespace elements with
	// the given scope args.
	Scope(scope ...string) StatsReceiver

	// Provides an event counter.
	Counter(name ...string) Counter

	// Provides a gauge, which holds an int64 value that can be set arbitrarily.
	Gauge(name ...string) Gauge

	// Removes the given named stats item if it exists.
	Remove(name ...string)

	// Render marshals the current instrument values to JSON.
	Render(pretty bool) []byte
}

// DefaultStatsReceiver returns a StatsReceiver backed by a fresh go-metrics
// registry.
func DefaultStatsReceiver() StatsReceiver {
	return NewStatsReceiver(metrics.NewRegistry())
}

// NewStatsReceiver returns a StatsReceiver backed by the given registry.
func NewStatsReceiver(reg metrics.Registry) StatsReceiver {
	return &defaultStatsReceiver{registry: reg}
}

type defaultStatsReceiver struct {
	registry metrics.Registry
	scope    []string
}

func (s *defaultStatsReceiver) Scope(scope ...string) StatsReceiver {
	return &defaultStatsReceiver{s.registry, s.scoped(scope...)}
}

func (s *defaultStatsReceiver) Counter(name ...string) Counter {
	return s.registry.GetOrRegister(strings.Join(s.scoped(name...), "/"), metrics.NewCounter).(metrics.Counter)
}

func (s *defaultStatsReceiver) Gauge(name ...string) Gauge {
	return s.registry.GetOrRegister(strings.Join(s.scoped(name...), "/"), metrics.NewGauge).(metrics.Gauge)
}

func (s *defaultStatsReceiver) Remove(name ...string) {
	s.registry.Unregister(strings.Join(s.scoped(name...), "/"))
}

func (s *defaultStatsReceiver) Render(pretty bool) []byte {
	values := map[string]interface{}{}
	s.registry.Each(func(name string, i interface{}) {
		switch m := i.(type) {
		case metrics.Counter:
			values[name] = m.Count()
		case metrics.Gauge:
			values[name] = m.Value()
		}
	})
	var bytes []byte
	var err error
	if pretty {
		bytes, err = json.MarshalIndent(values, "", "  ")
	} else {
		bytes, err = json.Marshal(values)
	}
	if err != nil {
		return []byte{}
	}
	return bytes
}

func (s *defaultStatsReceiver) scoped(scope ...string) []string {
	for i, elem := range scope {
		scope[i] = strings.Replace(elem, "/", "_SLASH_", -1)
	}
	return append(append([]string{}, s.scope...), scope...)
}

// NilStatsReceiver returns a stats receiver whose instruments do nothing, for
// callers that don't care about stats.
func NilStatsReceiver() StatsReceiver {
	return &nilStatsReceiver{}
}

type nilStatsReceiver struct{}

func (s *nilStatsReceiver) Scope(scope ...string) StatsReceiver { return s }
func (s *nilStatsReceiver) Counter(name ...string) Counter      { return &nilCounter{} }
func (s *nilStatsReceiver) Gauge(name ...string) Gauge          { return &nilGauge{} }
func (s *nilStatsReceiver) Remove(name ...string)               {}
func (s *nilStatsReceiver) Render(pretty bool) []byte           { return []byte("{}") }

type nilCounter struct{}

func (c *nilCounter) Inc(int64)    {}
func (c *nilCounter) Count() int64 { return 0 }
func (c *nilCounter) Clear()       {}

type nilGauge struct{}

func (g *nilGauge) Update(int64) {}
func (g *nilGauge) Value() int64 { return 0 }
