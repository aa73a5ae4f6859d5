// Copyright 2021 Intuitive Labs GmbH. All rights reserved.
//
// Use of this source code is governed by a BSD-style license
// that can be found in the LICENSE.txt file in the root of the source
// tree.

package periodic

import (
	"github.com/zoobzio/metricz"
	"github.com/zoobzio/tracez"
)

// Observability keys. Additive to the free-form DBG trace lines: no
// testable property in spec.md §8 depends on any of these, matching
// spec.md §4.7's "content is advisory only". Grounded on
// zoobzio-pipz's per-connector metricz/tracez key conventions
// (backoff.go, workerpool.go).
const (
	MetricDispatchesTotal  = metricz.Key("periodic.dispatches.total")
	MetricPoolGrowthsTotal = metricz.Key("periodic.pool.growths.total")
	MetricPoolWorkers      = metricz.Key("periodic.pool.workers")
	MetricPoolIdle         = metricz.Key("periodic.pool.idle")
	MetricTimewarpsTotal   = metricz.Key("periodic.timewarps.total")

	SpanDispatch = tracez.Key("periodic.dispatch")

	TagInterval = tracez.Tag("periodic.interval")
	TagOneshot  = tracez.Tag("periodic.oneshot")
)

// observability bundles a Scheduler's metrics registry and tracer.
// Both are created per-Scheduler (not process-wide), matching New()'s
// independent-instance design (see DESIGN.md Open Question 4).
type observability struct {
	metrics *metricz.Registry
	tracer  *tracez.Tracer
}

func newObservability() *observability {
	m := metricz.New()
	m.Counter(MetricDispatchesTotal)
	m.Counter(MetricPoolGrowthsTotal)
	m.Gauge(MetricPoolWorkers)
	m.Gauge(MetricPoolIdle)
	m.Counter(MetricTimewarpsTotal)
	return &observability{
		metrics: m,
		tracer:  tracez.New(),
	}
}

func (o *observability) close() {
	if o.tracer != nil {
		o.tracer.Close()
	}
}
