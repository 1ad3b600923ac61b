// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package wallet

import (
	"github.com/ava-labs/avalanchego/utils/metric"
	"github.com/ava-labs/avalanchego/utils/wrappers"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "wallet"

type metrics struct {
	operations   *prometheus.CounterVec
	records      prometheus.Counter
	stateChanges prometheus.Counter
	locked       prometheus.Gauge
	execute      metric.Averager
}

func newMetrics() (*prometheus.Registry, *metrics, error) {
	r := prometheus.NewRegistry()

	execute, err := metric.NewAverager(
		namespace,
		"execute",
		"time spent executing an operation, including verification and commit",
		r,
	)
	if err != nil {
		return nil, nil, err
	}

	m := &metrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations",
			Help:      "number of operations by entry point and outcome",
		}, []string{"op", "outcome"}),
		records: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records",
			Help:      "number of records emitted by committed operations",
		}),
		stateChanges: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "state_changes",
			Help:      "number of keys written by committed operations",
		}),
		locked: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pending_locks",
			Help:      "number of wallets with an operation in flight",
		}),
		execute: execute,
	}
	errs := wrappers.Errs{}
	errs.Add(
		r.Register(m.operations),
		r.Register(m.records),
		r.Register(m.stateChanges),
		r.Register(m.locked),
	)
	return r, m, errs.Err
}
