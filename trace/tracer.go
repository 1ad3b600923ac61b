// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package trace builds the tracer dispatcher spans are reported to: a
// zipkin exporter when enabled, otherwise one that records nothing.
package trace

import (
	"context"
	"fmt"
	"time"

	"github.com/ava-labs/avalanchego/trace"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/zipkin"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/trace/noop"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
	oteltrace "go.opentelemetry.io/otel/trace"
)

const (
	exportTimeout = 10 * time.Second
	// Shutdown outlasts an export so in-flight spans can still be sent.
	shutdownTimeout = 15 * time.Second

	DefaultEndpoint = "http://localhost:9411/api/v2/spans"
	DefaultAppName  = "guardianwallet"
)

var _ trace.Tracer = (*provider)(nil)

type Config struct {
	Enabled bool `json:"enabled" yaml:"enabled"`

	// TraceSampleRate is the fraction of operations traced; >= 1 traces
	// all of them and <= 0 none.
	TraceSampleRate float64 `json:"traceSampleRate" yaml:"traceSampleRate"`

	// Endpoint is the zipkin collector spans are exported to.
	Endpoint string `json:"endpoint" yaml:"endpoint"`

	AppName string `json:"appName" yaml:"appName"`
	Agent   string `json:"agent"   yaml:"agent"`
	Version string `json:"version" yaml:"version"`
}

// provider exposes an otel tracer as an avalanchego [trace.Tracer]. A nil
// [shutdown] means there is nothing to flush on Close.
type provider struct {
	oteltrace.Tracer

	shutdown func(context.Context) error
}

func (p *provider) Close() error {
	if p.shutdown == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return p.shutdown(ctx)
}

// Noop returns a tracer whose spans are never recorded.
func Noop() trace.Tracer {
	return disabled(DefaultAppName)
}

func disabled(name string) trace.Tracer {
	return &provider{Tracer: noop.NewTracerProvider().Tracer(name)}
}

func New(config *Config) (trace.Tracer, error) {
	if !config.Enabled {
		return disabled(config.AppName), nil
	}

	endpoint := config.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	exporter, err := zipkin.New(endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to create zipkin exporter for %s: %w", endpoint, err)
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter, sdktrace.WithExportTimeout(exportTimeout)),
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			attribute.String("version", config.Version),
			semconv.ServiceNameKey.String(config.Agent),
		)),
		sdktrace.WithSampler(sdktrace.TraceIDRatioBased(config.TraceSampleRate)),
	)
	return &provider{
		Tracer:   tp.Tracer(config.AppName),
		shutdown: tp.Shutdown,
	}, nil
}
