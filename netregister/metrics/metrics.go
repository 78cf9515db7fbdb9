// Copyright 2020 Nathan Taylor (nbtaylor@gmail.com)
//
// Permission is hereby granted, free of charge, to any person obtaining a copy of
// this software and associated documentation files (the "Software"), to deal in
// the Software without restriction, including without limitation the rights to
// use, copy, modify, merge, publish, distribute, sublicense, and/or sell copies
// of the Software, and to permit persons to whom the Software is furnished to do
// so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

// Package metrics holds the Prometheus collectors exported by a running
// register instance.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the Prometheus collectors the register server exposes.
// RegisterLabel is a gauge for the instance's own label. New registers it
// but nothing in this module sets it, so it reads 0 unless a caller calls
// Set on it.
type Metrics struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPActiveRequests  prometheus.Gauge
	RegisterLabel       prometheus.Gauge
}

// New registers the register server's collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "todc_register_http_requests_total",
			Help: "Total number of HTTP requests handled by this register instance.",
		}, []string{"method", "path", "status"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name: "todc_register_http_request_duration_seconds",
			Help: "Latency of HTTP requests handled by this register instance.",
		}, []string{"method", "path", "status"}),
		HTTPActiveRequests: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "todc_register_http_active_requests",
			Help: "Number of HTTP requests currently being handled.",
		}),
		RegisterLabel: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "todc_register_local_label",
			Help: "The label component of this instance's current local value.",
		}),
	}
	reg.MustRegister(m.HTTPRequestsTotal, m.HTTPRequestDuration, m.HTTPActiveRequests, m.RegisterLabel)
	return m
}
