// Package metrics exports the device counters to Prometheus.
package metrics

import (
	"context"
	"net"
	"net/http"

	"github.com/golang/glog"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/robotalks/neurobridge/pkg/controller"
	fx "github.com/robotalks/neurobridge/pkg/framework"
)

const namespace = "neurobridge"

// NewRegistry creates a registry with the Go runtime collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Handler returns the HTTP handler of the registry.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}

type counter struct {
	desc  *prometheus.Desc
	value func(*controller.Stats, *fx.LoopStats) uint64
}

// Collector reads the snapshots of a bridge and its loop when scraped.
type Collector struct {
	Bridge func() controller.Stats
	Loop   func() fx.LoopStats
	Frame  func() uint64

	counters []counter
	frame    *prometheus.Desc
}

// NewCollector creates a Collector for the bridge running in loop.
func NewCollector(device string, bridge *controller.Bridge, loop *fx.Loop) *Collector {
	labels := prometheus.Labels{"device": device}
	c := &Collector{
		Bridge: bridge.Stats,
		Loop:   loop.Stats,
		Frame:  loop.Frame,
		frame:  prometheus.NewDesc(namespace+"_frame", "Frame number of the next iteration.", nil, labels),
	}
	def := func(name, help string, value func(*controller.Stats, *fx.LoopStats) uint64) {
		c.counters = append(c.counters, counter{
			desc:  prometheus.NewDesc(namespace+"_"+name, help, nil, labels),
			value: value,
		})
	}
	def("frames_total", "Complete frames extracted from the receive stream.",
		func(s *controller.Stats, _ *fx.LoopStats) uint64 { return s.Decoder.Frames })
	def("commands_decoded_total", "Commands decoded from frames.",
		func(s *controller.Stats, _ *fx.LoopStats) uint64 { return s.Decoder.Commands })
	def("frames_malformed_total", "Frames dropped for an invalid payload.",
		func(s *controller.Stats, _ *fx.LoopStats) uint64 { return s.Decoder.Malformed })
	def("frames_unknown_total", "Frames dropped for an unknown command id.",
		func(s *controller.Stats, _ *fx.LoopStats) uint64 { return s.Decoder.Unknown })
	def("receive_overflows_total", "Receive buffer resets.",
		func(s *controller.Stats, _ *fx.LoopStats) uint64 { return s.Decoder.Overflows })
	def("receive_dropped_bytes_total", "Bytes discarded by receive buffer resets.",
		func(s *controller.Stats, _ *fx.LoopStats) uint64 { return s.Decoder.BytesDropped })
	def("received_bytes_total", "Bytes read from the transport.",
		func(s *controller.Stats, _ *fx.LoopStats) uint64 { return s.Received })
	def("commands_dispatched_total", "Commands applied.",
		func(s *controller.Stats, _ *fx.LoopStats) uint64 { return s.Dispatch.Dispatched })
	def("commands_unmapped_total", "Pin commands for pins not configured in the required mode.",
		func(s *controller.Stats, _ *fx.LoopStats) uint64 { return s.Dispatch.Unmapped })
	def("commands_failed_total", "Pin commands failed in the driver.",
		func(s *controller.Stats, _ *fx.LoopStats) uint64 { return s.Dispatch.Failed })
	def("commands_dropped_total", "Commands dropped on a full queue.",
		func(s *controller.Stats, _ *fx.LoopStats) uint64 { return s.Dispatch.Dropped })
	def("capability_replies_total", "Capability replies produced.",
		func(s *controller.Stats, _ *fx.LoopStats) uint64 { return s.Dispatch.Replies })
	def("sample_errors_total", "Failed pin reads.",
		func(s *controller.Stats, _ *fx.LoopStats) uint64 { return s.SampleErrors })
	def("messages_sent_total", "Messages handed to the transport.",
		func(s *controller.Stats, _ *fx.LoopStats) uint64 { return s.Sent })
	def("send_errors_total", "Failed sends.",
		func(s *controller.Stats, _ *fx.LoopStats) uint64 { return s.SendErrors })
	def("poll_errors_total", "Failed transport reads.",
		func(s *controller.Stats, _ *fx.LoopStats) uint64 { return s.PollErrors })
	def("loop_iterations_total", "Completed control loop iterations.",
		func(_ *controller.Stats, l *fx.LoopStats) uint64 { return l.Iterations })
	def("loop_overruns_total", "Iterations exceeding the period.",
		func(_ *controller.Stats, l *fx.LoopStats) uint64 { return l.Overruns })
	def("loop_errors_total", "Errors returned by loop stages.",
		func(_ *controller.Stats, l *fx.LoopStats) uint64 { return l.Errors })
	return c
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	for _, cnt := range c.counters {
		ch <- cnt.desc
	}
	ch <- c.frame
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	stats, loopStats := c.Bridge(), c.Loop()
	for _, cnt := range c.counters {
		ch <- prometheus.MustNewConstMetric(cnt.desc, prometheus.CounterValue, float64(cnt.value(&stats, &loopStats)))
	}
	ch <- prometheus.MustNewConstMetric(c.frame, prometheus.GaugeValue, float64(c.Frame()))
}

// Server serves /metrics.
type Server struct {
	Addr     string
	Registry *prometheus.Registry

	listening chan net.Addr
}

// NewServer creates a Server.
func NewServer(addr string, reg *prometheus.Registry) *Server {
	return &Server{Addr: addr, Registry: reg, listening: make(chan net.Addr, 1)}
}

// Listening delivers the bound address once Run is listening.
func (s *Server) Listening() <-chan net.Addr {
	return s.listening
}

// Run implements Runnable.
func (s *Server) Run(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(s.Registry))
	ln, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return err
	}
	glog.Infof("metrics on http://%s/metrics", ln.Addr())
	s.listening <- ln.Addr()
	server := &http.Server{Handler: mux}
	return fx.RunWithContextCloser(ctx, server, func() error {
		return server.Serve(ln)
	})
}
