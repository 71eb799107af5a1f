package main

//go-build: CGO_ENABLED=0

import (
	"context"
	"flag"

	"github.com/golang/glog"

	env "github.com/robotalks/neurobridge/pkg/controller"
	fx "github.com/robotalks/neurobridge/pkg/framework"
	"github.com/robotalks/neurobridge/pkg/metrics"
)

func init() {
	env.SetupFlags()
}

func main() {
	flag.Parse()
	defer glog.Flush()

	conf := env.NewConfig()
	env := conf.MustNewEnv()
	defer env.Close()
	dev := env.Device
	glog.Infof("device %s model %s, %d Hz over %s", dev.DeviceID, dev.Model, dev.BurstFrequency, conf.Transport)

	runner := fx.NewRunner().HandleSignals()
	ctx := runner.Context
	if conf.Banner {
		if err := env.Bridge.ShowBanner(ctx); err != nil && err != context.Canceled {
			glog.Warningf("banner: %v", err)
		}
	}

	loop := fx.NewLoopWithHz(dev.BurstFrequency).Add(env)
	if conf.MetricsAddr != "" {
		reg := metrics.NewRegistry()
		reg.MustRegister(metrics.NewCollector(dev.DeviceID, env.Bridge, loop))
		runner.Go(fx.NamedRun("metrics", metrics.NewServer(conf.MetricsAddr, reg)))
	}
	runner.Go(fx.NamedRun("loop", loop))
	if err := runner.Wait(); err != nil {
		glog.Exitf("%v", err)
	}
}
