package main

//go-build: CGO_ENABLED=0

import (
	"context"
	"flag"
	"net/http"
	"os"

	"github.com/golang/glog"

	"github.com/robotalks/mp3.go/pkg/bridge/env"
	fx "github.com/robotalks/mp3.go/pkg/framework"
	"github.com/robotalks/mp3.go/pkg/metrics"
	"github.com/robotalks/mp3.go/pkg/player"
	"github.com/robotalks/mp3.go/pkg/serial"
	"github.com/robotalks/mp3.go/pkg/sim"
	"github.com/robotalks/mp3.go/pkg/yx5300"
)

var httpAddr = ":8080"

func init() {
	if val, ok := os.LookupEnv("MP3_HTTP_ADDR"); ok {
		httpAddr = val
	}
	flag.StringVar(&httpAddr, "http", httpAddr, "HTTP address serving /metrics and /ws, empty to disable.")
	serial.SetupFlags()
	sim.SetupFlags()
	env.SetupFlags()
	player.SetupFlags()
}

func serveHTTP(srv *http.Server) fx.Runnable {
	return fx.NamedRun("http", fx.RunFunc(func(ctx context.Context) error {
		return fx.RunWithContextCancel(ctx, func() { srv.Close() }, srv.ListenAndServe)
	}))
}

func main() {
	flag.Parse()

	conf := player.NewConfig()
	conn, err := conf.OpenConn(serial.NewConfig())
	if err != nil {
		glog.Exitf("serial: %v", err)
	}
	bridges, err := env.NewConfig().NewEnv()
	if err != nil {
		glog.Exit(err)
	}

	reg := metrics.NewRegistry()
	ctl := player.NewController(conf.NewPlayer(conn, yx5300.WithObserver(metrics.NewPlayerMetrics(reg))), bridges.Registrar)
	ctl.Begin = conf.Begin

	loop := fx.NewLoop()
	loop.Interval = conf.PollInterval
	loop.AddRunnable(fx.NamedRun("serial", conn)).Add(ctl, bridges)

	if httpAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler(reg))
		if bridges.Websocket != nil {
			mux.Handle("/ws", bridges.Websocket)
		}
		loop.AddRunnable(serveHTTP(&http.Server{Addr: httpAddr, Handler: mux}))
	}

	glog.Infof("player %s on %s (%s)", bridges.Config.Info.Ref.Name(), serial.Default().Port, serial.Default().Driver)
	runner := fx.NewRunner().HandleSignals().Go(fx.NamedRun("loop", loop))
	if err := runner.Wait(); err != nil {
		glog.Exit(err)
	}
}
