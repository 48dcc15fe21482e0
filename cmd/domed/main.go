package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/rockit-astro/domed/internal/config"
	gatewayhttp "github.com/rockit-astro/domed/internal/gateway/http"
	"github.com/rockit-astro/domed/pkg/beltsensor"
	"github.com/rockit-astro/domed/pkg/domelog"
	"github.com/rockit-astro/domed/pkg/serial"
	"github.com/rockit-astro/domed/pkg/shutter"
	"github.com/rockit-astro/domed/pkg/supervisor"
)

const defaultHTTPPort = 8008

func main() {
	configPath := flag.String("c", "", "path to the daemon's JSON config file")
	httpPort := flag.Int("p", defaultHTTPPort, "HTTP gateway port")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	if *debug {
		log.SetLevel(log.DebugLevel)
	}
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	if *configPath == "" {
		fmt.Fprintln(os.Stderr, "usage: domed -c <config.json>")
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("[MAIN] loading config: %v", err)
	}

	logger := domelog.New(nil)

	sup := supervisor.New(supervisor.Deps{
		Config:        cfg,
		Logger:        logger,
		ShutterOpen:   opener(cfg.ShutterPort, cfg.ReadTimeout),
		HeartbeatOpen: opener(cfg.HeartbeatPort, cfg.ReadTimeout),
		BeltSensor:    beltClient(cfg),
	})
	sup.Start()
	defer sup.Close()

	server := gatewayhttp.NewServer(sup, cfg, log.StandardLogger())

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		log.Info("[MAIN] shutting down")
		sup.Close()
		os.Exit(0)
	}()

	addr := fmt.Sprintf(":%d", *httpPort)
	if err := server.ListenAndServe(addr); err != nil {
		log.Fatalf("[MAIN] http server: %v", err)
	}
}

// opener binds a [serial.Opener] to one configured port, so the reconnect
// loop can reopen it from scratch on every retry.
func opener(port config.SerialPort, timeout time.Duration) serial.Opener {
	return func() (serial.ByteLink, error) {
		return serial.Open(port.Path, port.Baud, timeout)
	}
}

// beltClient constructs the belt-tension oracle client if the config binds
// a domealert host; returns nil otherwise, which the supervisor treats as
// "no belt sensors configured" (spec §4.5's belt-slack predicate is then
// never wired in).
func beltClient(cfg *config.View) beltsensor.Client {
	if cfg.DomeAlertAddr == "" {
		return nil
	}
	sensors := make(map[shutter.Side]string)
	if name, ok := cfg.BeltSensorFor('a'); ok {
		sensors[shutter.SideA] = name
	}
	if name, ok := cfg.BeltSensorFor('b'); ok {
		sensors[shutter.SideB] = name
	}
	return beltsensor.NewHTTPClient(fmt.Sprintf("http://%s", cfg.DomeAlertAddr), sensors)
}
