// Command distsortd runs the distsort middleware: it accepts worker
// registrations, fans sort jobs out across the registered fleet, and
// merges the results back to clients.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"gopkg.in/alecthomas/kingpin.v2"

	"github.com/netsort/distsort/internal/banner"
	"github.com/netsort/distsort/internal/dispatch"
	"github.com/netsort/distsort/internal/logging"
	"github.com/netsort/distsort/internal/metrics"
	"github.com/netsort/distsort/internal/netutil"
	"github.com/netsort/distsort/internal/registry"
	"github.com/netsort/distsort/internal/server"
	"github.com/netsort/distsort/internal/session"
	"github.com/netsort/distsort/internal/stats"
)

var (
	app = kingpin.New("distsortd", "Distributed sort middleware.")

	port = app.Flag("port", "TCP port to listen on.").
		Default(fmt.Sprint(server.DefaultPort)).Int()

	metricsAddr = app.Flag("listen-metrics-addr", "Address to serve Prometheus metrics on (empty disables it).").
			Default("").String()
)

func main() {
	kingpin.MustParse(app.Parse(os.Args[1:]))

	log := logging.New("distsortd")
	reg := registry.New(log)
	sortStats := stats.NewSortStats()
	clientStats := stats.NewClientStats()
	dispatcher := dispatch.New(reg, sortStats, log)

	handler := &session.Handler{
		Registry:    reg,
		Dispatcher:  dispatcher,
		SortStats:   sortStats,
		ClientStats: clientStats,
		Log:         log,
	}
	srv := server.New(handler, reg, log)

	if *metricsAddr != "" {
		collector := metrics.NewCollector(sortStats, clientStats, reg)
		go func() {
			if err := metrics.Serve(*metricsAddr, collector); err != nil {
				log.Errorf("metrics server stopped: %v", err)
			}
		}()
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		log.Info("shutting down the distributed middleware...")
		srv.Shutdown()
	}()

	banner.Startup(netutil.LocalIP(), *port)

	listenAddr := fmt.Sprintf("0.0.0.0:%d", *port)
	if err := srv.Start(listenAddr); err != nil {
		log.Errorf("listen failed: %v", err)
		os.Exit(1)
	}

	banner.Shutdown(srv.Uptime(), sortStats.Snapshot(), clientStats.Snapshot())
	os.Exit(0)
}
