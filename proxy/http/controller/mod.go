// Package controller implements the initializer of the HTTP proxy. The proxy
// serves the health and the metrics endpoints, and the routes of the
// component injected as a proxy.Router.
package controller

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.missionstake.io/stake"
	"go.missionstake.io/stake/cli"
	"go.missionstake.io/stake/cli/node"
	"go.missionstake.io/stake/internal/config"
	"go.missionstake.io/stake/proxy"
	httpproxy "go.missionstake.io/stake/proxy/http"
	"golang.org/x/xerrors"
)

const (
	metricsPath = "/metrics"
	healthPath  = "/health"
)

var (
	defaultRetry = 50
	retryDelay   = 100 * time.Millisecond

	proxyFac = func(addr string) proxy.Proxy {
		return httpproxy.NewHTTP(addr)
	}
)

// proxyController starts the HTTP proxy when a listen address is configured.
//
// - implements node.Initializer
type proxyController struct{}

// NewController returns a new initializer of the HTTP proxy.
func NewController() node.Initializer {
	return proxyController{}
}

// SetCommands implements node.Initializer.
func (proxyController) SetCommands(builder node.Builder) {
	cmd := builder.SetCommand("proxy")
	cmd.SetDescription("inspect the HTTP proxy")

	sub := cmd.SetSubCommand("addr")
	sub.SetDescription("print the address of the HTTP API")
	sub.SetAction(builder.MakeAction(addrAction{}))
}

// OnStart implements node.Initializer. It mounts the routes and starts the
// server in the background, and returns once the server is listening.
func (proxyController) OnStart(flags cli.Flags, inj node.Injector) error {
	var cfg *config.Config
	err := inj.Resolve(&cfg)
	if err != nil {
		return xerrors.Errorf("failed to resolve config: %v", err)
	}

	if cfg.HTTP.Listen == "" {
		stake.Logger.Info().Msg("http api disabled")
		return nil
	}

	p := proxyFac(cfg.HTTP.Listen)

	err = registerMetrics(p)
	if err != nil {
		return xerrors.Errorf("failed to register metrics: %v", err)
	}

	p.RegisterRoute(http.MethodGet, healthPath, health)

	var router proxy.Router
	err = inj.Resolve(&router)
	if err == nil {
		router.Routes(p)
	}

	go p.Listen()

	for i := 0; i < defaultRetry && p.GetAddr() == nil; i++ {
		time.Sleep(retryDelay)
	}

	if p.GetAddr() == nil {
		return xerrors.Errorf("failed to start proxy server on %s", cfg.HTTP.Listen)
	}

	inj.Inject(p)

	stake.Logger.Info().Str("addr", p.GetAddr().String()).Msg("http api started")

	return nil
}

// OnStop implements node.Initializer. It stops the server if it was started.
func (proxyController) OnStop(inj node.Injector) error {
	var p proxy.Proxy
	err := inj.Resolve(&p)
	if err == nil && p.GetAddr() != nil {
		p.Stop()
	}

	return nil
}

func registerMetrics(p proxy.Proxy) error {
	registry := prometheus.NewRegistry()

	for _, c := range stake.PromCollectors {
		err := registry.Register(c)
		if err != nil {
			return xerrors.Errorf("failed to register collector: %v", err)
		}
	}

	p.RegisterHandler(metricsPath, promhttp.HandlerFor(registry, promhttp.HandlerOpts{}).ServeHTTP)

	return nil
}

func health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprint(w, `{"status":"ok"}`)
}

// addrAction prints the address of the proxy.
//
// - implements node.ActionTemplate
type addrAction struct{}

// Execute implements node.ActionTemplate.
func (addrAction) Execute(ctx node.Context) error {
	var p proxy.Proxy
	err := ctx.Injector.Resolve(&p)
	if err != nil || p.GetAddr() == nil {
		fmt.Fprint(ctx.Out, "http api is not running")
		return nil
	}

	fmt.Fprintf(ctx.Out, "http://%s", p.GetAddr())

	return nil
}
