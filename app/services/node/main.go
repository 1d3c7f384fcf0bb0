package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ardanlabs/conf/v3"
	"github.com/ardanlabs/powledger/app/services/node/handlers"
	"github.com/ardanlabs/powledger/foundation/blockchain/peer"
	"github.com/ardanlabs/powledger/foundation/blockchain/state"
	"github.com/ardanlabs/powledger/foundation/blockchain/worker"
	"github.com/ardanlabs/powledger/foundation/events"
	"github.com/ardanlabs/powledger/foundation/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// build is the git version of this program. It is set using build flags in the makefile.
var build = "develop"

func main() {
	log, err := logger.New("NODE")
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(log); err != nil {
		log.Errorw("startup", "ERROR", err)
		log.Sync()
		os.Exit(1)
	}
}

// config holds every setting the node can be started with. Values can be
// overridden with NODE_ prefixed environment variables or flags.
type config struct {
	conf.Version
	Web struct {
		ReadTimeout     time.Duration `conf:"default:5s"`
		WriteTimeout    time.Duration `conf:"default:120s"`
		IdleTimeout     time.Duration `conf:"default:120s"`
		ShutdownTimeout time.Duration `conf:"default:20s"`
		DebugHost       string        `conf:"default:0.0.0.0:7080"`
		PublicHost      string        `conf:"default:0.0.0.0:8080"`
		PrivateHost     string        `conf:"default:0.0.0.0:9080"`
	}
	State struct {
		NodeID          string        `conf:"help:identifier rewards are paid to and generated when empty"`
		KnownPeers      []string      `conf:"help:peers to resolve conflicts with"`
		PeersFile       string        `conf:"default:zblock/peers.yaml"`
		ResolveInterval time.Duration `conf:"default:0s,help:zero turns peer polling off"`
		FetchTimeout    time.Duration `conf:"default:10s"`
		AutoMine        bool          `conf:"default:false"`
	}
}

func run(log *zap.SugaredLogger) error {

	// =========================================================================
	// Configuration

	cfg := config{
		Version: conf.Version{
			Build: build,
			Desc:  "proof of work ledger node",
		},
	}

	const prefix = "NODE"
	help, err := conf.Parse(prefix, &cfg)
	if err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			fmt.Println(help)
			return nil
		}
		return fmt.Errorf("parsing config: %w", err)
	}

	if cfg.State.NodeID == "" {
		cfg.State.NodeID = strings.ReplaceAll(uuid.NewString(), "-", "")
	}

	log.Infow("starting service", "version", build, "nodeid", cfg.State.NodeID)
	defer log.Infow("shutdown complete")

	out, err := conf.String(&cfg)
	if err != nil {
		return fmt.Errorf("generating config for output: %w", err)
	}
	log.Infow("startup", "config", out)

	// =========================================================================
	// Ledger Support

	peerSet, err := seedPeers(cfg.State.PeersFile, cfg.State.KnownPeers)
	if err != nil {
		return err
	}

	for _, pr := range peerSet.Copy("") {
		log.Infow("startup", "status", "known peer", "host", pr.Host)
	}

	// Every node event is logged. Events carrying the viewer prefix are also
	// pushed to the websocket subscribers.
	evts := events.New()
	forward := evts.Forward("viewer:")
	ev := func(v string, args ...any) {
		s := fmt.Sprintf(v, args...)
		log.Infow(s, "traceid", "00000000-0000-0000-0000-000000000000")
		forward(s)
	}

	st, err := state.New(state.Config{
		NodeID:       cfg.State.NodeID,
		Host:         cfg.Web.PrivateHost,
		KnownPeers:   peerSet,
		FetchTimeout: cfg.State.FetchTimeout,
		AutoMine:     cfg.State.AutoMine,
		EvHandler:    ev,
	})
	if err != nil {
		return err
	}
	defer st.Shutdown()

	// The worker registers itself with the state.
	worker.Run(st, cfg.State.ResolveInterval, ev)

	// =========================================================================
	// Debug Service

	// Not concerned with shutting this down with load shedding.
	go func() {
		log.Infow("startup", "status", "debug router started", "host", cfg.Web.DebugHost)
		if err := http.ListenAndServe(cfg.Web.DebugHost, handlers.DebugMux(build, log)); err != nil {
			log.Errorw("shutdown", "status", "debug router closed", "host", cfg.Web.DebugHost, "ERROR", err)
		}
	}()

	// =========================================================================
	// Public and Private Services

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	muxCfg := handlers.MuxConfig{
		Shutdown: shutdown,
		Log:      log,
		State:    st,
		Evts:     evts,
	}

	servers := []struct {
		name string
		srv  *http.Server
	}{
		{"private", newServer(cfg, cfg.Web.PrivateHost, handlers.PrivateMux(muxCfg), log)},
		{"public", newServer(cfg, cfg.Web.PublicHost, handlers.PublicMux(muxCfg), log)},
	}

	// Buffered so every listener can exit if nobody collects its error.
	serverErrors := make(chan error, len(servers))

	for _, s := range servers {
		go func() {
			log.Infow("startup", "status", s.name+" api router started", "host", s.srv.Addr)
			serverErrors <- s.srv.ListenAndServe()
		}()
	}

	// =========================================================================
	// Shutdown

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		log.Infow("shutdown", "status", "shutdown started", "signal", sig)
		defer log.Infow("shutdown", "status", "shutdown complete", "signal", sig)

		log.Infow("shutdown", "status", "release web socket channels")
		evts.Shutdown()

		for _, s := range servers {
			log.Infow("shutdown", "status", "shutdown "+s.name+" API started")
			if err := shutdownServer(s.srv, cfg.Web.ShutdownTimeout); err != nil {
				return fmt.Errorf("could not stop %s service gracefully: %w", s.name, err)
			}
		}
	}

	return nil
}

// seedPeers builds the initial peer set from the peers file and the
// configured addresses.
func seedPeers(path string, addresses []string) (*peer.PeerSet, error) {
	seeds, err := peer.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to load peers file: %w", err)
	}

	peerSet := peer.NewPeerSet()
	if _, err := peerSet.AddAddresses(append(seeds, addresses...)); err != nil {
		return nil, fmt.Errorf("unable to add known peers: %w", err)
	}

	return peerSet, nil
}

// newServer constructs a server for the handler with the configured timeouts.
func newServer(cfg config, host string, handler http.Handler, log *zap.SugaredLogger) *http.Server {
	return &http.Server{
		Addr:         host,
		Handler:      handler,
		ReadTimeout:  cfg.Web.ReadTimeout,
		WriteTimeout: cfg.Web.WriteTimeout,
		IdleTimeout:  cfg.Web.IdleTimeout,
		ErrorLog:     zap.NewStdLog(log.Desugar()),
	}
}

// shutdownServer gives outstanding requests the timeout to complete before
// the server is closed.
func shutdownServer(srv *http.Server, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		srv.Close()
		return err
	}

	return nil
}
