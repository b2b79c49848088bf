// Command scoutgrid runs a scouting intelligence grid with its HTTP monitor,
// gRPC service and historical bounds store.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/banshee-data/scoutgrid/internal/attack"
	"github.com/banshee-data/scoutgrid/internal/config"
	"github.com/banshee-data/scoutgrid/internal/db"
	"github.com/banshee-data/scoutgrid/internal/intelrpc"
	"github.com/banshee-data/scoutgrid/internal/monitor"
	"github.com/banshee-data/scoutgrid/internal/monitoring"
	"github.com/banshee-data/scoutgrid/internal/persistence/snaplog"
	"github.com/banshee-data/scoutgrid/internal/scouting"
	"github.com/banshee-data/scoutgrid/internal/storage/sqlite"
	"github.com/banshee-data/scoutgrid/internal/synthetic"
	"github.com/banshee-data/scoutgrid/internal/version"
)

var (
	listen        = flag.String("listen", ":8080", "HTTP listen address")
	grpcListen    = flag.String("grpc", "", "gRPC listen address (empty disables the gRPC service)")
	dbPath        = flag.String("db", "scoutgrid.db", "SQLite database for historical bounds (empty disables persistence)")
	configPath    = flag.String("config", "", "Tuning config file (.json, .yaml or .yml); defaults apply when empty")
	syntheticMode = flag.Bool("synthetic", false, "Generate synthetic scouting reports every tick")
	seed          = flag.Int64("seed", 0, "Synthetic generator seed (0 uses the current time)")
	tickRate      = flag.Duration("tick-rate", 0, "Simulation tick period (overrides the config; 0 keeps it)")
	snaplogDir    = flag.String("snaplog", "", "Directory for compressed snapshot logs (empty disables them)")
	quiet         = flag.Bool("quiet", false, "Silence per-pass grid diagnostics")
	showVersion   = flag.Bool("version", false, "Print version and exit")
)

// options are the resolved command line.
type options struct {
	Listen     string
	GRPCListen string
	DBPath     string
	SnaplogDir string
	Synthetic  bool
	Seed       int64
	Tuning     *config.GridTuning
}

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}
	if *quiet {
		monitoring.Mute()
	}

	opts, err := resolveOptions()
	if err != nil {
		log.Fatalf("Invalid options: %v", err)
	}

	log.Printf("Starting %s", version.String())
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts); err != nil {
		log.Fatalf("scoutgrid: %v", err)
	}
	log.Printf("Graceful shutdown complete")
}

func resolveOptions() (options, error) {
	tuning := config.EmptyGridTuning()
	if *configPath != "" {
		var err error
		if tuning, err = config.LoadTuningConfig(*configPath); err != nil {
			return options{}, err
		}
	}
	if *tickRate < 0 {
		return options{}, fmt.Errorf("tick-rate must not be negative, got %v", *tickRate)
	}
	if *tickRate > 0 {
		s := tickRate.String()
		tuning.TickRate = &s
	}
	if *listen == "" {
		return options{}, errors.New("listen address is required")
	}
	s := *seed
	if s == 0 {
		s = time.Now().UnixNano()
	}
	return options{
		Listen:     *listen,
		GRPCListen: *grpcListen,
		DBPath:     *dbPath,
		SnaplogDir: *snaplogDir,
		Synthetic:  *syntheticMode,
		Seed:       s,
		Tuning:     tuning,
	}, nil
}

// run wires every component and blocks until ctx is cancelled.
func run(ctx context.Context, opts options) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	gridCfg := opts.Tuning.ScoutingConfig()

	var (
		database *db.DB
		store    *sqlite.BoundsStore
	)
	if opts.DBPath != "" {
		var err error
		if database, err = db.NewDB(opts.DBPath); err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer database.Close()
		store = sqlite.NewBoundsStore(database, sqlite.Options{QueueSize: opts.Tuning.GetBoundsQueueSize()})
		defer store.Close()
		gridCfg.Bounds = store
	}

	if opts.SnaplogDir != "" {
		w := snaplog.NewWriter(opts.SnaplogDir, snaplog.Options{})
		defer w.Close()
		gridCfg.Listeners = append(gridCfg.Listeners, w)
	}

	grid, err := scouting.New(gridCfg)
	if err != nil {
		return err
	}
	if err := grid.Start(ctx); err != nil {
		return err
	}
	defer grid.Stop()
	predictor := attack.NewPredictor(opts.Tuning.PredictorConfig())

	webCfg := monitor.WebServerConfig{Address: opts.Listen, Grid: grid, Predictor: predictor}
	if store != nil {
		webCfg.Store = store
		webCfg.Admin = database
	}
	web, err := monitor.NewWebServer(webCfg)
	if err != nil {
		return err
	}

	if opts.GRPCListen != "" {
		ep := intelrpc.NewEndpoint(intelrpc.EndpointConfig{ListenAddr: opts.GRPCListen}, intelrpc.NewServer(grid, predictor, nil))
		if err := ep.Start(); err != nil {
			return fmt.Errorf("start gRPC: %w", err)
		}
		defer ep.Stop()
	}

	driverCfg := synthetic.DriverConfig{Grid: grid, TickRate: opts.Tuning.GetTickRate(), StatsEvery: 1000}
	if opts.Synthetic {
		driverCfg.Generator = synthetic.NewGenerator(gridCfg.MapMin, gridCfg.MapMax, opts.Seed)
		log.Printf("Synthetic reports enabled (seed %d)", opts.Seed)
	}
	driver, err := synthetic.NewDriver(driverCfg)
	if err != nil {
		return err
	}

	var wg sync.WaitGroup
	errCh := make(chan error, 1)

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := web.Start(ctx); err != nil {
			errCh <- err
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := driver.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("tick driver: %v", err)
		}
		log.Print("tick driver terminated")
	}()

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errCh:
		cancel()
	}
	wg.Wait()
	return runErr
}
