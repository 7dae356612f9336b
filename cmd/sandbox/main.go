// Command sandbox loads a scene and steps it, optionally drawing it in the
// terminal and streaming snapshots to websocket viewers.
package main

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/akmonengine/planar"
	"github.com/akmonengine/planar/actor"
	"github.com/akmonengine/planar/config"
	"github.com/akmonengine/planar/debugserver"
	"github.com/akmonengine/planar/snapshot"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

//go:embed scene.yaml
var defaultScene []byte

// logEvery is the number of steps between two progress lines.
const logEvery = 60

type options struct {
	scene string
	steps int
	dt    float64
	debug bool
	view  bool
	addr  string
}

func main() {
	var opts options
	flag.StringVar(&opts.scene, "scene", "", "scene file, the built-in scene when empty")
	flag.IntVar(&opts.steps, "steps", 600, "number of steps, 0 runs until interrupted")
	flag.Float64Var(&opts.dt, "dt", 1.0/60.0, "time step in seconds")
	flag.BoolVar(&opts.debug, "debug", false, "development logging")
	flag.BoolVar(&opts.view, "view", false, "draw the world in the terminal")
	flag.StringVar(&opts.addr, "addr", "", "serve snapshots on this address (e.g. :8080)")
	flag.Parse()

	logger, err := newLogger(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(logger, opts); err != nil {
		logger.Fatal("sandbox failed", zap.Error(err))
	}
}

// newLogger writes to sandbox.log while the terminal view owns the screen.
func newLogger(opts options) (*zap.Logger, error) {
	if !opts.view {
		if opts.debug {
			return zap.NewDevelopment()
		}
		return zap.NewProduction()
	}

	cfg := zap.NewProductionConfig()
	if opts.debug {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.OutputPaths = []string{"sandbox.log"}
	cfg.ErrorOutputPaths = []string{"sandbox.log"}
	return cfg.Build()
}

func loadScene(path string) (*config.Scene, error) {
	if path == "" {
		return config.Load(bytes.NewReader(defaultScene))
	}
	return config.LoadFile(path)
}

func run(logger *zap.Logger, opts options) error {
	if opts.dt <= 0 {
		return fmt.Errorf("invalid time step %v", opts.dt)
	}

	scene, err := loadScene(opts.scene)
	if err != nil {
		return err
	}
	w, geoms, err := scene.NewWorld(logger.Named("world"))
	if err != nil {
		return err
	}
	logger.Info("scene loaded", zap.String("scene", opts.scene), zap.Int("geoms", len(geoms)))
	logEvents(logger.Named("events"), w)

	var v *view
	if opts.view {
		if v, err = newView(); err != nil {
			return err
		}
		defer v.close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)

	var srv *debugserver.Server
	if opts.addr != "" {
		srv = debugserver.New(logger.Named("debugserver"))
		httpServer := &http.Server{Addr: opts.addr, Handler: srv}

		g.Go(func() error {
			logger.Info("debug server listening", zap.String("addr", opts.addr), zap.String("run", srv.RunID()))
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			srv.Close()
			return httpServer.Shutdown(context.Background())
		})
	}

	g.Go(func() error {
		defer cancel()
		simulate(ctx, logger, w, opts, v, srv)
		return nil
	})
	return g.Wait()
}

// simulate steps the world until the step count is reached, the context is
// done or the view is closed. It runs in real time when something watches.
func simulate(ctx context.Context, logger *zap.Logger, w *planar.World, opts options, v *view, srv *debugserver.Server) {
	var tick <-chan time.Time
	if v != nil || srv != nil {
		ticker := time.NewTicker(time.Duration(opts.dt * float64(time.Second)))
		defer ticker.Stop()
		tick = ticker.C
	}

	for i := 1; opts.steps == 0 || i <= opts.steps; i++ {
		if tick != nil {
			select {
			case <-ctx.Done():
				return
			case <-tick:
			}
		} else if ctx.Err() != nil {
			return
		}

		w.Step(opts.dt)

		logged := i%logEvery == 0 || i == opts.steps
		if !logged && v == nil && srv == nil {
			continue
		}

		snap := snapshot.Capture(w)
		if logged {
			logger.Info("step",
				zap.Uint64("step", snap.Step),
				zap.Float64("time", snap.Time),
				zap.Int("contacts", len(snap.Contacts)),
				zap.Int("awake", awakeBodies(w)),
				zap.String("digest", fmt.Sprintf("%016x", snap.Digest())),
			)
		}
		if srv != nil {
			srv.Publish(snap)
		}
		if v != nil {
			if v.quit() {
				return
			}
			v.draw(snap)
		}
	}
}

func awakeBodies(w *planar.World) int {
	n := 0
	for _, body := range w.Bodies() {
		if body.BodyType() == actor.BodyTypeDynamic && body.IsAwake() {
			n++
		}
	}
	return n
}

func logEvents(logger *zap.Logger, w *planar.World) {
	w.Events.Subscribe(planar.COLLISION_ENTER, func(event planar.Event) {
		e := event.(planar.CollisionEnterEvent)
		logger.Debug("collision enter",
			zap.Any("a", e.GeomA.Tag), zap.Any("b", e.GeomB.Tag), zap.Float64("depth", e.Manifold.Depth))
	})
	w.Events.Subscribe(planar.COLLISION_EXIT, func(event planar.Event) {
		e := event.(planar.CollisionExitEvent)
		logger.Debug("collision exit", zap.Any("a", e.GeomA.Tag), zap.Any("b", e.GeomB.Tag))
	})
	w.Events.Subscribe(planar.TRIGGER_ENTER, func(event planar.Event) {
		e := event.(planar.TriggerEnterEvent)
		logger.Info("trigger enter", zap.Any("a", e.GeomA.Tag), zap.Any("b", e.GeomB.Tag))
	})
	w.Events.Subscribe(planar.TRIGGER_EXIT, func(event planar.Event) {
		e := event.(planar.TriggerExitEvent)
		logger.Info("trigger exit", zap.Any("a", e.GeomA.Tag), zap.Any("b", e.GeomB.Tag))
	})
	w.Events.Subscribe(planar.ON_SLEEP, func(event planar.Event) {
		logger.Debug("sleep", zap.Any("body", event.(planar.SleepEvent).Body.Tag))
	})
	w.Events.Subscribe(planar.ON_WAKE, func(event planar.Event) {
		logger.Debug("wake", zap.Any("body", event.(planar.WakeEvent).Body.Tag))
	})
}
