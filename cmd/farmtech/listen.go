package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/farmtech/irrigation/internal/listener"
	"github.com/farmtech/irrigation/internal/readings"
	"github.com/farmtech/irrigation/internal/weather"
	"github.com/farmtech/irrigation/pkg/plugin"
	"go.uber.org/zap"
)

// runListen runs a single simulated listener in the foreground, printing
// every stored reading until interrupted.
func runListen(args []string) int {
	fs := flag.NewFlagSet("listen", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to configuration file")
	name := fs.String("name", "", "listener name (default plugins.listener.default_name)")
	interval := fs.Duration("interval", 0, "sampling interval, minimum 5s (default plugins.listener.interval)")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	v, logger, ok := loadRuntime(*configPath)
	if !ok {
		return 1
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, v, logger, []plugin.Plugin{readings.New(), weather.New(), listener.New()})
	if err != nil {
		logger.Error("startup failed", zap.Error(err))
		return 1
	}
	if err := a.reg.StartAll(ctx); err != nil {
		logger.Error("failed to start modules", zap.Error(err))
		a.close(context.Background())
		return 1
	}

	lm, ok := module[*listener.Module](a)
	if !ok {
		logger.Error("listener module unavailable")
		a.close(context.Background())
		return 1
	}

	unsubscribe := a.bus.Subscribe(readings.TopicReadingCreated, func(_ context.Context, e plugin.Event) {
		ev, ok := e.Payload.(readings.CreatedEvent)
		if !ok {
			return
		}
		r := ev.Reading
		pump := "off"
		if r.PumpOn {
			pump = "ON"
		}
		fmt.Printf("%s  #%d  humidity %5.1f%%  pH %4.1f  pump %-3s  %s\n",
			r.Timestamp.Local().Format("15:04:05"), r.ID, r.Humidity, r.PH, pump, r.DecisionReason)
	})
	defer unsubscribe()

	listenerName := *name
	if listenerName == "" {
		listenerName = v.GetString("plugins.listener.default_name")
	}
	mgr := lm.Manager()
	if _, _, err := mgr.Create(listenerName, *interval); err != nil {
		logger.Error("create listener", zap.Error(err))
		a.close(context.Background())
		return 1
	}
	l, err := mgr.Start(listenerName)
	if err != nil {
		logger.Error("start listener", zap.Error(err))
		a.close(context.Background())
		return 1
	}
	st := l.Status()
	fmt.Fprintf(os.Stderr, "listener %q sampling every %gs; Ctrl+C to stop\n", st.Name, st.IntervalSeconds)

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	mgr.StopAll()
	a.close(shutdownCtx)

	st = l.Status()
	fmt.Fprintf(os.Stderr, "\nstopped %q: %d samples, %d failures\n", st.Name, st.Samples, st.Failures)
	return 0
}
