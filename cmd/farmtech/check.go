package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/farmtech/irrigation/internal/config"
	"github.com/farmtech/irrigation/internal/irrigation"
	"github.com/farmtech/irrigation/internal/registry"
	"github.com/farmtech/irrigation/internal/server"
	"go.uber.org/zap"
)

func runCheck(args []string) int {
	fs := flag.NewFlagSet("check", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to configuration file")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	fmt.Println("FarmTech system check")
	fmt.Println()

	v, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "  [FAIL] configuration  %v\n", err)
		return 1
	}
	cfg := config.New(v)

	steps := []step{
		{"configuration", func(context.Context) (string, error) {
			if _, err := server.ConfigFromViper(v); err != nil {
				return "", err
			}
			th, err := irrigation.ThresholdsFromConfig(cfg)
			if err != nil {
				return "", err
			}
			if err := th.Validate(); err != nil {
				return "", err
			}
			src := v.ConfigFileUsed()
			if src == "" {
				src = "defaults"
			}
			return src, nil
		}},
		{"modules", func(context.Context) (string, error) {
			reg := registry.New(zap.NewNop())
			for _, m := range allModules() {
				if err := reg.Register(m); err != nil {
					return "", err
				}
			}
			if err := reg.Validate(); err != nil {
				return "", err
			}
			return fmt.Sprintf("%d modules resolve", len(reg.All())), nil
		}},
		{"data directory", func(context.Context) (string, error) {
			dir := v.GetString("server.data_dir")
			f, err := os.CreateTemp(dir, ".farmtech-check-*")
			if err != nil {
				return "", fmt.Errorf("%s not writable: %w", dir, err)
			}
			name := f.Name()
			f.Close()
			_ = os.Remove(name)
			return dir + " writable", nil
		}},
		{"database", func(ctx context.Context) (string, error) {
			db, err := openStore(ctx, v)
			if err != nil {
				return "", err
			}
			defer db.Close()
			counts, err := db.TableCounts(ctx)
			if err != nil {
				return "", err
			}
			n, ok := counts["sensor_readings"]
			if !ok {
				return "", errors.New("readings table missing; run farmtech setup")
			}
			return fmt.Sprintf("%s (%d readings)", db.Path(), n), nil
		}},
		{"auth", func(context.Context) (string, error) {
			tokens, err := tokenService(v)
			if err != nil {
				return "", err
			}
			if tokens == nil {
				return "no jwt secret; write routes unguarded", nil
			}
			return "operator tokens enabled", nil
		}},
	}

	if failed := report(os.Stdout, runConcurrent(context.Background(), steps)); failed > 0 {
		fmt.Println("\n  system is NOT ready")
		return 1
	}
	fmt.Println("\n  system ready; run: farmtech serve")
	return 0
}
