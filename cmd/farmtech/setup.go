package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/farmtech/irrigation/internal/auth"
	"github.com/farmtech/irrigation/internal/config"
	"github.com/farmtech/irrigation/internal/irrigation"
	"github.com/farmtech/irrigation/internal/readings"
	"github.com/farmtech/irrigation/internal/seed"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

func runSetup(args []string) int {
	fs := flag.NewFlagSet("setup", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to configuration file")
	noSeed := fs.Bool("no-seed", false, "skip sample data")
	seedHours := fs.Int("seed-hours", seed.DefaultOptions().Hours, "hours of sample readings")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	fmt.Println("FarmTech setup")
	fmt.Println()

	ctx := context.Background()
	var (
		v *viper.Viper
		a *app
	)
	defer func() {
		if a != nil {
			a.close(ctx)
		}
	}()

	steps := []step{
		{"configuration", func(context.Context) (string, error) {
			var err error
			v, err = config.Load(*configPath)
			if err != nil {
				return "", err
			}
			return ensureSecret(v)
		}},
		{"directories", func(context.Context) (string, error) {
			if v == nil {
				return "", errors.New("configuration not loaded")
			}
			return ensureDirs(v)
		}},
		{"database", func(ctx context.Context) (string, error) {
			if v == nil {
				return "", errors.New("configuration not loaded")
			}
			var err error
			a, err = newApp(ctx, v, zap.NewNop(), allModules())
			if err != nil {
				return "", err
			}
			return a.db.Path() + " migrated", nil
		}},
		{"sample data", func(ctx context.Context) (string, error) {
			if *noSeed {
				return "skipped (-no-seed)", nil
			}
			if a == nil {
				return "", errors.New("database not initialized")
			}
			return populate(ctx, a, *seedHours)
		}},
		{"verify", func(ctx context.Context) (string, error) {
			if a == nil {
				return "", errors.New("database not initialized")
			}
			counts, err := a.db.TableCounts(ctx)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("%d readings stored", counts["sensor_readings"]), nil
		}},
	}

	if failed := report(os.Stdout, runSequential(ctx, steps)); failed > 0 {
		fmt.Println("\n  setup finished with errors")
		return 1
	}
	fmt.Println("\n  setup complete; start the server with: farmtech serve")
	return 0
}

// ensureSecret generates auth.jwt_secret when missing and writes it back
// to the config file.
func ensureSecret(v *viper.Viper) (string, error) {
	if v.GetString("auth.jwt_secret") != "" {
		return "using " + v.ConfigFileUsed(), nil
	}
	secret, err := auth.GenerateSecret()
	if err != nil {
		return "", err
	}
	v.Set("auth.jwt_secret", secret)

	target := v.ConfigFileUsed()
	if target == "" {
		target = config.DefaultPath
		if err := config.WriteDefaults(v, target); err != nil {
			return "", err
		}
	} else if err := v.WriteConfigAs(target); err != nil {
		return "", fmt.Errorf("write %s: %w", target, err)
	}
	return "jwt secret generated in " + target, nil
}

func ensureDirs(v *viper.Viper) (string, error) {
	dataDir := v.GetString("server.data_dir")
	dirs := []string{
		dataDir,
		filepath.Join(dataDir, "backups"),
		filepath.Dir(v.GetString("database.path")),
	}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0o750); err != nil {
			return "", fmt.Errorf("create %s: %w", d, err)
		}
	}
	return dataDir, nil
}

func populate(ctx context.Context, a *app, hours int) (string, error) {
	rm, ok := module[*readings.Module](a)
	if !ok {
		return "", errors.New("readings module not registered")
	}
	th, err := irrigation.ThresholdsFromConfig(a.cfg)
	if err != nil {
		return "", err
	}

	opts := seed.DefaultOptions()
	opts.Hours = hours
	res, err := seed.Populate(ctx, rm.Store(), th, opts)
	if err != nil {
		return "", err
	}
	if res.Skipped {
		return fmt.Sprintf("database already holds %d readings", res.Existing), nil
	}
	return fmt.Sprintf("%d readings added (%d irrigations, %d emergencies)", res.Inserted, res.PumpOn, res.Emergencies), nil
}
