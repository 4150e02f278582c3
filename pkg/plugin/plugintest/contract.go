// Package plugintest provides shared contract tests for plugin.Plugin
// implementations. Each module's test file calls TestPluginContract.
package plugintest

import (
	"context"
	"testing"

	"github.com/farmtech/irrigation/pkg/plugin"
	"go.uber.org/zap"
)

// TestPluginContract runs lifecycle contract checks against a module:
//
//	func TestContract(t *testing.T) {
//	    plugintest.TestPluginContract(t, func() plugin.Plugin { return readings.New() })
//	}
//
// Modules receive no Store here; they must tolerate a nil Store during Init.
func TestPluginContract(t *testing.T, factory func() plugin.Plugin) {
	t.Helper()

	t.Run("Info_returns_valid_metadata", func(t *testing.T) {
		info := factory().Info()
		if info.Name == "" {
			t.Error("Info().Name must not be empty")
		}
		if info.Version == "" {
			t.Error("Info().Version must not be empty")
		}
		if info.APIVersion < plugin.APIVersionMin || info.APIVersion > plugin.APIVersionCurrent {
			t.Errorf("Info().APIVersion = %d, outside [%d, %d]",
				info.APIVersion, plugin.APIVersionMin, plugin.APIVersionCurrent)
		}
	})

	t.Run("Init_succeeds_without_store", func(t *testing.T) {
		p := factory()
		if err := p.Init(context.Background(), testDeps(p.Info().Name)); err != nil {
			t.Fatalf("Init() error = %v", err)
		}
	})

	t.Run("Start_then_Stop", func(t *testing.T) {
		p := factory()
		if err := p.Init(context.Background(), testDeps(p.Info().Name)); err != nil {
			t.Fatalf("Init() error = %v", err)
		}
		if err := p.Start(context.Background()); err != nil {
			t.Fatalf("Start() error = %v", err)
		}
		if err := p.Stop(context.Background()); err != nil {
			t.Fatalf("Stop() error = %v", err)
		}
	})

	t.Run("Stop_without_Start", func(t *testing.T) {
		p := factory()
		if err := p.Init(context.Background(), testDeps(p.Info().Name)); err != nil {
			t.Fatalf("Init() error = %v", err)
		}
		if err := p.Stop(context.Background()); err != nil {
			t.Fatalf("Stop() without Start error = %v", err)
		}
	})

	t.Run("Info_is_idempotent", func(t *testing.T) {
		p := factory()
		a, b := p.Info(), p.Info()
		if a.Name != b.Name || a.Version != b.Version {
			t.Error("Info() must return consistent results")
		}
	})
}

func testDeps(name string) plugin.Dependencies {
	return plugin.Dependencies{
		Logger: zap.NewNop().Named(name),
	}
}
