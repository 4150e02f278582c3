// Package config loads FarmTech configuration with Viper and exposes it to
// modules through the plugin.Config interface.
package config

import (
	"time"

	"github.com/farmtech/irrigation/pkg/plugin"
	"github.com/spf13/viper"
)

var _ plugin.Config = (*ViperConfig)(nil)

// ViperConfig wraps a Viper instance to implement plugin.Config.
type ViperConfig struct {
	v *viper.Viper
}

// New creates a Config backed by the given Viper instance. A nil instance
// yields an empty config, so Sub on a missing section is always safe.
func New(v *viper.Viper) *ViperConfig {
	if v == nil {
		v = viper.New()
	}
	return &ViperConfig{v: v}
}

func (c *ViperConfig) Unmarshal(target any) error { return c.v.Unmarshal(target) }
func (c *ViperConfig) Get(key string) any { return c.v.Get(key) }
func (c *ViperConfig) GetString(key string) string { return c.v.GetString(key) }
func (c *ViperConfig) GetInt(key string) int { return c.v.GetInt(key) }
func (c *ViperConfig) GetFloat64(key string) float64 { return c.v.GetFloat64(key) }
func (c *ViperConfig) GetBool(key string) bool { return c.v.GetBool(key) }
func (c *ViperConfig) GetDuration(key string) time.Duration { return c.v.GetDuration(key) }
func (c *ViperConfig) IsSet(key string) bool { return c.v.IsSet(key) }

// Sub returns the config scoped to key. Missing sections yield an empty config.
func (c *ViperConfig) Sub(key string) plugin.Config {
	sub := c.v.Sub(key)
	if sub == nil {
		return New(nil)
	}
	return New(sub)
}

// Viper returns the underlying instance for top-level settings.
func (c *ViperConfig) Viper() *viper.Viper {
	return c.v
}
