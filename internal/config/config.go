package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/hyyve/flowcanvas/internal/viewport"
)

type Config struct {
	Port           int     `envconfig:"PORT" default:"8080"`
	JWTSecret      string  `envconfig:"JWT_SECRET" default:"dev-secret-change-in-production"`
	AllowedOrigins string  `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:5173,http://localhost:3000"`
	AllowAnonymous bool    `envconfig:"ALLOW_ANONYMOUS" default:"false"`
	ZoomMin        float64 `envconfig:"ZOOM_MIN" default:"0.1"`
	ZoomMax        float64 `envconfig:"ZOOM_MAX" default:"2.0"`
	NodeTypesFile  string  `envconfig:"NODE_TYPES_FILE"`
	LogLevel       string  `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat      string  `envconfig:"LOG_FORMAT" default:"text"`
}

// Load reads the environment. Files listed in envFiles are loaded first when
// they exist; variables already set in the process environment win.
func Load(envFiles ...string) (*Config, error) {
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if !cfg.Limits().Valid() {
		return nil, fmt.Errorf("invalid zoom range [%g, %g]", cfg.ZoomMin, cfg.ZoomMax)
	}
	return &cfg, nil
}

func (c *Config) Limits() viewport.Limits {
	return viewport.Limits{Min: c.ZoomMin, Max: c.ZoomMax}
}

// Origins splits AllowedOrigins on commas.
func (c *Config) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// OriginHosts returns the host part of each allowed origin, the form websocket
// origin patterns take.
func (c *Config) OriginHosts() []string {
	var out []string
	for _, o := range c.Origins() {
		if u, err := url.Parse(o); err == nil && u.Host != "" {
			out = append(out, u.Host)
			continue
		}
		out = append(out, o)
	}
	return out
}
