// config/overlay.go
package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

type routesFile struct {
	Fetch struct {
		Routes []Route `yaml:"routes"`
	} `yaml:"fetch"`
}

// OverlayRoutes replaces the egress route pool from a separate
// routes.yml, so operators can swap proxy lists without touching the
// main config. A missing file is not an error.
func OverlayRoutes(cfg *Config, routesPath string) error {
	b, err := os.ReadFile(routesPath)
	if err != nil {
		// Missing routes file should not kill startup
		return nil
	}

	var rf routesFile
	if err := yaml.Unmarshal(b, &rf); err != nil {
		return err
	}

	if len(rf.Fetch.Routes) > 0 {
		cfg.Fetch.Routes = rf.Fetch.Routes
	}
	return nil
}
