// Package app provides the application initialization and wiring.
package app

import (
	"errors"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DefaultRegistryPath is where the project registry lives unless
// registry.path says otherwise.
const DefaultRegistryPath = "/var/lib/sitehost/registry.db"

// ConfigureViper sets up viper with standard config file search paths.
// Config file: sitehost.toml
// Search paths (in order): current directory, ~/.config/sitehost, /etc/sitehost
func ConfigureViper(v *viper.Viper, configPath string) {
	if configPath != "" {
		v.SetConfigFile(configPath)
		return
	}
	v.SetConfigName("sitehost")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/sitehost")
	v.AddConfigPath("/etc/sitehost")
}

// loadDotEnv loads KEY=VALUE pairs from the given files into the process
// environment. Missing files are skipped and variables already set win.
func loadDotEnv(files ...string) error {
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return err
		}
	}
	return nil
}
