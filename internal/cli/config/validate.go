package config

import (
	"fmt"
	"os"
)

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.ShadersDir == "" {
		return fmt.Errorf("shaders_dir is required")
	}
	switch c.OutputFormat {
	case "", "auto", "text", "markdown", "json":
	default:
		return fmt.Errorf("unknown output format %q (want auto, text, markdown or json)", c.OutputFormat)
	}
	if err := c.Compile.Validate(); err != nil {
		return err
	}
	if err := c.Preview.Validate(); err != nil {
		return err
	}
	if c.UI != nil && (c.UI.Port < 0 || c.UI.Port > 65535) {
		return fmt.Errorf("ui.port out of range: %d", c.UI.Port)
	}

	// Directory existence is checked per command so help works anywhere
	return nil
}

// ValidateDirectories checks if required directories exist.
func (c *Config) ValidateDirectories() error {
	if _, err := os.Stat(c.ShadersDir); os.IsNotExist(err) {
		return fmt.Errorf("shaders directory does not exist: %s\nHint: Run 'leapshader init' or use --shaders-dir to specify a different path", c.ShadersDir)
	}
	return nil
}
