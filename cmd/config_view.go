package cmd

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"buddy-mcp/config"
)

// ShowSettings loads application settings and prints a masked YAML to stdout.
func ShowSettings(cli *CLI) error {
	cfg, err := config.GetConfig(cli.ConfigPath)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	out, err := renderMaskedConfigYAML(cfg)
	if err != nil {
		return err
	}
	fmt.Fprintln(cli.out, out)
	return nil
}

// renderMaskedConfigYAML returns YAML of config with secrets masked.
func renderMaskedConfigYAML(cfg *config.Config) (string, error) {
	safe := *cfg
	safe.GitHub.Token = maskSecret(cfg.GitHub.Token)
	if cfg.GitHub.App.PrivateKey != "" {
		safe.GitHub.App.PrivateKey = "[masked PEM]"
	}
	safe.Supabase.ServiceRoleKey = maskSecret(cfg.Supabase.ServiceRoleKey)
	safe.Vercel.Token = maskSecret(cfg.Vercel.Token)

	b, err := yaml.Marshal(&safe)
	if err != nil {
		return "", fmt.Errorf("failed to marshal config: %w", err)
	}
	return string(b), nil
}

func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	// Keep last 4 characters if reasonably long, else mask fully
	if len(s) > 8 {
		return "[masked]..." + s[len(s)-4:]
	}
	return "[masked]"
}
