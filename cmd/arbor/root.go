package main

import (
	"fmt"
	"os"

	"github.com/aretw0/arbor/internal/config"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "arbor",
	Short: "Arbor is a dynamic dialog engine for button-driven chats",
	Long: `Arbor runs branching questionnaires and menus over chat channels.
Dialogs are loaded from YAML/JSON documents or generated from live data,
and every button press is routed back to the exact question it belongs to.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	flags := rootCmd.PersistentFlags()
	flags.StringP("config", "c", "", "Path to a YAML config file")
	flags.String("env-file", ".env", "Path to a .env file (ignored when missing)")
	flags.String("log-level", "", "Log level: debug, info, warn, error")
	flags.String("store", "", "Session store driver: memory, redis, sqlite")
	flags.String("dialogs", "", "Directory of dialog documents (*.yaml, *.json)")
	flags.String("locale", "", "Default language (e.g. en, pt)")
}

// loadConfig layers the config file, .env, environment and finally explicit flags.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	flags := cmd.Flags()
	path, _ := flags.GetString("config")
	envFile, _ := flags.GetString("env-file")

	cfg, err := config.Load(path, envFile)
	if err != nil {
		return config.Config{}, err
	}

	overrides := []struct {
		flag string
		dst  *string
	}{
		{"log-level", &cfg.Log.Level},
		{"store", &cfg.Store.Driver},
		{"dialogs", &cfg.Dialogs.Dir},
		{"locale", &cfg.Locale.Default},
		{"addr", &cfg.HTTP.Addr},
	}
	for _, o := range overrides {
		if f := flags.Lookup(o.flag); f != nil && f.Changed {
			*o.dst = f.Value.String()
		}
	}
	return cfg, cfg.Validate()
}
