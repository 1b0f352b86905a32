package main

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/hupe1980/tutormesh/config"
	"github.com/hupe1980/tutormesh/logging"
)

type rootFlags struct {
	configPath string
	logLevel   string
}

func newRootCMD() *cobra.Command {
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:          "tutormesh",
		Short:        "Tutor for beginner IT students backed by documents, encyclopedia and web search",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "config file (default is ./tutormesh.yaml)")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "override log.level")

	root.AddCommand(serveCMD(flags), askCMD(flags), indexCMD(flags))

	return root
}

// load reads the config and builds the logger writing to w.
func (f *rootFlags) load(w io.Writer) (*config.Config, logging.Logger, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return nil, nil, err
	}

	if f.logLevel != "" {
		cfg.Log.Level = f.logLevel
	}

	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, nil, err
	}

	logger := logging.NewLogger(&logging.LoggerConfig{
		Level:     level,
		Format:    cfg.Log.Format,
		Output:    w,
		Component: "tutormesh",
	})

	return cfg, logger, nil
}
