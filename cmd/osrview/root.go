package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/gogpu/osr"
	"github.com/gogpu/osr/config"
)

// app carries state shared by subcommands.
type app struct {
	v         *viper.Viper
	cfgFile   string
	cfg       *config.Config
	logCloser io.Closer
}

func newRootCmd() *cobra.Command {
	return newApp().command()
}

func newApp() *app {
	return &app{v: viper.New()}
}

func (a *app) command() *cobra.Command {
	root := &cobra.Command{
		Use:           "osrview",
		Short:         "Render web pages off-screen",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			if a.logCloser != nil {
				return a.logCloser.Close()
			}
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&a.cfgFile, "config", "c", "", "config file (default ./osr.yaml)")
	pf.Int("width", 0, "view width in pixels")
	pf.Int("height", 0, "view height in pixels")
	pf.Float64("scale", 0, "device scale factor")
	pf.Bool("transparent", false, "transparent page background")
	pf.String("backend", "", "texture backend (software, wgpu)")
	pf.String("log-level", "", "log level (debug, info, warn, error)")
	pf.StringSlice("engine-arg", nil, "extra Chromium switch, repeatable")

	bindFlag(a.v, "browser.width", pf.Lookup("width"))
	bindFlag(a.v, "browser.height", pf.Lookup("height"))
	bindFlag(a.v, "browser.scale_factor", pf.Lookup("scale"))
	bindFlag(a.v, "browser.transparent", pf.Lookup("transparent"))
	bindFlag(a.v, "render.backend", pf.Lookup("backend"))
	bindFlag(a.v, "logger.level", pf.Lookup("log-level"))
	bindFlag(a.v, "browser.engine_args", pf.Lookup("engine-arg"))

	root.AddCommand(newRunCmd(a), newSourceCmd(a), newConfigCmd(a))
	return root
}

// init loads the configuration and installs the logger.
func (a *app) init(cmd *cobra.Command) error {
	cfg, err := config.Load(a.v, a.cfgFile)
	if err != nil {
		return err
	}
	logger, closer, err := newLogger(cfg.Logger, cmd.ErrOrStderr())
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	a.cfg = cfg
	a.logCloser = closer
	osr.SetLogger(logger)
	logger.Debug("osrview: configuration loaded", "file", a.v.ConfigFileUsed())
	return nil
}

func bindFlag(v *viper.Viper, key string, f *pflag.Flag) {
	if err := v.BindPFlag(key, f); err != nil {
		panic(fmt.Sprintf("osrview: bind %s: %v", key, err))
	}
}
