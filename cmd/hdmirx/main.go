// Command hdmirx runs the TMDS receiver model against generated or
// recorded link input.
package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"
	"github.com/danmuck/hdmirx/internal/config"
	"github.com/danmuck/hdmirx/internal/logging"
)

const version = "0.1.0"

// Globals are flags shared by every command.
type Globals struct {
	ConfigFile string `name:"config" short:"c" help:"Path to a TOML config file" type:"path"`
	LogLevel   string `name:"log-level" help:"Override log.level (trace, debug, info, warn, error, off)"`
}

// CLI is the hdmirx command tree.
type CLI struct {
	Globals

	Simulate SimulateCmd `cmd:"" help:"Run the receiver against a generated test pattern"`
	Capture  CaptureCmd  `cmd:"" help:"Record oversampled lane input to an xz capture file"`
	Replay   ReplayCmd   `cmd:"" help:"Run the receiver against a capture file"`
	Serve    ServeCmd    `cmd:"" help:"Run a continuous simulation with an HTTP status surface"`
	Config   ConfigGroup `cmd:"" help:"Config file helpers"`
	Version  VersionCmd  `cmd:"" help:"Print version information"`
}

// ConfigGroup holds config file commands.
type ConfigGroup struct {
	Init     ConfigInitCmd     `cmd:"" help:"Write the default config to a file"`
	Validate ConfigValidateCmd `cmd:"" help:"Load and validate a config file"`
}

type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	fmt.Println("hdmirx " + version)
	return nil
}

// load resolves the config file and applies logging settings.
func (g *Globals) load() (config.Config, error) {
	logging.ConfigureRuntime()
	cfg := config.Default()
	if g.ConfigFile != "" {
		loaded, err := config.Load(g.ConfigFile)
		if err != nil {
			return config.Config{}, err
		}
		cfg = loaded
	}
	if g.LogLevel != "" {
		cfg.Log.Level = g.LogLevel
		if err := config.Validate(cfg); err != nil {
			return config.Config{}, err
		}
	}
	logging.ApplyLevel(cfg.Log.Level)
	return cfg, nil
}

func newParser(cli *CLI, opts ...kong.Option) (*kong.Kong, error) {
	opts = append([]kong.Option{
		kong.Name("hdmirx"),
		kong.Description("TMDS receiver model: lane alignment, symbol decoding and frame sync"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{Compact: true}),
	}, opts...)
	return kong.New(cli, opts...)
}

func main() {
	var cli CLI
	parser, err := newParser(&cli)
	if err != nil {
		panic(err)
	}
	ctx, err := parser.Parse(os.Args[1:])
	parser.FatalIfErrorf(err)
	err = ctx.Run(&cli.Globals)
	ctx.FatalIfErrorf(err)
}
