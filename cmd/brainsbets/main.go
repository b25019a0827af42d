package main

import (
	"github.com/alecthomas/kong"
)

// version is set by ldflags during build
var version = "dev"

// Globals are flags shared by every command
type Globals struct {
	Debug     bool   `help:"Enable debug logging"`
	LogFormat string `enum:"text,json" default:"text" help:"Log output format (text or json)"`
}

type CLI struct {
	Globals

	Version        kong.VersionFlag  `short:"v" help:"Show version"`
	Serve          ServeCmd          `cmd:"" help:"Run the game server"`
	Demo           DemoCmd           `cmd:"" help:"Play a short game with scripted players"`
	Categories     CategoriesCmd     `cmd:"" help:"List question categories"`
	ValidateConfig ValidateConfigCmd `cmd:"validate-config" help:"Check an HCL configuration file"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("brainsbets"),
		kong.Description("Guess-then-bet trivia game server"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version": version,
		},
	)
	err := ctx.Run(&cli.Globals)
	ctx.FatalIfErrorf(err)
}
