package main

import (
	"github.com/alecthomas/kong"

	"github.com/arvernus/irock-programmer/internal/cli"
)

func main() {
	var c cli.CLI
	ctx := kong.Parse(&c,
		kong.Name("irockprog"),
		kong.Description("Download and flash iRock firmware from GitHub releases."),
		kong.UsageOnError(),
	)
	err := ctx.Run(&c)
	ctx.FatalIfErrorf(err)
}
