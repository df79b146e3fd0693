package main

import (
	"os"

	"github.com/flammafex/rendezvous/cmd/rendezvous/commands"
)

func main() {
	os.Exit(commands.Execute())
}
