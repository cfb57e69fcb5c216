package main

import (
	"github.com/robotalks/mp3.go/pkg/bridge/env"
	"github.com/robotalks/mp3.go/pkg/cli/sh"
	"github.com/robotalks/mp3.go/pkg/player"
	"github.com/robotalks/mp3.go/pkg/serial"
	"github.com/robotalks/mp3.go/pkg/sim"
)

//go-build: CGO_ENABLED=0

func init() {
	env.SetupConnectorFlags()
	serial.SetupFlags()
	sim.SetupFlags()
	player.SetupFlags()
}

func main() {
	sh.Main()
}
