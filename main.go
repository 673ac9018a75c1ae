/*
This is an example of application that will use the
engine package to record frames against the headless backend
*/
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spaghettifunk/jobgraph/engine"
	"github.com/spaghettifunk/jobgraph/engine/core"
	"github.com/spaghettifunk/jobgraph/engine/renderer/headless"
	"github.com/spaghettifunk/jobgraph/testbed"
)

func main() {
	tb := testbed.NewTestGame("testbed/config.toml")

	engine, err := engine.New(tb.Game, headless.New(8))
	if err != nil {
		panic(err)
	}

	if err := engine.Initialize(); err != nil {
		panic(err)
	}

	// signal channel to capture system calls
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)

	// stop the frame loop on sigterm and friends
	go func() {
		<-sigCh
		engine.Stop()
	}()

	// run engine
	if err := engine.Run(context.Background()); err != nil {
		core.LogError("%s", err)
	}
	if err := engine.Shutdown(); err != nil {
		panic(err)
	}
}
