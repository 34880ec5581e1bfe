// Command wakelight runs the bedside alarm: it turns the light off when a
// hand is detected, turns it back on at the alarm time and records how long
// the sleeper slept.
package main

import (
	"log"

	"github.com/alecthomas/kong"

	"github.com/sweeney/wakelight/internal/config"
)

func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		log.Printf("warning: %v", err)
	}

	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("wakelight"),
		kong.Description("Hand-activated sleep light and wake alarm."),
		kong.UsageOnError(),
	)
	if err := ctx.Run(&cli); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
