//go:build !tinygo

package main

import (
	"flag"
	"fmt"
	"os"

	"pendant/app"
	"pendant/hal"
)

func main() {
	cfg := app.DefaultConfig()
	var volume uint
	flag.BoolVar(&cfg.SelfTest, "selftest", cfg.SelfTest, "Play the tone, sweep and noise checks.")
	flag.BoolVar(&cfg.StoreCheck, "store", cfg.StoreCheck, "Exercise the audio file store.")
	flag.UintVar(&volume, "volume", uint(cfg.Volume), "Initial volume byte (0-255).")
	flag.Parse()

	if volume > 255 {
		volume = 255
	}
	cfg.Volume = uint8(volume)

	if err := app.RunWithConfig(hal.New(), cfg); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
