//go:build tinygo

package main

import (
	"pendant/app"
	"pendant/hal"
)

func main() {
	if err := app.Run(hal.New()); err != nil {
		println("pendant:", err.Error())
	}
	for {
	}
}
