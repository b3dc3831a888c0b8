//go:build tinygo

package main

import (
	"freqpanel/app"
	"freqpanel/hal"
)

func main() {
	app.Run(hal.New())
}
