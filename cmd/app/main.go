package main

import (
	"github.com/humanbelnik/watchparty/internal/app"
	"github.com/humanbelnik/watchparty/internal/config"
)

func main() {
	app.Go(config.Load())
}
