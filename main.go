package main

import (
	"log"
)

var (
	GitCommit string
	GitTag    string
	BuildTime string
)

// @title Bookworm Platform API
// @version 1.0
// @description Book discovery and reading tracking platform api.
// @BasePath /
func main() {
	app, err := NewApp()
	if err != nil {
		log.Fatal("application failed to initialize: ", err)
	}
	err = app.Run()
	if err != nil {
		log.Fatal("application exited. check logs for more details.", err)
	}
}
