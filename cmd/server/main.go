package main

import (
	"context"
	"os"

	_ "gotimer/backend/docs"
)

// @title           Go Timer API
// @version         1.0
// @description     Game clock backend with byoyomi overtime: accounts, guest sessions, games, moves and statistics.
// @host            localhost:5001
// @BasePath        /api
func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
