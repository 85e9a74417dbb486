package main

import (
	"os"

	dbowcmder "github.com/hupe1980/dbow/cmd/dbow"
)

func main() {
	cmd := dbowcmder.NewDbowCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
