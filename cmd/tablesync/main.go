package main

import (
	"os"

	"github.com/tablekit/go-tablesync/cmd/tablesync/app"
)

func main() {
	if err := app.Execute(); err != nil {
		os.Exit(1)
	}
}
