package main

import (
	"os"

	"github.com/docket-app/docket/app"
)

func main() {
	err := app.Execute()
	if err != nil {
		os.Exit(1)
	}
}
