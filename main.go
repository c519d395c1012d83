package main

import (
	"os"

	"github.com/keyward/keyward/app"
)

func main() {
	err := app.Execute()
	if err != nil {
		os.Exit(1)
	}
}
