package main

import (
	"os"

	"github.com/tentimesukulele/BobiPlanCheck/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
