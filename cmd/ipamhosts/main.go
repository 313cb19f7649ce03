package main

import (
	"os"

	"ipamhosts/cmd/ipamhosts/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
