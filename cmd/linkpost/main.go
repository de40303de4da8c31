package main

import (
	"fmt"
	"os"

	"github.com/dgallion1/linkpost/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "linkpost:", err)
		os.Exit(1)
	}
}
