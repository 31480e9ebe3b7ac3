package main

import (
	"fmt"
	"os"

	"github.com/jcaisse/curated-content-portal-sub001/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
