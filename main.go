package main

import (
	"fmt"
	"os"
	_ "time/tzdata"

	"github.com/kubotadaichi/HealthManagement/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
