package main

import (
	"github.com/Paintersrp/rstrtr/internal/cli"
	"github.com/Paintersrp/rstrtr/internal/metrics"
)

func main() {
	metrics.EmitBuildInfo()
	cli.Execute()
}
