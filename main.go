package main

import (
	"github.com/sagealpha/sagecli/internal/cli"
)

func main() {
	cli.Run()
}
