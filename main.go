package main

import (
	"os"

	"github.com/slmtnm/s4fs/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
