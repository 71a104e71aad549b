package main

import (
	"os"

	"github.com/dalemusser/admitportal/internal/app/cli"
)

func main() {
	os.Exit(cli.Execute())
}
