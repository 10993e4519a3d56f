package main

import (
	"context"
	"os"

	"github.com/longkidkoolstar/jsonviewer/internal/cli"
)

func main() {
	os.Exit(cli.Execute(context.Background(), os.Args[1:], cli.Options{}))
}
