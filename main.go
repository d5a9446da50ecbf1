package main

import (
	cmd "github.com/upliftai/uplift/cmd/uplift"
	"github.com/upliftai/uplift/internal"
)

var log = internal.GetLogger()

func main() {
	log.Info("Starting uplift")
	cmd.Execute()
}
