// Command travatar is the CLI front-end over the decoder, LM trainer,
// MERT-style tuner, and n-best rescorer: the thin, file-and-flag shell
// around packages chart, ngramlm, tuning and rule that the original ships
// as a suite of separate binaries under one roof (spec.md section 9's
// "CLI surface" supplement).
package main

import (
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	root := &cobra.Command{
		Use:     "travatar",
		Short:   "Syntax-based statistical machine translation decoder",
		Version: version,
	}

	root.AddCommand(newDecodeCommand(), newLMBuildCommand(), newTuneCommand(), newRescoreCommand())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
