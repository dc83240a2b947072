package main

import (
	"bufio"
	"strings"

	"github.com/ieee0824/travatar-go/ngramlm"
	"github.com/spf13/cobra"
)

func newLMBuildCommand() *cobra.Command {
	var (
		order   int
		output  string
		verbose bool
	)

	cmd := &cobra.Command{
		Use:   "lmbuild [input-files...]",
		Short: "Build an ARPA n-gram language model from tokenized text",
		Long: `Builds an ARPA n-gram language model from tokenized text.
Input: one sentence per line, words separated by spaces.
If no input files are given, reads from stdin.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(verbose)
			b := ngramlm.NewBuilder(order)

			var sentCount int
			if len(args) == 0 {
				n, err := readLMLines(b, "-")
				if err != nil {
					return err
				}
				sentCount = n
			} else {
				for _, path := range args {
					n, err := readLMLines(b, path)
					if err != nil {
						logger.Warn("skipping input", "path", path, "error", err)
						continue
					}
					sentCount += n
				}
			}

			out, closeFn, err := openOutput(output)
			if err != nil {
				return err
			}
			defer closeFn()

			if err := b.WriteARPA(out); err != nil {
				return err
			}
			logger.Info("model built", "order", order, "sentences", sentCount)
			return nil
		},
	}

	cmd.Flags().IntVar(&order, "order", 3, "n-gram order (2=bigram, 3=trigram; other values are clamped to 2..3)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "debug-level logging")
	return cmd
}

func readLMLines(b *ngramlm.Builder, path string) (int, error) {
	f, closeFn, err := openOrStdin(path)
	if err != nil {
		return 0, err
	}
	defer closeFn()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024)
	count := 0
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		words := strings.Fields(line)
		b.AddSentence(words)
		count++
	}
	return count, scanner.Err()
}
