// Command collect-events summarizes the request events a gateway writes with
// LOG_FORMAT=json. It reads log lines on stdin.
package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd(os.Stdin).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd(in io.Reader) *cobra.Command {
	var outPath, eventName, eventDomain string
	cmd := &cobra.Command{
		Use:          "collect-events",
		Short:        "Aggregate gateway request events from JSON logs",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c := newCollector(eventName, eventDomain)
			if err := c.readAll(in); err != nil {
				return fmt.Errorf("read logs: %w", err)
			}
			summary := c.summary()
			if outPath != "" {
				if err := writeSummary(outPath, summary); err != nil {
					return err
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), summary.ShortString())
			return nil
		},
	}
	cmd.Flags().StringVar(&outPath, "out", "", "path to write the aggregated JSON summary")
	cmd.Flags().StringVar(&eventName, "event-name", requestEventName, "event name to collect")
	cmd.Flags().StringVar(&eventDomain, "event-domain", requestEventDomain, "event domain to match")
	return cmd
}

func (c *collector) readAll(r io.Reader) error {
	reader := bufio.NewReader(r)
	for {
		line, err := reader.ReadString('\n')
		if len(line) != 0 {
			c.ingest(line)
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

func writeSummary(path string, summary summaryOutput) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	data, err := sonic.ConfigStd.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}
