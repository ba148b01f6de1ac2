package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"fleetd.sh/internal/simulator"
	"fleetd.sh/internal/trace"
)

func newInspectCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "inspect <trace-file>",
		Short: "Replay a trace file and dump the resulting container tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			sim := simulator.New()
			reader := trace.NewReader(f)
			for {
				ev, err := reader.Next()
				if err == io.EOF {
					break
				}
				if err != nil {
					return err
				}
				if err := sim.InputEvent(ev); err != nil {
					fmt.Fprintln(os.Stderr, red(err.Error()))
				}
			}
			if err := sim.Finish(); err != nil {
				fmt.Fprintln(os.Stderr, red(err.Error()))
			}
			return sim.DumpTree(os.Stdout)
		},
	}
	return c
}
