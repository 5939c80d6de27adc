package main

import (
	"fmt"
	"strings"

	"github.com/hodgesds/hyperaio"
	"github.com/spf13/cobra"
)

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Report whether io_uring may be used and what the kernel supports.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		e := hyperaio.New(hyperaio.WithLogger(log.WithField("component", "hyperaio")))
		perm := e.QuerySupport()
		fmt.Fprintf(out, "support: %#x\n", perm)
		if perm&hyperaio.PermRing == 0 {
			return nil
		}

		p, err := hyperaio.Probe()
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "sq entries: %d\ncq entries: %d\n", p.SqEntries, p.CqEntries)
		fmt.Fprintf(out, "features: %s\n", strings.Join(hyperaio.FeatureNames(p.Features), ","))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(probeCmd)
}
