package main

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var statCmd = &cobra.Command{
	Use:   "stat FILE...",
	Short: "Open files through the ring and report the results.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := startSession(cmd)
		if err != nil {
			return err
		}
		defer sess.close()

		fds, errs, err := sess.openAll(cmd, args)
		if err != nil {
			return err
		}
		defer closeAll(fds)

		out := cmd.OutOrStdout()
		failed := 0
		for i, path := range args {
			if errs[i] != nil {
				failed++
				fmt.Fprintf(out, "%s\terror=%v\n", path, errs[i])
				continue
			}
			fmt.Fprintf(out, "%s\tfd=%d\n", path, fds[i])
		}
		s := sess.e.Stats()
		fmt.Fprintf(out, "opened=%d read=%d cancelled=%d harvested=%d\n", s.Opened, s.Read, s.Cancelled, s.Harvested)
		if failed > 0 {
			return errors.Errorf("%d of %d files failed to open", failed, len(args))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statCmd)
}
