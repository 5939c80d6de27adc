package main

import (
	"fmt"
	"io"

	"github.com/eapache/queue"
	"github.com/hodgesds/hyperaio"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var blockSize int

var catCmd = &cobra.Command{
	Use:   "cat FILE...",
	Short: "Print files, reading them in batches through the ring.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if blockSize <= 0 {
			return errors.Errorf("block size must be positive, got %d", blockSize)
		}
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

		failed := 0
		for i, path := range args {
			if errs[i] == nil {
				errs[i] = sess.copyFile(cmd, cmd.OutOrStdout(), fds[i])
			}
			if errs[i] != nil {
				failed++
				fmt.Fprintf(cmd.ErrOrStderr(), "hyperaio: %s: %v\n", path, errs[i])
			}
		}
		if failed > 0 {
			return errors.Errorf("%d of %d files failed", failed, len(args))
		}
		return nil
	},
}

func init() {
	catCmd.Flags().IntVarP(&blockSize, "block-size", "b", 64<<10, "bytes per read request")
	rootCmd.AddCommand(catCmd)
}

type chunk struct {
	offset uint64
	buf    []byte
}

// copyFile writes the contents of fd to w. Reads are issued a batch of
// chunks at a time and written in offset order until a short read.
func (s *session) copyFile(cmd *cobra.Command, w io.Writer, fd int32) error {
	pending := queue.New()
	var offset uint64
	window := int(s.cfg.BatchSize)
	for {
		for pending.Length() < window {
			pending.Add(chunk{offset: offset, buf: make([]byte, blockSize)})
			offset += uint64(blockSize)
		}

		chunks := make([]chunk, 0, window)
		reqs := make([]hyperaio.ReadRequest, 0, window)
		for pending.Length() > 0 {
			ch := pending.Remove().(chunk)
			reqs = append(reqs, hyperaio.ReadRequest{
				Fd:     fd,
				Buf:    ch.buf,
				Offset: ch.offset,
				Token:  uint64(len(chunks)),
			})
			chunks = append(chunks, ch)
		}
		if err := s.e.SubmitReadBatch(reqs); err != nil {
			return err
		}

		ctx, cancel := waitContext(cmd)
		got, err := s.c.Wait(ctx, len(reqs))
		cancel()
		if err != nil {
			return err
		}
		res := make([]int32, len(chunks))
		for _, comp := range got {
			res[comp.Token] = comp.Res
		}

		for i, ch := range chunks {
			if res[i] == hyperaio.BusyCode {
				// Not read yet, retried with the next window.
				for _, rest := range chunks[i:] {
					pending.Add(rest)
				}
				break
			}
			if res[i] < 0 {
				return (hyperaio.Completion{Res: res[i]}).Err()
			}
			if _, err := w.Write(ch.buf[:res[i]]); err != nil {
				return err
			}
			if int(res[i]) < blockSize {
				return nil
			}
		}
	}
}
