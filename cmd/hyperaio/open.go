package main

import (
	"github.com/hodgesds/hyperaio"
	"github.com/spf13/cobra"
	"golang.org/x/sys/unix"
)

// openAll opens every path with one batch per ring capacity. fds[i] is -1
// when errs[i] is set.
func (s *session) openAll(cmd *cobra.Command, paths []string) ([]int32, []error, error) {
	capacity := s.cfg.Capacity
	fds := make([]int32, len(paths))
	errs := make([]error, len(paths))
	for start := 0; start < len(paths); start += int(capacity) {
		end := min(start+int(capacity), len(paths))
		reqs := make([]hyperaio.OpenRequest, 0, end-start)
		for i := start; i < end; i++ {
			reqs = append(reqs, hyperaio.OpenRequest{
				Dirfd: hyperaio.AtFdcwd,
				Flags: unix.O_RDONLY | unix.O_CLOEXEC,
				Path:  paths[i],
				Token: uint64(i),
			})
		}
		if err := s.e.SubmitOpenBatch(reqs); err != nil {
			return nil, nil, err
		}

		ctx, cancel := waitContext(cmd)
		got, err := s.c.Wait(ctx, len(reqs))
		cancel()
		if err != nil {
			return nil, nil, err
		}
		for _, comp := range got {
			if err := comp.Err(); err != nil {
				fds[comp.Token] = -1
				errs[comp.Token] = err
				continue
			}
			fds[comp.Token] = comp.Res
		}
	}
	return fds, errs, nil
}

func closeAll(fds []int32) {
	for _, fd := range fds {
		if fd >= 0 {
			unix.Close(int(fd))
		}
	}
}
