//go:build unix

package sysparams

import (
	"fmt"

	"golang.org/x/sys/unix"
)

func openMax() (uint64, error) {
	var rl unix.Rlimit
	if err := unix.Getrlimit(unix.RLIMIT_NOFILE, &rl); err != nil {
		return 0, fmt.Errorf("sysparams: getrlimit(RLIMIT_NOFILE): %w", err)
	}
	if rl.Cur == unix.RLIM_INFINITY {
		return ^uint64(0), nil
	}
	return uint64(rl.Cur), nil //nolint:unconvert // Rlimit.Cur 在部分平台为 int64
}
