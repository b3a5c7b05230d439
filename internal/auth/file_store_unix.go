//go:build unix

package auth

import (
	"fmt"
	"os"
	"syscall"
)

// checkPrivateDir rejects a directory other users could write to or own
func checkPrivateDir(info os.FileInfo) error {
	if perm := info.Mode().Perm(); perm&0077 != 0 {
		return fmt.Errorf("mode %#o is open to other users, expected 0700", perm)
	}
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return nil
	}
	if uid := os.Getuid(); int(stat.Uid) != uid {
		return fmt.Errorf("owned by uid %d, not %d", stat.Uid, uid)
	}
	return nil
}
