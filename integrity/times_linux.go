//go:build linux

package integrity

import (
	"os"
	"syscall"
	"time"
)

// changeTime returns the inode change time (ctime) of an entry.
func changeTime(info os.FileInfo) time.Time {
	if st, ok := info.Sys().(*syscall.Stat_t); ok {
		return time.Unix(st.Ctim.Sec, st.Ctim.Nsec)
	}
	return info.ModTime()
}
