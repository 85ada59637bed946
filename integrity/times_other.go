//go:build !linux

package integrity

import (
	"os"
	"time"
)

// Platforms without a portable ctime fall back to the modification time.
func changeTime(info os.FileInfo) time.Time {
	return info.ModTime()
}
