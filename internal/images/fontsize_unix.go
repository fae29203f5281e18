//go:build unix

package images

import (
	"os"

	"golang.org/x/sys/unix"
)

// fontSize reads the cell pixel size from the tty winsize ioctl. Terminals
// that report no pixel dimensions get the conventional 8x16 fallback.
func fontSize() (int, int) {
	for _, f := range []*os.File{os.Stdout, os.Stdin, os.Stderr} {
		ws, err := unix.IoctlGetWinsize(int(f.Fd()), unix.TIOCGWINSZ)
		if err != nil {
			continue
		}
		if ws.Col > 0 && ws.Row > 0 && ws.Xpixel > 0 && ws.Ypixel > 0 {
			return int(ws.Xpixel) / int(ws.Col), int(ws.Ypixel) / int(ws.Row)
		}
	}
	return 8, 16
}
