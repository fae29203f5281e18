//go:build !unix

package images

// fontSize has no winsize ioctl off POSIX; assume the common 8x16 cell.
func fontSize() (int, int) {
	return 8, 16
}
