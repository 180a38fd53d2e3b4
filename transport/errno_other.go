//go:build !unix

package transport

func isErrnoWouldBlock(err error) bool {
	return false
}
