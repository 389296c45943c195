// Package portutil finds free TCP ports for agent processes.
package portutil

import (
	"fmt"
	"net"
)

// FreePort asks the kernel for a free TCP port on localhost.
func FreePort() (int, error) {
	addr, err := net.ResolveTCPAddr("tcp", "127.0.0.1:0")
	if err != nil {
		return 0, err
	}
	l, err := net.ListenTCP("tcp", addr)
	if err != nil {
		return 0, err
	}
	defer func() { _ = l.Close() }()
	return l.Addr().(*net.TCPAddr).Port, nil
}

// FreeRange finds size consecutive free ports starting at or above
// base, returning the first port of the range. It scans upward in
// steps of size so ranges handed to different sessions do not overlap.
func FreeRange(base, size int) (int, error) {
	if size <= 0 {
		return 0, fmt.Errorf("invalid range size %d", size)
	}
	for start := base; start+size <= 65536; start += size {
		if rangeFree(start, size) {
			return start, nil
		}
	}
	return 0, fmt.Errorf("no free range of %d ports at or above %d", size, base)
}

func rangeFree(start, size int) bool {
	for port := start; port < start+size; port++ {
		l, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", port))
		if err != nil {
			return false
		}
		_ = l.Close()
	}
	return true
}
