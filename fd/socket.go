/*
 *  Copyright (c) 2024 Mikhail Knyazhev <markus621@yandex.ru>. All rights reserved.
 *  Use of this source code is governed by a BSD 3-Clause license that can be found in the LICENSE file.
 */

package fd

import (
	"io"
	"net"
	"strconv"

	"go.osspkg.com/errors"
	"golang.org/x/sys/unix"

	"go.osspkg.com/relay/errs"
)

// Socket is an accepted non-blocking stream descriptor.
// It is not attached to the Go netpoller, every call returns immediately.
type Socket struct {
	fd   int
	addr string
}

func NewSocket(fd int, sa unix.Sockaddr) *Socket {
	return &Socket{fd: fd, addr: SockaddrString(sa)}
}

// Accept takes one pending connection from the listen descriptor lfd.
// ErrWouldBlock means the backlog is empty.
func Accept(lfd int) (*Socket, error) {
	for {
		nfd, sa, err := unix.Accept4(lfd, unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC)
		switch {
		case err == nil:
			return NewSocket(nfd, sa), nil
		case errors.Is(err, unix.EINTR), errors.Is(err, unix.ECONNABORTED):
			continue
		case errors.Is(err, unix.EAGAIN):
			return nil, errs.ErrWouldBlock
		default:
			return nil, errors.Wrapf(err, "accept4")
		}
	}
}

func (v *Socket) FD() int32 {
	return int32(v.fd)
}

func (v *Socket) Addr() string {
	return v.addr
}

// Read returns ErrWouldBlock when the kernel buffer is drained and io.EOF when the peer has
// finished sending.
func (v *Socket) Read(b []byte) (int, error) {
	for {
		n, err := unix.Read(v.fd, b)
		switch {
		case err == nil && n == 0 && len(b) > 0:
			return 0, io.EOF
		case err == nil:
			return n, nil
		case errors.Is(err, unix.EINTR):
			continue
		case errors.Is(err, unix.EAGAIN):
			return 0, errs.ErrWouldBlock
		default:
			return 0, err
		}
	}
}

// Write writes the whole of b or fails. When the send buffer fills up the remaining bytes are
// dropped and ErrShortWrite is returned together with the written count.
func (v *Socket) Write(b []byte) (int, error) {
	written := 0
	for written < len(b) {
		n, err := unix.Write(v.fd, b[written:])
		if n > 0 {
			written += n
		}
		switch {
		case err == nil:
			continue
		case errors.Is(err, unix.EINTR):
			continue
		case errors.Is(err, unix.EAGAIN):
			return written, errs.ErrShortWrite
		default:
			return written, err
		}
	}
	return written, nil
}

func (v *Socket) Close() error {
	if v.fd < 0 {
		return nil
	}
	err := unix.Close(v.fd)
	v.fd = -1
	return err
}

func SockaddrString(sa unix.Sockaddr) string {
	switch a := sa.(type) {
	case *unix.SockaddrInet4:
		return net.JoinHostPort(net.IP(a.Addr[:]).String(), strconv.Itoa(a.Port))
	case *unix.SockaddrInet6:
		return net.JoinHostPort(net.IP(a.Addr[:]).String(), strconv.Itoa(a.Port))
	case *unix.SockaddrUnix:
		if len(a.Name) == 0 {
			return "@"
		}
		return a.Name
	default:
		return "unknown"
	}
}
