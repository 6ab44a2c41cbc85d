/*
 *  Copyright (c) 2024-2025 Mikhail Knyazhev <markus621@yandex.ru>. All rights reserved.
 *  Use of this source code is governed by a BSD 3-Clause license that can be found in the LICENSE file.
 */

package errs

import (
	"io"
	"strings"

	"go.osspkg.com/errors"
	"golang.org/x/sys/unix"
)

var (
	ErrWouldBlock = errors.New("operation would block")
	ErrShortWrite = errors.New("short write")
)

// IsClosed reports whether err means the peer or the descriptor is gone.
func IsClosed(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, io.EOF) ||
		errors.Is(err, unix.ECONNRESET) ||
		errors.Is(err, unix.EPIPE) ||
		errors.Is(err, unix.EBADF) ||
		errors.Is(err, unix.ENOTCONN) ||
		strings.Contains(err.Error(), "use of closed network connection") ||
		strings.Contains(err.Error(), "server closed") {
		return true
	}
	return false
}

func IsWouldBlock(err error) bool {
	return errors.Is(err, ErrWouldBlock)
}
