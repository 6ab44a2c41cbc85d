/*
 *  Copyright (c) 2024 Mikhail Knyazhev <markus621@yandex.ru>. All rights reserved.
 *  Use of this source code is governed by a BSD 3-Clause license that can be found in the LICENSE file.
 */

package listen_test

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"testing"

	"go.osspkg.com/casecheck"

	"go.osspkg.com/relay/errs"
	"go.osspkg.com/relay/listen"
)

func TestUnit_ListenerTCP(t *testing.T) {
	l, err := listen.New(context.TODO(), "tcp", "127.0.0.1:0")
	casecheck.NoError(t, err)
	defer l.Close() //nolint: errcheck

	casecheck.True(t, l.FD() > 2)

	_, err = l.Accept()
	casecheck.True(t, errs.IsWouldBlock(err))

	conn, err := net.Dial("tcp", l.Addr())
	casecheck.NoError(t, err)
	defer conn.Close() //nolint: errcheck

	sock, err := l.Accept()
	casecheck.NoError(t, err)
	defer sock.Close() //nolint: errcheck

	casecheck.Equal(t, conn.LocalAddr().String(), sock.Addr())
}

func TestUnit_ListenerUnixStaleFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "relay.sock")
	casecheck.NoError(t, os.WriteFile(path, nil, 0o600))

	l, err := listen.New(context.TODO(), "unix", path)
	casecheck.NoError(t, err)
	defer l.Close() //nolint: errcheck

	conn, err := net.Dial("unix", path)
	casecheck.NoError(t, err)
	defer conn.Close() //nolint: errcheck

	sock, err := l.Accept()
	casecheck.NoError(t, err)
	casecheck.NoError(t, sock.Close())
}

func TestUnit_ListenerInvalidNetwork(t *testing.T) {
	_, err := listen.New(context.TODO(), "udp", "127.0.0.1:0")
	casecheck.Error(t, err)
}
