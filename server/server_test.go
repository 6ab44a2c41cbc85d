/*
 *  Copyright (c) 2024-2025 Mikhail Knyazhev <markus621@yandex.ru>. All rights reserved.
 *  Use of this source code is governed by a BSD 3-Clause license that can be found in the LICENSE file.
 */

package server_test

import (
	"context"
	"io"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.osspkg.com/casecheck"
	"go.osspkg.com/syncing"

	"go.osspkg.com/relay/address"
	"go.osspkg.com/relay/client"
	"go.osspkg.com/relay/internal"
	"go.osspkg.com/relay/server"
)

const notice = "welcome\n"

func runServer(t *testing.T, conf server.Config) (server.Server, func()) {
	srv := server.New(conf)
	ctx, cancel := context.WithCancel(context.TODO())

	wg := syncing.NewGroup()
	wg.Background(func() {
		casecheck.NoError(t, srv.ListenAndServe(ctx))
	})

	return srv, func() {
		cancel()
		wg.Wait()
	}
}

func dial(t *testing.T, cli client.Client) net.Conn {
	var (
		conn net.Conn
		err  error
	)
	for i := 0; i < 50; i++ {
		if conn, err = cli.Dial(context.TODO()); err == nil {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	casecheck.NoError(t, err)
	t.Cleanup(func() {
		conn.Close() //nolint: errcheck
	})

	readExactly(t, conn, notice)
	return conn
}

func readExactly(t *testing.T, conn net.Conn, want string) {
	casecheck.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	b := make([]byte, len(want))
	_, err := io.ReadFull(conn, b)
	casecheck.NoError(t, err)
	casecheck.Equal(t, want, string(b))
}

func readNothing(t *testing.T, conn net.Conn) {
	casecheck.NoError(t, conn.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
	b := make([]byte, 64)
	n, err := conn.Read(b)
	casecheck.Equal(t, 0, n)
	casecheck.Error(t, err)
	casecheck.True(t, os.IsTimeout(err))
}

func relayScenario(t *testing.T, network, addr string) {
	_, stop := runServer(t, server.Config{Network: network, Address: addr, Notice: notice})
	defer stop()

	cli, err := client.New(client.Config{Network: network, Address: addr, MaxConns: 8})
	casecheck.NoError(t, err)

	a := dial(t, cli)
	b := dial(t, cli)
	c := dial(t, cli)

	_, err = a.Write([]byte("hello"))
	casecheck.NoError(t, err)
	readExactly(t, b, "hello")
	readExactly(t, c, "hello")
	readNothing(t, a)

	_, err = b.Write([]byte("hi"))
	casecheck.NoError(t, err)
	readExactly(t, a, "hi")
	readExactly(t, c, "hi")
	readNothing(t, b)

	casecheck.NoError(t, c.Close())

	_, err = a.Write([]byte("still here"))
	casecheck.NoError(t, err)
	readExactly(t, b, "still here")
}

func TestUnit_RelayTCP(t *testing.T) {
	addr, err := address.RandomPort("127.0.0.1")
	casecheck.NoError(t, err)

	relayScenario(t, "tcp", addr)
}

func TestUnit_RelayUnix(t *testing.T) {
	relayScenario(t, "unix", filepath.Join(t.TempDir(), "relay.sock"))
}

func TestUnit_RelayCall(t *testing.T) {
	addr, err := address.RandomPort("127.0.0.1")
	casecheck.NoError(t, err)

	_, stop := runServer(t, server.Config{Network: "tcp", Address: addr, Notice: notice})
	defer stop()

	cli, err := client.New(client.Config{Network: "tcp", Address: addr, MaxConns: 2, Timeout: 3 * time.Second})
	casecheck.NoError(t, err)

	listener := dial(t, cli)

	err = cli.Call(context.TODO(), func(_ context.Context, w io.Writer, r io.Reader) error {
		b := make([]byte, len(notice))
		if _, err := io.ReadFull(r, b); err != nil {
			return err
		}
		_, err := w.Write([]byte("from call"))
		return err
	})
	casecheck.NoError(t, err)

	readExactly(t, listener, "from call")
}

func TestUnit_AlreadyRunning(t *testing.T) {
	addr, err := address.RandomPort("127.0.0.1")
	casecheck.NoError(t, err)

	srv, stop := runServer(t, server.Config{Network: "tcp", Address: addr, Notice: notice})
	defer stop()

	cli, err := client.New(client.Config{Network: "tcp", Address: addr})
	casecheck.NoError(t, err)
	conn := dial(t, cli)
	casecheck.NoError(t, conn.Close())

	err = srv.ListenAndServe(context.TODO())
	casecheck.True(t, err == internal.ErrServAlreadyRunning)
}

func TestUnit_BindFailure(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	casecheck.NoError(t, err)
	defer l.Close() //nolint: errcheck

	srv := server.New(server.Config{Network: "tcp", Address: l.Addr().String()})
	casecheck.Error(t, srv.ListenAndServe(context.TODO()))
}
