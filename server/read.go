package server

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"go.osspkg.com/logx"

	"go.osspkg.com/relay/epoll"
	"go.osspkg.com/relay/errs"
	"go.osspkg.com/relay/internal"
)

// handleRead drains the peer, relays what was read and drops the peer once it is unusable.
func (v *reactor) handleRead(fd int32) {
	e, ok := v.peers.get(fd)
	if !ok || !e.isPeer() {
		return
	}
	conn := e.conn

	buff := v.messages.Get()
	chunk := v.chunks.Get()
	defer func() {
		v.chunks.Put(chunk)
		v.messages.Put(buff)
	}()
	buff.Reset()

	rerr := v.drain(conn, buff, chunk.Slice)
	if rerr == nil {
		if err := v.peers.register(fd, conn, epoll.InterestRead); err != nil {
			logx.Warn("Relay refresh registration", "err", err, "addr", conn.Addr())
			rerr = err
		}
	}

	if buff.Len() > 0 {
		v.broadcast(conn, decode(buff.Bytes()))
	}

	if rerr != nil {
		internal.WriteErrLog("Relay read", rerr, conn.Addr())
		v.drop(fd, "read failed")
	}
}

// drain reads until the socket reports no more available bytes or the message cap is reached.
func (v *reactor) drain(conn TConnect, buff *bytes.Buffer, chunk []byte) error {
	for buff.Len() < v.conf.MaxMessageSize {
		limit := min(len(chunk), v.conf.MaxMessageSize-buff.Len())
		n, err := conn.Read(chunk[:limit])
		if n > 0 {
			buff.Write(chunk[:n])
		}
		switch {
		case err == nil:
			continue
		case errs.IsWouldBlock(err):
			return nil
		default:
			return err
		}
	}
	logx.Debug("Relay message cap reached", "addr", conn.Addr(), "size", buff.Len())
	return nil
}

func decode(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}
	return strings.ToValidUTF8(string(b), string(utf8.RuneError))
}
