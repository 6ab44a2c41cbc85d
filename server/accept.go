package server

import (
	"go.osspkg.com/logx"

	"go.osspkg.com/relay/epoll"
	"go.osspkg.com/relay/errs"
	"go.osspkg.com/relay/internal"
)

// handleAccept takes pending connections until the backlog is empty or AcceptBatch is reached.
// What is left is picked up on the next wakeup since the listener is level-triggered.
func (v *reactor) handleAccept() error {
	for i := 0; i < v.conf.AcceptBatch; i++ {
		conn, err := v.acceptor.Accept()
		if err != nil {
			if errs.IsWouldBlock(err) {
				return nil
			}
			return err
		}

		addr := conn.Addr()

		if err = v.peers.register(conn.FD(), conn, epoll.InterestRead); err != nil {
			internal.WriteErrLog("Relay close connect", conn.Close(), addr)
			return err
		}

		if _, err = conn.Write(v.notice); err != nil {
			internal.WriteErrLog("Relay write notice", err, addr)
			v.drop(conn.FD(), "notice failed")
			continue
		}

		logx.Info("Relay peer connected", "addr", addr, "peers", v.peers.len())
	}
	return nil
}
