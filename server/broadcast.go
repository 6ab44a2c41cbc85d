package server

import (
	"go.osspkg.com/errors"

	"go.osspkg.com/relay/errs"
	"go.osspkg.com/relay/internal"
)

// broadcast writes message to every registered peer except source and returns the number of
// complete deliveries. A failed target never stops the others. Targets that are gone are
// dropped after the pass, a short write only loses the tail.
func (v *reactor) broadcast(source TConnect, message string) int {
	var (
		b      = []byte(message)
		sent   int
		failed []int32
	)

	v.peers.scan(func(e *entry) {
		if !e.isPeer() || e.fd == source.FD() {
			return
		}
		if _, err := e.conn.Write(b); err != nil {
			internal.WriteErrLog("Relay broadcast", err, e.conn.Addr())
			if !errors.Is(err, errs.ErrShortWrite) {
				failed = append(failed, e.fd)
			}
			return
		}
		sent++
	})

	for _, fd := range failed {
		v.drop(fd, "write failed")
	}

	return sent
}
