/*
 *  Copyright (c) 2024 Mikhail Knyazhev <markus621@yandex.ru>. All rights reserved.
 *  Use of this source code is governed by a BSD 3-Clause license that can be found in the LICENSE file.
 */

package fd

import (
	"fmt"
	"syscall"
)

// Of returns the system descriptor behind a listener or a connection.
// The descriptor stays owned by c.
func Of(c syscall.Conn) (int, error) {
	raw, err := c.SyscallConn()
	if err != nil {
		return -1, fmt.Errorf("get raw conn: %w", err)
	}
	sysfd := -1
	if err = raw.Control(func(v uintptr) {
		sysfd = int(v)
	}); err != nil {
		return -1, fmt.Errorf("control raw conn: %w", err)
	}
	return sysfd, nil
}
