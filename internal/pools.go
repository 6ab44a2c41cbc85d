/*
 *  Copyright (c) 2024 Mikhail Knyazhev <markus621@yandex.ru>. All rights reserved.
 *  Use of this source code is governed by a BSD 3-Clause license that can be found in the LICENSE file.
 */

package internal

import (
	"bytes"

	"go.osspkg.com/ioutils/pool"
)

type Bytes struct {
	Slice []byte
}

func (*Bytes) Reset() {}

type (
	BytesPool interface {
		Get() *Bytes
		Put(*Bytes)
	}
	BufferPool interface {
		Get() *bytes.Buffer
		Put(*bytes.Buffer)
	}
)

// NewBytesPool returns a pool of fixed size read chunks.
func NewBytesPool(size int) BytesPool {
	return pool.New[*Bytes](func() *Bytes {
		return &Bytes{Slice: make([]byte, size)}
	})
}

func NewBufferPool(size int) BufferPool {
	return pool.New[*bytes.Buffer](func() *bytes.Buffer {
		return bytes.NewBuffer(make([]byte, 0, size))
	})
}
