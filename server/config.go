/*
 *  Copyright (c) 2024-2025 Mikhail Knyazhev <markus621@yandex.ru>. All rights reserved.
 *  Use of this source code is governed by a BSD 3-Clause license that can be found in the LICENSE file.
 */

package server

import (
	"fmt"
	"io"

	"go.osspkg.com/errors"
	"gopkg.in/yaml.v3"

	"go.osspkg.com/relay/internal"
)

const (
	DefaultNotice         = "你与聊天室里其他人都不是朋友关系，请注意隐私安全"
	DefaultAddress        = ":8000"
	DefaultBufferSize     = 1024
	DefaultMaxMessageSize = 64 << 10
	DefaultCountEvents    = 128
	DefaultAcceptBatch    = 16
)

type (
	Config struct {
		Network string `yaml:"network"`
		Address string `yaml:"address"`
		// Notice is sent to every accepted peer before any broadcast.
		Notice string `yaml:"notice,omitempty"`
		// BufferSize is the size of a single read call.
		BufferSize int `yaml:"buffer_size,omitempty"`
		// MaxMessageSize caps the bytes accumulated for one read event. Bytes past the cap stay in
		// the socket and are relayed on the next wakeup.
		MaxMessageSize int  `yaml:"max_message_size,omitempty"`
		CountEvents    uint `yaml:"count_events,omitempty"`
		// AcceptBatch is the maximum number of connections taken per accept event.
		AcceptBatch int `yaml:"accept_batch,omitempty"`
	}
)

// DecodeConfig reads a YAML config and fills the defaults.
func DecodeConfig(r io.Reader) (Config, error) {
	var c Config
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil && !errors.Is(err, io.EOF) {
		return c, fmt.Errorf("decode config: %w", err)
	}
	c.Default()
	return c, c.Validate()
}

func (c *Config) Default() {
	if len(c.Network) == 0 {
		c.Network = internal.NetTCP
	}
	if len(c.Address) == 0 && c.Network == internal.NetTCP {
		c.Address = DefaultAddress
	}
	if len(c.Notice) == 0 {
		c.Notice = DefaultNotice
	}
	c.BufferSize = internal.NotZero(c.BufferSize, DefaultBufferSize)
	c.MaxMessageSize = internal.NotZero(c.MaxMessageSize, DefaultMaxMessageSize)
	c.CountEvents = internal.NotZero(c.CountEvents, DefaultCountEvents)
	c.AcceptBatch = internal.NotZero(c.AcceptBatch, DefaultAcceptBatch)
}

func (c Config) Validate() error {
	if err := internal.IsPassableNetwork(c.Network); err != nil {
		return err
	}
	if len(c.Address) == 0 {
		return fmt.Errorf("address is empty")
	}
	if c.BufferSize <= 0 {
		return fmt.Errorf("buffer size must be positive")
	}
	if c.MaxMessageSize < c.BufferSize {
		return fmt.Errorf("max message size %d is less than buffer size %d", c.MaxMessageSize, c.BufferSize)
	}
	if c.CountEvents == 0 {
		return fmt.Errorf("count events is empty")
	}
	if c.AcceptBatch <= 0 {
		return fmt.Errorf("accept batch must be positive")
	}
	return nil
}
