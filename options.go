// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package mpq

import (
	"log/slog"

	"github.com/suprsokr/mpq/internal/crypt"
)

// DefaultMaxFileSize is the default ReadFile limit (256MB).
const DefaultMaxFileSize = 256 << 20

type options struct {
	logger      *slog.Logger
	cipher      *crypt.Cipher
	mmap        bool
	maxFileSize uint64
}

// Option configures an Archive or a Chain.
type Option func(*options)

func newOptions(opts []Option) *options {
	o := &options{maxFileSize: DefaultMaxFileSize}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.DiscardHandler)
	}
	if o.cipher == nil {
		o.cipher = crypt.Default()
	}
	return o
}

// WithLogger sets the logger used for debug output.
// If nil, a discard logger is used (default behavior).
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithMmap maps the archive file into memory instead of reading it through
// a file descriptor. Only applies to Open and OpenChain.
func WithMmap(enabled bool) Option {
	return func(o *options) {
		o.mmap = enabled
	}
}

// WithMaxFileSize sets the largest file ReadFile will allocate for.
// Set to 0 to disable the limit.
func WithMaxFileSize(limit uint64) Option {
	return func(o *options) {
		o.maxFileSize = limit
	}
}

// withCipher shares one crypt table between the archives of a chain.
func withCipher(c *crypt.Cipher) Option {
	return func(o *options) {
		o.cipher = c
	}
}
