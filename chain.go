// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package mpq

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"
)

// normalizeKey folds a name to the form used for case-insensitive lookups.
func normalizeKey(name string) string {
	return strings.ToUpper(normalizePath(name))
}

// Chain is a prioritized list of MPQ archives, such as base game data
// followed by expansion or patch archives.
type Chain struct {
	archives []*Archive
}

// OpenChain opens archives in order of increasing priority.
// The last archive in the list has the highest priority.
func OpenChain(paths []string, opts ...Option) (*Chain, error) {
	o := newOptions(opts)
	opts = append(opts[:len(opts):len(opts)], withCipher(o.cipher))

	archives := make([]*Archive, len(paths))
	var g errgroup.Group
	for i, path := range paths {
		g.Go(func() error {
			archive, err := Open(path, opts...)
			if err != nil {
				return fmt.Errorf("open archive %s: %w", path, err)
			}
			archives[i] = archive
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		for _, opened := range archives {
			if opened != nil {
				_ = opened.Close()
			}
		}
		return nil, err
	}

	return &Chain{archives: archives}, nil
}

// NewChain builds a chain from already opened archives, lowest priority
// first. Close on the chain closes them.
func NewChain(archives ...*Archive) *Chain {
	return &Chain{archives: archives}
}

// Close closes all archives in the chain.
func (c *Chain) Close() error {
	var firstErr error
	for _, archive := range c.archives {
		if err := archive.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Len returns the number of archives in the chain.
func (c *Chain) Len() int {
	return len(c.archives)
}

// HasFile reports whether any archive resolves name.
func (c *Chain) HasFile(name string) bool {
	for i := len(c.archives) - 1; i >= 0; i-- {
		if c.archives[i].HasFile(name) {
			return true
		}
	}
	return false
}

// GetFile returns the highest-priority live copy of name. Archives that do
// not have the file, or hold only a missing block for it, are skipped; any
// other error stops the search.
func (c *Chain) GetFile(name string) (*File, error) {
	for i := len(c.archives) - 1; i >= 0; i-- {
		f, err := c.archives[i].GetFile(name)
		if err == nil {
			return f, nil
		}
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrFileMissing) {
			continue
		}
		return nil, err
	}
	return nil, fmt.Errorf("%w in chain: %s", ErrNotFound, normalizePath(name))
}

// ReadFile reads the highest-priority copy of name.
func (c *Chain) ReadFile(name string) ([]byte, error) {
	f, err := c.GetFile(name)
	if err != nil {
		return nil, err
	}
	return f.archive.readAll(f)
}

// ListFiles returns the union of the listfiles across the chain. Archives
// without a listfile contribute nothing.
func (c *Chain) ListFiles() ([]string, error) {
	seen := make(map[string]struct{})
	var result []string
	for _, archive := range c.archives {
		files, err := archive.ListFiles()
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		for _, file := range files {
			key := normalizeKey(file)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			result = append(result, file)
		}
	}
	return result, nil
}
