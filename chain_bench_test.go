// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package mpq

import (
	"fmt"
	"testing"

	"github.com/suprsokr/mpq/internal/testutil"
)

// benchChain builds archives of files archives each holding files entries.
func benchChain(b *testing.B, archives, files int) *Chain {
	b.Helper()

	var opened []*Archive
	for i := 0; i < archives; i++ {
		builder := testutil.NewBuilder(64)
		for j := 0; j < files; j++ {
			content := []byte(fmt.Sprintf("content %d/%d ", i, j))
			for len(content) < 3000 {
				content = append(content, content...)
			}
			builder.Add(fmt.Sprintf("Data\\File_%02d.txt", j), content, testutil.FileOptions{Implode: true, Encrypt: true})
		}
		archive, _ := openBuilt(b, builder)
		opened = append(opened, archive)
	}
	return NewChain(opened...)
}

// BenchmarkChainLookup benchmarks name resolution across a chain
func BenchmarkChainLookup(b *testing.B) {
	chain := benchChain(b, 5, 20)
	defer chain.Close()

	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		chain.HasFile("Data\\File_00.txt")
		chain.HasFile("Data\\File_09.txt")
		chain.HasFile("Data\\File_19.txt")
		chain.HasFile("Data\\NonExistent.txt")
	}
}

// BenchmarkChainReadFile benchmarks decrypting and exploding a file on every read
func BenchmarkChainReadFile(b *testing.B) {
	chain := benchChain(b, 3, 10)
	defer chain.Close()

	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		if _, err := chain.ReadFile("Data\\File_00.txt"); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkCacheReadFile benchmarks the same read served from a Cache
func BenchmarkCacheReadFile(b *testing.B) {
	chain := benchChain(b, 3, 10)
	defer chain.Close()

	cache, err := NewCache(chain)
	if err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		if _, err := cache.ReadFile("Data\\File_00.txt"); err != nil {
			b.Fatal(err)
		}
	}
}
