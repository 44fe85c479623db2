// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

/*
Package mpq provides pure Go read access to MPQ (Mo'PaQ) archives of the
first format generation, as shipped with Diablo (DIABDAT.MPQ).

An archive is a header, an encrypted hash table that maps file names to block
indexes, an encrypted block table that locates each stored file, and the file
data itself. Files may be split into sectors that are individually encrypted
and PKWare imploded.

# Basic Usage

	archive, err := mpq.Open("DIABDAT.MPQ")
	if err != nil {
		log.Fatal(err)
	}
	defer archive.Close()

	file, err := archive.GetFile("ui_art\\title.pcx")
	if err != nil {
		log.Fatal(err)
	}
	buf := make([]byte, file.Size())
	if _, err := file.Read(buf); err != nil {
		log.Fatal(err)
	}

Archives can also be read from any io.ReaderAt with [NewArchive]. Several
archives can be layered with [OpenChain], and decoded files can be kept in
memory with [NewCache].

# Path Conventions

MPQ archives use backslash (\) as the path separator. Lookups convert forward
slashes to backslashes, and names are matched case-insensitively.

# Concurrency

Tables are read once when the archive is opened. Every data read is a
positioned read, so one Archive may serve any number of concurrent
File.Read calls.

# Limitations

  - Read-only; archives cannot be created or modified
  - Only format version 0 (32-byte header)
  - Multi-algorithm compression returns [ErrUnsupportedCompression]
  - Uncompressed files are returned as stored even when flagged encrypted
*/
package mpq
