/*

Package runefs is a read-only reader for a game client's on-disk asset
cache: a monolithic sector-chained blob store (main_file_cache.dat2) plus
per-index locator tables (main_file_cache.idxN, N in 0..=254) and a
distinguished reference table (main_file_cache.idx255) describing every
other index's archives.

The package is organized around three pieces that compose but stay
independent:

  - Dat2, a memory-mapped reader that walks an archive's sector chain and
    returns its raw on-disk bytes.
  - DecodedBuffer/EncodedBuffer, a small state machine around the archive
    frame layout: an optional XTEA cipher step and one of four compression
    schemes (none, bzip2, gzip, LZMA).
  - Indices/Index/IndexMetadata, the locator and metadata tables built by
    scanning a cache directory once at startup.

This package does not write or mutate a cache, does not do any networking,
and does not parse the domain-specific contents of a decoded archive's
payload — only the cache container format itself.

*/
package runefs
