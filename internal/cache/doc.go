// Package cache owns the on-disk layout for fetched module sources. A cache
// directory is discovered by walking up to the nearest project root (or given
// explicitly), and every URL maps to exactly one file inside it named after the
// escaped URL without its scheme. The filesystem is the only state: there is no
// index, no sidecar metadata and no eviction, so the directory can be
// inspected or cleared by external tools at any time.
package cache
