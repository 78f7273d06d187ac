// Package staging keeps the scratch directory honest. The pipeline cleans up
// after itself when items catalog or are removed; the sweeper handles what
// crashes and kills leave behind, removing unreferenced files past a maximum
// age plus the empty directories around them. Every operation is idempotent.
package staging
