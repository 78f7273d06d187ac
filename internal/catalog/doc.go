// Package catalog implements the persistence stage. The exported file is
// copied into the library clips directory under a UUID filename, then the
// clip row, optional play result, and statistics counters are written in a
// single library transaction. A failed save removes the copied file so the
// library never holds orphans; a successful save removes the staging
// temporaries the pipeline created.
package catalog
