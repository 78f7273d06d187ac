// Package exporting implements the trim stage. A clip with a trim window is
// cut by ffmpeg stream copy into the staging exports directory; a clip
// without one (or whose window spans the whole file) passes straight through
// with ExportedFile pointing at the source. Cancelled or failed trims leave
// no partial output behind.
package exporting
