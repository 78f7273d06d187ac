// Package library owns the long-term clip archive: athletes, seasons,
// schedule records, play results, video clips, and batting statistics, all
// backed by SQLite under the library directory.
//
// The Store is the only writer. SaveClip is the critical path: the clip row,
// its optional play result, the active-season link, and every affected
// statistics scope commit in one transaction, and the clip file must already
// exist on disk before anything is written. Statistics only ever increase;
// deleting a clip removes the file and the row but keeps the play result, so
// RecomputeStats can always rebuild totals from history.
//
// Unlike the queue database, this one is permanent. Schema changes need a
// migration story, not a clear.
package library
