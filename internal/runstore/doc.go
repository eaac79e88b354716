// Package runstore persists pipeline runs in SQLite.
//
// The Store manages database connections, schema migrations, and the
// durable record of every run: its artifacts, score reports, fix
// attempts, and pinned retrieval content. It implements the pipeline's
// Recorder interface and the provenance PinStore, so one database file
// holds everything needed to audit or reproduce a run.
//
// The database is an append-mostly archive rather than transient
// state; runs are only removed through explicit clear commands.
package runstore
