// Package journal keeps an audit trail of values notified on a barrier.
//
// A Recorder subscribes to the barrier's observer bus and appends every
// occurrence to a Store. Only producer notifications are journaled; pending
// waiters are never persisted.
//
//	store, err := journal.NewSQLiteStore("./notifications.db")
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
//
//	sub, err := bus.SubscribeAll(journal.NewRecorder(store))
//
// Open selects a Store from config.JournalSettings: the memory driver for
// tests and the sqlite driver (modernc.org/sqlite, no cgo) for durable
// journals.
package journal
