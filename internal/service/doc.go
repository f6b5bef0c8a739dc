// Package service manages the lifecycle of a menu search index.
//
// A Service moves through four states:
//
//	uninitialized --InitializeIndex--> loading --ok--> ready
//	                                           --err-> error
//
// Searching is only allowed in ready. Calling InitializeIndex again from
// ready or error rebuilds in place. Cleanup drops the index (memory and
// disk) and returns to uninitialized.
//
// # Basic Usage
//
//	store, _ := storage.NewSQLiteStorage(dbPath)
//	svc, err := service.New(service.Options{Storage: store, InstanceID: "downtown"})
//
//	svc.AddStateListener(func(state service.State, err error, p service.Progress) {
//	    log.Printf("%s %d/%d", state, p.Done, p.Total)
//	})
//
//	if ok, _ := svc.Restore(ctx); !ok {
//	    err = svc.InitializeIndex(ctx, menu)
//	}
//
//	resp, err := svc.Search(ctx, "spicy vegetarian")
//
// Listeners are called synchronously: once on registration with the current
// state, then on every transition and on build progress. Delivery is
// serialized with state changes, so a listener never sees an older state
// after a newer one. A listener must not register listeners or start a
// build from inside its callback.
//
// # Persistence
//
// With a Storage configured, each successful build is saved under the
// instance ID and Restore reloads it without re-embedding. Save and delete
// failures are logged and never change state.
package service
