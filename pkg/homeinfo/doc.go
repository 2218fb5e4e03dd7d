// Package homeinfo provides an embeddable cache for the "home info"
// resource that stays consistent across processes sharing a cache
// directory.
//
// A Client shows the last persisted snapshot immediately, refreshes it with
// one fetch per activation and mirrors changes other processes make to the
// cached entry.
//
// # Basic Usage
//
//	cfg := homeinfo.DefaultConfig()
//	cfg.ServiceURL = "https://api.example.com"
//	cfg.AuthKey = "your-api-key"
//
//	client, err := homeinfo.New(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	if err := client.Mount(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	<-client.Settled()
//
//	st := client.State()
//	if st.Err != nil {
//	    log.Printf("home info unavailable: %v", st.Err)
//	}
//
// # State
//
// [State] is the triple (Resource, Loading, Err). After a successful fetch
// Err is nil; after a failed one Resource is nil. A fetch that returns an
// empty object reports [ErrNoResults]. Changes written by other processes
// only replace Resource.
//
// # Event Handling
//
// Implement [EventHandler] and pass it via [WithEventHandler] to observe
// every state change. Handlers are called synchronously and must not call
// Mount or Unmount.
//
// # Dependency Injection
//
// Storage, change notification and retrieval can be replaced:
//
//	client, err := homeinfo.New(cfg,
//	    homeinfo.WithFetcher(myFetcher),
//	    homeinfo.WithStorage(myStorage),
//	    homeinfo.WithLogger(customLogger),
//	)
package homeinfo
