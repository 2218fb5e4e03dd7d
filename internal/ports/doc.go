// Package ports defines the interfaces (ports) that connect the application
// layer to infrastructure adapters.
//
// Ports are the boundaries between the cache store and the outside world.
// They define what the store needs from external systems without specifying
// how those needs are fulfilled.
//
// # Port Interfaces
//
//   - [Storage]: Text key/value persistence for cache snapshots
//   - [ChangeSubscriber]: Notifications for entries changed by other contexts
//   - [Fetcher]: The retrieval collaborator that produces the resource
//   - [HTTPClient]: HTTP request abstraction for dependency injection
//
// # Usage
//
// The application layer (internal/app) depends only on these interfaces.
// Infrastructure adapters (internal/adapters) implement them with the file
// system, fsnotify, HTTP or in-memory fakes.
package ports
