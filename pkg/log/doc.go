// Package log provides a logging abstraction for homeinfo components.
//
// This package defines a Logger interface that can be implemented by
// any logging library. A zerolog implementation is provided, plus a no-op
// logger used as the library default and in tests.
//
// # Usage
//
// Wrap an existing zerolog logger:
//
//	logger := log.NewZerologAdapterWithLogger(zerolog.New(os.Stderr))
//
// Or use the console adapter:
//
//	logger := log.NewZerologAdapter(os.Stderr, zerolog.InfoLevel)
//
// Child loggers carry fields on every record:
//
//	storeLog := logger.With(log.String("key", "homeInfoCache"))
//
// # Custom Loggers
//
// Implement the Logger interface to integrate with your existing
// logging infrastructure:
//
//	type MyLogger struct { ... }
//
//	func (l *MyLogger) Debug(msg string, fields ...log.Field) { ... }
//	func (l *MyLogger) Info(msg string, fields ...log.Field) { ... }
//	func (l *MyLogger) Warn(msg string, fields ...log.Field) { ... }
//	func (l *MyLogger) Error(msg string, fields ...log.Field) { ... }
//	func (l *MyLogger) With(fields ...log.Field) log.Logger { ... }
package log
