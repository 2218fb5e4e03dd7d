// Package homeinfo provides a cross-process cache for the "home info"
// resource.
//
// Example usage:
//
//	cfg := homeinfo.DefaultConfig()
//	cfg.ServiceURL = "https://api.example.com"
//	cfg.AuthKey = "your-api-key"
//	st, err := homeinfo.RunOnce(context.Background(), cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(st.Resource)
//
// The full embedding API lives in github.com/bft-labs/homeinfo/pkg/homeinfo.
package homeinfo

import (
	"context"

	lib "github.com/bft-labs/homeinfo/pkg/homeinfo"
)

// Config holds the configuration of a client.
// Use DefaultConfig() to get a Config with sensible defaults.
type Config = lib.Config

// Client is an embeddable home info cache.
type Client = lib.Client

// State is the (Resource, Loading, Err) triple.
type State = lib.State

// Option configures optional behavior of a client.
type Option = lib.Option

// DefaultConfig returns a Config with sensible default values.
// At minimum, you must set ServiceURL before calling Run.
func DefaultConfig() Config {
	return lib.DefaultConfig()
}

// New creates an unmounted client.
func New(cfg Config, opts ...Option) (*Client, error) {
	return lib.New(cfg, opts...)
}

// Run mounts a client and keeps it mounted, mirroring changes made by
// other processes, until ctx is cancelled.
func Run(ctx context.Context, cfg Config, opts ...Option) error {
	c, err := lib.New(cfg, opts...)
	if err != nil {
		return err
	}
	defer c.Close()

	if err := c.Mount(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	return nil
}

// RunOnce mounts a client, waits for its fetch to settle and returns the
// resulting state. It returns ctx.Err() whenever ctx is cancelled before it
// returns, since a cancelled activation drops the fetch outcome and leaves
// the state loading.
func RunOnce(ctx context.Context, cfg Config, opts ...Option) (State, error) {
	c, err := lib.New(cfg, opts...)
	if err != nil {
		return State{}, err
	}
	defer c.Close()

	if err := c.Mount(ctx); err != nil {
		return State{}, err
	}

	select {
	case <-c.Settled():
		if err := ctx.Err(); err != nil {
			return c.State(), err
		}
		return c.State(), nil
	case <-ctx.Done():
		return c.State(), ctx.Err()
	}
}
