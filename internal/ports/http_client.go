package ports

import "net/http"

// HTTPClient abstracts HTTP operations so the retrieval collaborator can be
// exercised against stubs. The standard *http.Client satisfies this interface.
type HTTPClient interface {
	// Do sends an HTTP request and returns an HTTP response.
	Do(req *http.Request) (*http.Response, error)
}
