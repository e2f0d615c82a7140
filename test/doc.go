// Package test provides infrastructure and utilities for integration testing
// of the try-on service.
//
// A Suite wires the real API server, the real API client and the real
// services over a throwaway SQLite database, a miniredis-backed quota cache
// and a local media directory. Only the AI providers are mocked, with a fake
// provider CDN serving result images.
//
// Example Usage:
//
//	func TestExample(t *testing.T) {
//	    suite := test.NewSuite(t)
//	    defer suite.Cleanup()
//
//	    client := suite.ClientFor("user-1")
//	    resp, err := client.SubmitTryOn(suite.Context(), suite.SubmitParams())
//	    // ...
//	}
package test
