// Package mocks provides test doubles for ports interfaces.
//
// These mocks are simple, thread-safe, in-memory implementations
// suitable for unit testing. Each mock provides:
//
//   - Default behavior that returns the stored records
//   - Callback functions (xxxFn) for customizing behavior per test
//   - Helper methods for setting state directly
//
// # Usage Example
//
//	func TestRefresh(t *testing.T) {
//		source := mocks.NewTrendSource(records...)
//		store := snapshot.New(snapshot.Options{})
//		_ = store.Refresh(ctx, source)
//	}
//
// # Available Mocks
//
//   - TrendSource: implements ports.TrendSource and ports.Pinger
//   - ChangeFeed: implements ports.ChangeFeed
package mocks
