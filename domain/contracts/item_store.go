package contracts

// ItemStore is the orchestrator's index -> value cache. It is only ever
// written from inside the orchestrator's fetch lock. Evict applies the store's
// retention policy around anchor, the start index of the page just fetched,
// and returns how many entries were dropped.
type ItemStore[T any] interface {
	Get(index int) (T, bool)
	Has(index int) bool
	Put(index int, value T)
	Len() int
	Evict(anchor int) int
}
