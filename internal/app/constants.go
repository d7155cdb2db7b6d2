package app

// DefaultListLimit caps how many records ListGames asks the store for.
const DefaultListLimit = 100

// Operation labels used for metrics.
const (
	opAdd     = "add"
	opRemove  = "remove"
	opReplace = "replace"
	opLimit   = "limit"
)
