// Package store reads an embedded field table back the way an adapter does
// at runtime.
//
// A Store is built over a staticconfig.Memory and the address held by the
// CONFIG global. It follows host_field_data once, indexes the keys, and
// answers lookups with a binary search, so it fails loudly on a table whose
// keys are out of order.
//
// Two memories are provided: the static image formed by a module's active
// data segments (FromModule) and the linear memory of a live wazero instance
// (FromInstance).
package store
