/*
Package session implements session management and persistence orchestration.

It provides high-level abstractions for handling concurrent access to persisted navigation stacks
across multiple replicas, integrating local memory caches with distributed locking
and long-term storage adapters.
*/
package session
