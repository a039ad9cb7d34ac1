/*
Package ports defines the driven ports (interfaces) of the courselet engine.

These interfaces decouple navigation logic from storage and transport, allowing
the engine to run against memory, files, Redis or PostgreSQL.

# Key Interfaces

  - SessionStore: persists encoded navigation stacks per session key.
  - EntityResolver: re-resolves entity ids stored in state bags.
  - Router: reverses symbolic route names into addresses.
  - Catalog: course content lookups used by flows.
  - LiveRepository: shared live-session records.
  - DistributedLocker: distributed locking for concurrent session access.
*/
package ports
