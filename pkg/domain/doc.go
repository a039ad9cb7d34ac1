/*
Package domain contains the core models of the courselet navigation engine.

It defines the static shape of a flow (Specification, Node, Edge), the capability
interfaces through which node and edge behavior plugs in, the per-instance State bag,
navigation Targets, and the shared live-session records. The package has no I/O.

# Key Entities

  - Specification: a named, immutable graph of Nodes with an entry node.
  - Node / Edge: states and named events; either may carry Behavior.
  - Outcome: what a behavior hook asks the dispatcher to do next.
  - State: a closed-key bag of entity ids (plus a title) scoped to one instance.
  - LiveSession, LiveQuestion, Response: records shared between instructor and students.
*/
package domain
