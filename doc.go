/*
Package courselet is a navigation engine for course content.

Every user navigates a stack of finite-state machine instances. The bottom
instance is the default flow (browsing the course); nested flows such as a
slideshow or a live classroom session are pushed on top and pop themselves
when they finish. Each request moves the top instance along one labelled
edge and yields a Target: the page the user should be sent to next.

# Usage

	reg, _ := registry.New([]registry.Provider{
		flows.Provider(catalog),
		live.Provider(coordinator),
	})
	eng, _ := courselet.New(reg, session.NewManager(memory.NewStore()), routes.New(nil),
		courselet.WithEntityResolver(courselet.NewResolver(catalog, coordinator.Repository())),
	)

	req := domain.Request{SessionKey: "cookie-value", UserID: "alice"}
	target, err := eng.Dispatch(ctx, req, "unit", domain.Extra{"unit": "u1"})

Stacks are persisted after every successful request, as spec names, node
names and entity ids only. Entities are resolved again when the stack is
loaded; a reference to an entity that no longer exists fails the request
with a NotFoundError.

Requests for the same session key are serialized, so a double submit is
applied once after the other, never interleaved.
*/
package courselet
