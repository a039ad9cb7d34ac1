/*
Package runner implements an interactive loop that drives a courselet engine
from a terminal.

Each line read from the input is either an event to dispatch against the top
of the session's stack or a colon command:

	unit unit=newton           dispatch "unit" with extra {"unit": "newton"}
	respond text="v = 0" confidence=sure
	:push slideshow unit=newton
	:pop
	:stack
	:help
	:quit

After every step the runner prints where the stack settled. Engine errors are
reported and the loop continues; only I/O failures end it.

# Usage

	r := runner.New(engine, domain.Request{SessionKey: "cli", UserID: "me"},
		runner.WithRenderer(render),
		runner.WithLogger(logger),
	)
	if err := r.Run(ctx); err != nil {
		log.Fatal(err)
	}
*/
package runner
