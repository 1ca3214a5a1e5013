/*
Package canvasflow hosts a visual graph editing session and runs the graphs
it builds.

A Session owns every component of one editor: the graph store, the viewport
controller, the interaction state machine, the render surface, the executor
registry, the scheduler and the persistence and history stores. There is no
package-level state; hosts create as many sessions as they need.

# Driving a session

Input arrives as interaction events pushed onto the session queue. Each
call to Tick drains the queue through the state machine and then asks the
render surface for a frame, which is only produced when something changed:

	s := canvasflow.NewSession(canvasflow.WithGraphID("roadmap"))
	s.Push(interaction.PointerDown{Pos: geom.Pt(120, 80), Button: interaction.ButtonLeft})
	s.Push(interaction.PointerMove{Pos: geom.Pt(220, 80)})
	s.Push(interaction.PointerUp{Pos: geom.Pt(220, 80), Button: interaction.ButtonLeft})
	if frame, ok := s.Tick(); ok {
	    fmt.Println(frame.String())
	}

# Execution

Execute takes a snapshot of the graph and runs it through the scheduler.
Edits made after the call starts do not affect the run. Results are
appended to the history store and can be read back with History.

# Persistence

Save and Load are best effort. Failures are logged, published on Notices
and returned as *PersistenceError; the in-memory graph is never rolled
back.
*/
package canvasflow
