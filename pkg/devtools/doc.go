// Package devtools provides a live HTTP inspector for Ripple runtimes.
//
// The inspector exposes the runtime's registry as JSON endpoints and streams
// graph events to WebSocket clients. It is read-only: nothing served here
// can mutate the graph.
//
//	rt := reactive.Default()
//	insp := devtools.NewServer(rt)
//	defer insp.Close()
//	go http.ListenAndServe("localhost:6390", insp.Handler())
//
// Open http://localhost:6390/ for the built-in UI, or consume the endpoints
// directly:
//
//	GET /nodes       all live nodes
//	GET /nodes/{id}  one node
//	GET /graph       nodes plus dependency edges
//	GET /events      WebSocket stream of StreamEvent frames
//
// The event stream drops frames for clients that cannot keep up rather than
// back-pressuring the runtime; Hub.Dropped counts the misses.
//
// The inspector has no authentication. Bind it to localhost or put it
// behind your own auth when the runtime handles sensitive values.
package devtools
