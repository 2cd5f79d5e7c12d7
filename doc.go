/*
Package synth provides the runtime of an editable audio synthesis graph.

The graph lives twice. The declarative half is a topology: processors,
their sound inputs and connections, edited through a transactional
protocol and continuously validated. The executable half is the compiled
graph: one node per live processor instance, wired by consumer-held
links and pulled once per chunk from the entry points by a single render
thread.

Structural edits run on the control path and never on the render path;
the caller serializes the two. Nodes removed by an edit are handed to a
reclaimer channel so their destruction never happens on the render
thread.
*/
package synth
