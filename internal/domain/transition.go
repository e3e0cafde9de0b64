package domain

// Transition defines a valid state change: an event moves an entity from Src to Dst.
// It is shared by the room and stay machines, which are consumed by the FSM adapter.
type Transition[S ~string, E ~string] struct {
	Event E
	Src   S
	Dst   S
}

// SourcesOf returns the states from which event is allowed, in table order.
func SourcesOf[S ~string, E ~string](table []Transition[S, E], event E) []S {
	var out []S
	for _, t := range table {
		if t.Event == event {
			out = append(out, t.Src)
		}
	}
	return out
}
