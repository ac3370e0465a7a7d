package action

// SkipBlock moves the runner cursor from the Opener at the current position
// to its matching Closer, honouring nested blocks. The runner then advances
// past the Closer as usual. Without a matching Closer the cursor moves to the
// last action.
func SkipBlock(r Runner) {
	actions := r.Actions()
	depth := 0
	for i := r.IP() + 1; i < len(actions); i++ {
		switch actions[i].(type) {
		case Opener:
			depth++
		case Closer:
			if depth == 0 {
				r.SetIP(i)
				return
			}
			depth--
		}
	}
	r.SetIP(len(actions) - 1)
}
