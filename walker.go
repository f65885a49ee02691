package gpost

// Step is one element of a flattened path: a boundary label, or a command.
type Step struct {
	Label   string
	Command Command
}

func (s Step) IsLabel() bool {
	return s.Label != ""
}

// Flatten walks the tree rooted at obj depth first, in stored order, and
// returns its commands. Inactive objects, and objects whose base is inactive,
// are skipped with everything below them; so are objects with neither
// commands nor children. With labels set, every group is preceded by a
// "compound: <label>" step and every path by a "Path: <label>" step.
func Flatten(obj Object, labels bool) []Step {
	var steps []Step

	stack := []Object{obj}
	for len(stack) > 0 {
		o := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if !isActive(o) {
			continue
		}

		if g, ok := o.(Grouper); ok {
			if labels {
				steps = append(steps, Step{Label: "compound: " + o.Label()})
			}
			children := g.Children()
			for i := len(children) - 1; i >= 0; i-- {
				if !isNil(children[i]) {
					stack = append(stack, children[i])
				}
			}
		} else if p, ok := o.(PathHolder); ok {
			if labels {
				steps = append(steps, Step{Label: "Path: " + o.Label()})
			}
			for _, cmd := range p.Commands() {
				steps = append(steps, Step{Command: cmd})
			}
		}
	}
	return steps
}
