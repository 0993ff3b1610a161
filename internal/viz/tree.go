package viz

import (
	"fmt"

	"github.com/charmbracelet/lipgloss/tree"

	"github.com/san-kum/vessim/internal/sim"
	"github.com/san-kum/vessim/internal/variable"
)

type TreeOptions struct {
	// Variables lists each object's variables under it.
	Variables bool
	Styles    Styles
}

// ObjectTree renders obj and every owned or initialized descendant.
func ObjectTree(obj *sim.Object, opts TreeOptions) (string, error) {
	t, err := objectNode(obj, opts)
	if err != nil {
		return "", err
	}
	t.Enumerator(tree.RoundedEnumerator).EnumeratorStyle(opts.Styles.Muted)
	return t.String(), nil
}

func objectNode(obj *sim.Object, opts TreeOptions) (*tree.Tree, error) {
	name, err := obj.Name()
	if err != nil {
		return nil, err
	}
	if name == "" {
		name = "root"
	}
	typ, _ := obj.Type()
	label := opts.Styles.Title.Render(name)
	if typ != "" {
		label += " " + opts.Styles.Muted.Render("["+typ+"]")
	}
	if uid, _ := obj.UID(); uid != 0 {
		label += opts.Styles.Label.Render(fmt.Sprintf(" #%d", uid))
	}
	t := tree.Root(label)

	if opts.Variables {
		vars, err := obj.Variables()
		if err != nil {
			return nil, err
		}
		for _, v := range vars {
			t.Child(variableNode(v, opts.Styles))
		}
	}

	children, err := obj.OwnedChildren()
	if err != nil {
		return nil, err
	}
	for _, c := range children {
		n, err := objectNode(c, opts)
		if err != nil {
			return nil, err
		}
		t.Child(n)
	}
	return t, nil
}

func variableNode(v *variable.Variable, s Styles) any {
	if v.Type() != variable.Nested {
		return s.Label.Render(v.String())
	}
	t := tree.Root(s.Label.Render(v.Name()))
	for _, c := range v.Children() {
		t.Child(variableNode(c, s))
	}
	return t
}
