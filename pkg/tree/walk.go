package tree

// JoinPath appends a node name to a parent path. Unnamed nodes are shown
// as "??".
func JoinPath(parent, name string) string {
	if name == "" {
		name = "??"
	}
	return parent + "/" + name
}

// RootPath returns the path of a description's root node.
func RootPath(r *Root) string {
	return JoinPath("", r.Name)
}

// Visit is called by [Walk] for every node. Addresses are absolute, that
// is relative to the root passed to Walk.
type Visit func(path string, n Node, abs uint64) error

// Walk calls fn for r and then for every descendant in declaration order,
// descending into laid-out sub-maps. It stops at the first error.
func Walk(r *Root, fn Visit) error {
	return walk(RootPath(r), r, 0, fn)
}

func walk(path string, n Node, abs uint64, fn Visit) error {
	if err := fn(path, n, abs); err != nil {
		return err
	}
	switch n := n.(type) {
	case Composite:
		for _, c := range n.Members().Children {
			e := c.Elem()
			if err := walk(JoinPath(path, e.Name), c, abs+e.Layout.Address, fn); err != nil {
				return err
			}
		}
	case *Submap:
		if m := n.Resolved.Map; m != nil {
			for _, c := range m.Children {
				e := c.Elem()
				if err := walk(JoinPath(path, e.Name), c, abs+e.Layout.Address, fn); err != nil {
					return err
				}
			}
		}
	}
	return nil
}
