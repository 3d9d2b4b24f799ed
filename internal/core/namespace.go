package core

import (
	"strings"
)

// Namespace is an in-memory directory trie with a current-directory
// cursor. It is not safe for concurrent use.
type Namespace struct {
	root    *Node
	current *Node
}

// New returns a namespace holding only the root directory, with the
// current directory set to root.
func New() *Namespace {
	root := NewNode(nil, "")
	return &Namespace{
		root:    root,
		current: root,
	}
}

func (ns *Namespace) Root() *Node {
	return ns.root
}

func (ns *Namespace) Current() *Node {
	return ns.current
}

// Resolve maps path to a node. Absolute paths start at root, relative
// ones at the current directory. ".." at root stays at root. Trailing
// slashes are ignored but an empty segment inside the path never matches.
// The second result is false when any segment is missing.
func (ns *Namespace) Resolve(path string) (*Node, bool) {
	node := ns.current
	if strings.HasPrefix(path, "/") {
		node = ns.root
		path = path[1:]
	}

	segments := strings.Split(path, "/")
	for len(segments) > 0 && segments[len(segments)-1] == "" {
		segments = segments[:len(segments)-1]
	}

	for _, segment := range segments {
		switch segment {
		case "":
			return nil, false
		case ".":
			continue
		case "..":
			if node.parent != nil {
				node = node.parent
			}
		default:
			next := node.child(segment)
			if next == nil {
				return nil, false
			}
			node = next
		}
	}
	return node, true
}

// MakeDirectory creates one directory per path. A failing path does not
// stop the rest; the returned errors are in input order.
func (ns *Namespace) MakeDirectory(paths []string) []error {
	if len(paths) == 0 {
		return []error{&UsageError{Op: "mkdir", Want: 1, AtLeast: true}}
	}

	var errs []error
	for _, path := range paths {
		if err := ns.makeDirectory(path); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

func (ns *Namespace) makeDirectory(path string) error {
	parent, name, err := ns.locate(path)
	if err != nil {
		return &PathError{Op: "mkdir", Path: path, Err: err}
	}

	if _, exists := ns.Resolve(path); exists {
		return &PathError{Op: "mkdir", Path: displayName(name, path), Err: ErrExist}
	}

	NewNode(parent, name).Attach()
	return nil
}

// ChangeDirectory moves the cursor. It takes exactly one path and leaves
// the cursor alone on any error.
func (ns *Namespace) ChangeDirectory(paths []string) error {
	if len(paths) != 1 {
		return &UsageError{Op: "cd", Want: 1}
	}

	dest, ok := ns.Resolve(paths[0])
	if !ok {
		return &PathError{Op: "cd", Path: paths[0], Err: ErrNotExist}
	}
	if !dest.IsDir() {
		return &PathError{Op: "cd", Path: paths[0], Err: ErrNotDir}
	}

	ns.current = dest
	return nil
}

// ListFiles lists the current directory when paths is empty, one name per
// line. Otherwise it prints one line per path, in order, either
// "<name>: <child> <child>" or an error line for paths that do not resolve.
func (ns *Namespace) ListFiles(paths []string) string {
	if len(paths) == 0 {
		names := make([]string, 0, len(ns.current.children))
		for _, child := range ns.current.children {
			names = append(names, child.name)
		}
		return strings.Join(names, "\n")
	}

	lines := make([]string, 0, len(paths))
	for _, path := range paths {
		node, ok := ns.Resolve(path)
		if !ok {
			lines = append(lines, (&PathError{Op: "ls", Path: path, Err: ErrNotExist}).Error())
			continue
		}
		lines = append(lines, listing(node))
	}
	return strings.Join(lines, "\n")
}

func listing(node *Node) string {
	if node.IsFile() {
		return node.name
	}

	var b strings.Builder
	if node.IsRoot() {
		b.WriteString("/")
	} else {
		b.WriteString(node.name)
	}
	b.WriteString(":")
	for _, child := range node.children {
		b.WriteString(" ")
		b.WriteString(child.name)
	}
	return b.String()
}

// ReadFile returns the content of the file at paths[0]. Extra paths are
// ignored.
func (ns *Namespace) ReadFile(paths []string) (string, error) {
	if len(paths) == 0 {
		return "", &UsageError{Op: "cat", Want: 1, AtLeast: true}
	}

	path := paths[0]
	node, ok := ns.Resolve(path)
	if !ok {
		return "", &PathError{Op: "cat", Path: path, Err: ErrNotExist}
	}
	if node.IsDir() {
		return "", &PathError{Op: "cat", Path: path, Err: ErrIsDir}
	}
	if node.Content() == "" {
		return "", &PathError{Op: "cat", Path: path, Err: ErrNoContent}
	}
	return node.Content(), nil
}

// LinkFile creates a hard link: paths[1] becomes a new file sharing the
// content of the file at paths[0]. If paths[1] is an existing directory
// the link is created inside it under the target's name.
func (ns *Namespace) LinkFile(paths []string) error {
	if len(paths) != 2 {
		return &UsageError{Op: "ln", Want: 2}
	}
	target, link := paths[0], paths[1]

	src, ok := ns.Resolve(target)
	if !ok {
		return &PathError{Op: "ln", Path: target, Err: ErrNotExist}
	}
	if src.IsDir() {
		return &PathError{Op: "ln", Path: target, Err: ErrIsDir}
	}

	var parent *Node
	var name string
	if dst, ok := ns.Resolve(link); ok {
		if dst.IsFile() {
			return &PathError{Op: "ln", Path: link, Err: ErrExist}
		}
		if dst.child(src.name) != nil {
			return &PathError{Op: "ln", Path: strings.TrimSuffix(link, "/") + "/" + src.name, Err: ErrExist}
		}
		parent, name = dst, src.name
	} else {
		p, n, err := ns.locate(link)
		if err != nil {
			return &PathError{Op: "ln", Path: link, Err: err}
		}
		parent, name = p, n
	}

	newFileNode(parent, name, src.content).Attach()
	return nil
}

// WriteFile stores text in the file at path, creating it when missing.
// With appendMode set the text is added on a new line.
func (ns *Namespace) WriteFile(path, text string, appendMode bool) error {
	if node, ok := ns.Resolve(path); ok {
		if node.IsDir() {
			return &PathError{Op: "echo", Path: path, Err: ErrIsDir}
		}
		if appendMode && node.content.text != "" {
			node.content.text += "\n" + text
		} else {
			node.content.text = text
		}
		return nil
	}

	parent, name, err := ns.locate(path)
	if err != nil {
		return &PathError{Op: "echo", Path: path, Err: err}
	}
	newFileNode(parent, name, &payload{text: text}).Attach()
	return nil
}

// PathOf renders the absolute path of node, slash-terminated. Root is "/".
func (ns *Namespace) PathOf(node *Node) string {
	var names []string
	for n := node; n != nil && n.parent != nil; n = n.parent {
		names = append(names, n.name)
	}

	var b strings.Builder
	b.WriteString("/")
	for i := len(names) - 1; i >= 0; i-- {
		b.WriteString(names[i])
		b.WriteString("/")
	}
	return b.String()
}

// Pwd is PathOf(Current()).
func (ns *Namespace) Pwd() string {
	return ns.PathOf(ns.current)
}

// Walk visits every node depth-first, parents before children, in
// insertion order. Returning a non-nil error stops the walk.
func (ns *Namespace) Walk(fn func(node *Node, depth int) error) error {
	type frame struct {
		node  *Node
		depth int
	}

	stack := []frame{{node: ns.root}}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if err := fn(top.node, top.depth); err != nil {
			return err
		}
		for i := len(top.node.children) - 1; i >= 0; i-- {
			stack = append(stack, frame{node: top.node.children[i], depth: top.depth + 1})
		}
	}
	return nil
}

// Count returns the number of nodes, root included.
func (ns *Namespace) Count() int {
	count := 0
	ns.Walk(func(*Node, int) error {
		count++
		return nil
	})
	return count
}

// locate splits path at its last slash and resolves the parent part.
// Without a slash the parent is the current directory.
func (ns *Namespace) locate(path string) (*Node, string, error) {
	parent := ns.current
	name := path

	if i := strings.LastIndex(path, "/"); i >= 0 {
		if strings.Contains(path[:i+1], "//") {
			return nil, path[i+1:], ErrNotExist
		}
		parentPath := path[:i]
		if parentPath == "" {
			parentPath = "/"
		}
		name = path[i+1:]

		p, ok := ns.Resolve(parentPath)
		if !ok {
			return nil, name, ErrNotExist
		}
		parent = p
	}

	if !parent.IsDir() {
		return nil, name, ErrNotDir
	}
	return parent, name, nil
}

func displayName(name, path string) string {
	switch name {
	case "", ".", "..":
		return path
	}
	return name
}
