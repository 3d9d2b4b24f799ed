package core

// NodeKind tells directories and files apart.
type NodeKind int

const (
	KindDir NodeKind = iota
	KindFile
)

func (k NodeKind) String() string {
	if k == KindFile {
		return "file"
	}
	return "dir"
}

// payload is the text of a file. Hard links point at the same payload.
type payload struct {
	text string
}

// Node is one entry of the namespace. The parent owns its children;
// parent is a plain back-reference used for ".." and path rendering.
type Node struct {
	kind     NodeKind
	name     string
	parent   *Node
	children []*Node
	content  *payload
}

// NewNode creates a detached directory under parent. The parent's
// children are not touched until Attach is called.
func NewNode(parent *Node, name string) *Node {
	return &Node{
		kind:     KindDir,
		name:     name,
		parent:   parent,
		children: []*Node{},
	}
}

func newFileNode(parent *Node, name string, content *payload) *Node {
	if content == nil {
		content = &payload{}
	}
	return &Node{
		kind:    KindFile,
		name:    name,
		parent:  parent,
		content: content,
	}
}

// Attach appends the node to its parent's children. It does not check
// for duplicate names; callers validate first.
func (n *Node) Attach() {
	if n.parent == nil {
		return
	}
	n.parent.children = append(n.parent.children, n)
}

func (n *Node) Name() string {
	return n.name
}

func (n *Node) Parent() *Node {
	return n.parent
}

// Children returns a copy of the child list in insertion order.
func (n *Node) Children() []*Node {
	out := make([]*Node, len(n.children))
	copy(out, n.children)
	return out
}

// Content returns the file text, or "" for directories.
func (n *Node) Content() string {
	if n.content == nil {
		return ""
	}
	return n.content.text
}

func (n *Node) Kind() NodeKind {
	return n.kind
}

func (n *Node) IsDir() bool {
	return n.kind == KindDir
}

func (n *Node) IsFile() bool {
	return n.kind == KindFile
}

func (n *Node) IsRoot() bool {
	return n.parent == nil
}

func (n *Node) child(name string) *Node {
	for _, c := range n.children {
		if c.name == name {
			return c
		}
	}
	return nil
}
