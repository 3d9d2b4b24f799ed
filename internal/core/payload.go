package core

import "time"

// Entry is the serialisable form of a node.
type Entry struct {
	Name     string   `json:"name"`
	Kind     string   `json:"kind"`
	Content  string   `json:"content,omitempty"`
	Children []*Entry `json:"children,omitempty"`
}

// Snapshot is a point-in-time copy of a namespace.
type Snapshot struct {
	Root      *Entry    `json:"root"`
	Cwd       string    `json:"cwd"`
	Nodes     int       `json:"nodes"`
	CreatedAt time.Time `json:"created_at"`
}

func NewSnapshot(ns *Namespace) *Snapshot {
	entries := make(map[*Node]*Entry)
	var root *Entry

	ns.Walk(func(node *Node, _ int) error {
		e := &Entry{
			Name:    node.name,
			Kind:    node.kind.String(),
			Content: node.Content(),
		}
		entries[node] = e
		if parent, ok := entries[node.parent]; ok {
			parent.Children = append(parent.Children, e)
		} else {
			root = e
		}
		return nil
	})

	return &Snapshot{
		Root:      root,
		Cwd:       ns.Pwd(),
		Nodes:     len(entries),
		CreatedAt: time.Now(),
	}
}
