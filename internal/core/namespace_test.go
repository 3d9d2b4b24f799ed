package core

import (
	"errors"
	"testing"
)

// Helpers

func mustMkdir(t *testing.T, ns *Namespace, paths ...string) {
	t.Helper()
	if errs := ns.MakeDirectory(paths); len(errs) != 0 {
		t.Fatalf("mkdir %v: unexpected errors: %v", paths, errs)
	}
}

func mustResolve(t *testing.T, ns *Namespace, path string) *Node {
	t.Helper()
	node, ok := ns.Resolve(path)
	if !ok {
		t.Fatalf("expected %q to resolve", path)
	}
	return node
}

func assertChildNames(t *testing.T, node *Node, expected ...string) {
	t.Helper()
	children := node.Children()
	if len(children) != len(expected) {
		t.Fatalf("expected %d children, got %d", len(expected), len(children))
	}
	for i, name := range expected {
		if children[i].Name() != name {
			t.Errorf("child %d: expected %q, got %q", i, name, children[i].Name())
		}
	}
}

func assertPathError(t *testing.T, err error, op string, target error) {
	t.Helper()
	var pathErr *PathError
	if !errors.As(err, &pathErr) {
		t.Fatalf("expected *PathError, got %T (%v)", err, err)
	}
	if pathErr.Op != op {
		t.Errorf("expected op %q, got %q", op, pathErr.Op)
	}
	if !errors.Is(err, target) {
		t.Errorf("expected error wrapping %v, got %v", target, err)
	}
}

// Tests

func TestNew(t *testing.T) {
	ns := New()

	if ns.Root() == nil {
		t.Fatal("expected root to be non-nil")
	}
	if ns.Current() != ns.Root() {
		t.Error("expected current directory to start at root")
	}
	if !ns.Root().IsRoot() || !ns.Root().IsDir() {
		t.Error("expected root to be a directory without a parent")
	}
	if ns.Pwd() != "/" {
		t.Errorf("expected pwd '/', got %q", ns.Pwd())
	}
}

func TestNamespace_Resolve(t *testing.T) {
	t.Run("empty and bare slash resolve to start node", func(t *testing.T) {
		ns := New()
		mustMkdir(t, ns, "a")
		ns.ChangeDirectory([]string{"a"})

		if node := mustResolve(t, ns, ""); node != ns.Current() {
			t.Error("expected empty path to resolve to current")
		}
		if node := mustResolve(t, ns, "/"); node != ns.Root() {
			t.Error("expected '/' to resolve to root")
		}
	})

	t.Run("dot resolves to same node", func(t *testing.T) {
		ns := New()
		mustMkdir(t, ns, "a", "a/b")
		ns.ChangeDirectory([]string{"/a/b"})

		if node := mustResolve(t, ns, "."); node != ns.Current() {
			t.Error("expected '.' to resolve to current")
		}
	})

	t.Run("dotdot at root is clamped", func(t *testing.T) {
		ns := New()

		if node := mustResolve(t, ns, ".."); node != ns.Root() {
			t.Error("expected '..' from root to resolve to root")
		}
		if node := mustResolve(t, ns, "/../../.."); node != ns.Root() {
			t.Error("expected repeated '..' to stay at root")
		}
	})

	t.Run("clamp continues with remaining segments", func(t *testing.T) {
		ns := New()
		mustMkdir(t, ns, "a")

		node := mustResolve(t, ns, "../a")
		if node.Name() != "a" {
			t.Errorf("expected 'a', got %q", node.Name())
		}
	})

	t.Run("relative and absolute paths", func(t *testing.T) {
		ns := New()
		mustMkdir(t, ns, "a", "a/b", "a/b/c")
		ns.ChangeDirectory([]string{"a"})

		rel := mustResolve(t, ns, "b/c")
		abs := mustResolve(t, ns, "/a/b/c")
		if rel != abs {
			t.Error("expected relative and absolute paths to resolve to the same node")
		}
		if up := mustResolve(t, ns, "b/c/../.."); up != ns.Current() {
			t.Error("expected b/c/../.. to resolve to current")
		}
	})

	t.Run("trailing slashes are ignored", func(t *testing.T) {
		ns := New()
		mustMkdir(t, ns, "a", "a/b")

		if mustResolve(t, ns, "a/b/") != mustResolve(t, ns, "/a/b") {
			t.Error("expected a/b/ to resolve to /a/b")
		}
		if mustResolve(t, ns, "/a//") != mustResolve(t, ns, "a") {
			t.Error("expected /a// to resolve to /a")
		}
	})

	t.Run("doubled slashes fail", func(t *testing.T) {
		ns := New()
		mustMkdir(t, ns, "a", "a/b")

		for _, path := range []string{"a//b", "//a", "/a//b/"} {
			if _, ok := ns.Resolve(path); ok {
				t.Errorf("expected %q not to resolve", path)
			}
		}

		errs := ns.MakeDirectory([]string{"a//c", "//d"})
		if len(errs) != 2 {
			t.Fatalf("expected 2 errors, got %d", len(errs))
		}
		for _, err := range errs {
			assertPathError(t, err, "mkdir", ErrNotExist)
		}
		if ns.Count() != 3 {
			t.Errorf("expected no new nodes, got %d", ns.Count())
		}
	})

	t.Run("missing segment fails", func(t *testing.T) {
		ns := New()
		mustMkdir(t, ns, "a")

		for _, path := range []string{"b", "a/b", "/a/b/c", "a/../b"} {
			if node, ok := ns.Resolve(path); ok || node != nil {
				t.Errorf("expected %q not to resolve", path)
			}
		}
	})

	t.Run("does not create nodes", func(t *testing.T) {
		ns := New()
		ns.Resolve("x/y/z")

		if ns.Count() != 1 {
			t.Errorf("expected 1 node, got %d", ns.Count())
		}
	})
}

func TestNamespace_MakeDirectory(t *testing.T) {
	t.Run("created path resolves to normalized path", func(t *testing.T) {
		ns := New()
		mustMkdir(t, ns, "a", "/a/b", "a/b/../c")

		tests := map[string]string{
			"a":        "/a/",
			"/a/b":     "/a/b/",
			"a/./c":    "/a/c/",
			"/a/b/../": "/a/",
		}
		for path, want := range tests {
			node := mustResolve(t, ns, path)
			if got := ns.PathOf(node); got != want {
				t.Errorf("PathOf(%q) = %q, want %q", path, got, want)
			}
		}
	})

	t.Run("duplicate is a conflict", func(t *testing.T) {
		ns := New()
		mustMkdir(t, ns, "x")

		errs := ns.MakeDirectory([]string{"x"})
		if len(errs) != 1 {
			t.Fatalf("expected 1 error, got %d", len(errs))
		}
		assertPathError(t, errs[0], "mkdir", ErrExist)
		if errs[0].Error() != "mkdir: cannot create directory 'x': File exists" {
			t.Errorf("unexpected message: %q", errs[0].Error())
		}
		assertChildNames(t, ns.Root(), "x")
	})

	t.Run("missing parent", func(t *testing.T) {
		ns := New()

		errs := ns.MakeDirectory([]string{"nope/child"})
		if len(errs) != 1 {
			t.Fatalf("expected 1 error, got %d", len(errs))
		}
		assertPathError(t, errs[0], "mkdir", ErrNotExist)
		if errs[0].Error() != "mkdir: cannot create directory 'nope/child': No such file or directory" {
			t.Errorf("unexpected message: %q", errs[0].Error())
		}
		if ns.Count() != 1 {
			t.Error("expected tree to be unchanged")
		}
	})

	t.Run("batch continues past failures", func(t *testing.T) {
		ns := New()

		errs := ns.MakeDirectory([]string{"a", "missing/b", "a", "c"})
		if len(errs) != 2 {
			t.Fatalf("expected 2 errors, got %d: %v", len(errs), errs)
		}
		assertPathError(t, errs[0], "mkdir", ErrNotExist)
		assertPathError(t, errs[1], "mkdir", ErrExist)
		assertChildNames(t, ns.Root(), "a", "c")
	})

	t.Run("leading slash uses root as parent", func(t *testing.T) {
		ns := New()
		mustMkdir(t, ns, "a")
		ns.ChangeDirectory([]string{"a"})
		mustMkdir(t, ns, "/top")

		assertChildNames(t, ns.Root(), "a", "top")
	})

	t.Run("special names conflict", func(t *testing.T) {
		ns := New()
		for _, path := range []string{"/", ".", "..", ""} {
			errs := ns.MakeDirectory([]string{path})
			if len(errs) != 1 {
				t.Fatalf("mkdir %q: expected 1 error, got %d", path, len(errs))
			}
			assertPathError(t, errs[0], "mkdir", ErrExist)
		}
		if ns.Count() != 1 {
			t.Errorf("expected only root, got %d nodes", ns.Count())
		}
	})

	t.Run("parent is a file", func(t *testing.T) {
		ns := New()
		if err := ns.WriteFile("f", "data", false); err != nil {
			t.Fatal(err)
		}

		errs := ns.MakeDirectory([]string{"f/sub"})
		if len(errs) != 1 {
			t.Fatalf("expected 1 error, got %d", len(errs))
		}
		assertPathError(t, errs[0], "mkdir", ErrNotDir)
	})

	t.Run("no arguments is a usage error", func(t *testing.T) {
		ns := New()

		errs := ns.MakeDirectory(nil)
		if len(errs) != 1 {
			t.Fatalf("expected 1 error, got %d", len(errs))
		}
		var usage *UsageError
		if !errors.As(errs[0], &usage) {
			t.Fatalf("expected *UsageError, got %T", errs[0])
		}
	})

	t.Run("does not move current", func(t *testing.T) {
		ns := New()
		mustMkdir(t, ns, "a", "a/b")

		if ns.Current() != ns.Root() {
			t.Error("expected current to stay at root")
		}
	})
}

func TestNamespace_ChangeDirectory(t *testing.T) {
	t.Run("moves current", func(t *testing.T) {
		ns := New()
		mustMkdir(t, ns, "a", "a/b")

		if err := ns.ChangeDirectory([]string{"a/b"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ns.Pwd() != "/a/b/" {
			t.Errorf("expected /a/b/, got %q", ns.Pwd())
		}
	})

	t.Run("wrong argument count never mutates current", func(t *testing.T) {
		ns := New()
		mustMkdir(t, ns, "a", "b")
		ns.ChangeDirectory([]string{"a"})
		before := ns.Current()

		for _, args := range [][]string{nil, {}, {"/", "b"}, {"b", "b", "b"}} {
			err := ns.ChangeDirectory(args)
			var usage *UsageError
			if !errors.As(err, &usage) {
				t.Fatalf("args %v: expected *UsageError, got %T", args, err)
			}
			if ns.Current() != before {
				t.Errorf("args %v: current changed", args)
			}
		}
	})

	t.Run("missing path", func(t *testing.T) {
		ns := New()

		err := ns.ChangeDirectory([]string{"ghost"})
		assertPathError(t, err, "cd", ErrNotExist)
		if err.Error() != "cd : ghost: No such file or directory" {
			t.Errorf("unexpected message: %q", err.Error())
		}
		if ns.Current() != ns.Root() {
			t.Error("expected current to be unchanged")
		}
	})

	t.Run("file is not a directory", func(t *testing.T) {
		ns := New()
		ns.WriteFile("f", "x", false)

		err := ns.ChangeDirectory([]string{"f"})
		assertPathError(t, err, "cd", ErrNotDir)
		if ns.Current() != ns.Root() {
			t.Error("expected current to be unchanged")
		}
	})
}

func TestNamespace_ListFiles(t *testing.T) {
	t.Run("current directory in creation order", func(t *testing.T) {
		ns := New()
		mustMkdir(t, ns, "c", "a", "b")

		if got := ns.ListFiles(nil); got != "c\na\nb" {
			t.Errorf("unexpected listing %q", got)
		}
	})

	t.Run("empty directory", func(t *testing.T) {
		ns := New()

		if got := ns.ListFiles([]string{}); got != "" {
			t.Errorf("expected empty listing, got %q", got)
		}
	})

	t.Run("paths in input order with failures inline", func(t *testing.T) {
		ns := New()
		mustMkdir(t, ns, "a", "a/x", "a/y", "b")

		got := ns.ListFiles([]string{"b", "nope", "a", "/"})
		want := "b:\nls: nope: Path does not exist\na: x y\n/: a b"
		if got != want {
			t.Errorf("got %q, want %q", got, want)
		}
	})

	t.Run("file lists its own name", func(t *testing.T) {
		ns := New()
		mustMkdir(t, ns, "d")
		ns.WriteFile("d/notes", "hi", false)

		if got := ns.ListFiles([]string{"d/notes"}); got != "notes" {
			t.Errorf("expected 'notes', got %q", got)
		}
	})
}

func TestNamespace_ReadFile(t *testing.T) {
	t.Run("returns content verbatim", func(t *testing.T) {
		ns := New()
		ns.WriteFile("f", "  hello world ", false)

		got, err := ns.ReadFile([]string{"f", "ignored"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != "  hello world " {
			t.Errorf("unexpected content %q", got)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		ns := New()

		_, err := ns.ReadFile([]string{"nofile"})
		assertPathError(t, err, "cat", ErrNotExist)
		if err.Error() != "cat: nofile: No such file or no content" {
			t.Errorf("unexpected message: %q", err.Error())
		}
	})

	t.Run("directory has no content", func(t *testing.T) {
		ns := New()
		mustMkdir(t, ns, "d")

		_, err := ns.ReadFile([]string{"d"})
		assertPathError(t, err, "cat", ErrIsDir)
	})

	t.Run("empty file", func(t *testing.T) {
		ns := New()
		ns.WriteFile("empty", "", false)

		_, err := ns.ReadFile([]string{"empty"})
		assertPathError(t, err, "cat", ErrNoContent)
	})

	t.Run("no arguments", func(t *testing.T) {
		ns := New()

		_, err := ns.ReadFile(nil)
		var usage *UsageError
		if !errors.As(err, &usage) {
			t.Fatalf("expected *UsageError, got %T", err)
		}
	})
}

func TestNamespace_LinkFile(t *testing.T) {
	t.Run("wrong argument count", func(t *testing.T) {
		ns := New()
		ns.WriteFile("f", "x", false)

		for _, args := range [][]string{nil, {"f"}, {"f", "g", "h"}} {
			err := ns.LinkFile(args)
			var usage *UsageError
			if !errors.As(err, &usage) {
				t.Fatalf("args %v: expected *UsageError, got %T", args, err)
			}
			if usage.Error() != "ln : Command takes only 2 arguments, please try again." {
				t.Errorf("unexpected message: %q", usage.Error())
			}
		}
		if ns.Count() != 2 {
			t.Error("expected tree to be unchanged")
		}
	})

	t.Run("link shares content with target", func(t *testing.T) {
		ns := New()
		mustMkdir(t, ns, "d")
		ns.WriteFile("orig", "v1", false)

		if err := ns.LinkFile([]string{"orig", "d/copy"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		link := mustResolve(t, ns, "d/copy")
		if !link.IsFile() || link.Content() != "v1" {
			t.Fatalf("expected file with content v1, got %v %q", link.Kind(), link.Content())
		}

		ns.WriteFile("d/copy", "v2", false)
		if got, _ := ns.ReadFile([]string{"orig"}); got != "v2" {
			t.Errorf("expected write through link to be visible, got %q", got)
		}
	})

	t.Run("link into existing directory keeps target name", func(t *testing.T) {
		ns := New()
		mustMkdir(t, ns, "d")
		ns.WriteFile("orig", "v1", false)

		if err := ns.LinkFile([]string{"orig", "d"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		assertChildNames(t, mustResolve(t, ns, "d"), "orig")

		err := ns.LinkFile([]string{"orig", "d/"})
		assertPathError(t, err, "ln", ErrExist)
	})

	t.Run("missing target", func(t *testing.T) {
		ns := New()

		err := ns.LinkFile([]string{"ghost", "link"})
		assertPathError(t, err, "ln", ErrNotExist)
	})

	t.Run("directory target", func(t *testing.T) {
		ns := New()
		mustMkdir(t, ns, "d")

		err := ns.LinkFile([]string{"d", "link"})
		assertPathError(t, err, "ln", ErrIsDir)
	})

	t.Run("existing file at link path", func(t *testing.T) {
		ns := New()
		ns.WriteFile("a", "1", false)
		ns.WriteFile("b", "2", false)

		err := ns.LinkFile([]string{"a", "b"})
		assertPathError(t, err, "ln", ErrExist)
		if got, _ := ns.ReadFile([]string{"b"}); got != "2" {
			t.Errorf("expected b to be untouched, got %q", got)
		}
	})

	t.Run("missing link parent", func(t *testing.T) {
		ns := New()
		ns.WriteFile("a", "1", false)

		err := ns.LinkFile([]string{"a", "no/where"})
		assertPathError(t, err, "ln", ErrNotExist)
	})
}

func TestNamespace_WriteFile(t *testing.T) {
	t.Run("creates, overwrites and appends", func(t *testing.T) {
		ns := New()

		ns.WriteFile("f", "one", false)
		ns.WriteFile("f", "two", true)
		if got, _ := ns.ReadFile([]string{"f"}); got != "one\ntwo" {
			t.Errorf("unexpected content %q", got)
		}

		ns.WriteFile("f", "three", false)
		if got, _ := ns.ReadFile([]string{"f"}); got != "three" {
			t.Errorf("unexpected content %q", got)
		}
		assertChildNames(t, ns.Root(), "f")
	})

	t.Run("directory target", func(t *testing.T) {
		ns := New()
		mustMkdir(t, ns, "d")

		err := ns.WriteFile("d", "x", false)
		assertPathError(t, err, "echo", ErrIsDir)
	})

	t.Run("missing parent", func(t *testing.T) {
		ns := New()

		err := ns.WriteFile("no/f", "x", false)
		assertPathError(t, err, "echo", ErrNotExist)
	})
}

func TestNamespace_PathOf(t *testing.T) {
	ns := New()
	mustMkdir(t, ns, "a", "a/b")

	if got := ns.PathOf(ns.Root()); got != "/" {
		t.Errorf("expected '/', got %q", got)
	}
	if got := ns.PathOf(mustResolve(t, ns, "a/b")); got != "/a/b/" {
		t.Errorf("expected '/a/b/', got %q", got)
	}
}

func TestNamespace_Walk(t *testing.T) {
	ns := New()
	mustMkdir(t, ns, "a", "a/x", "b")
	ns.WriteFile("a/x/f", "data", false)

	var visited []string
	ns.Walk(func(node *Node, depth int) error {
		visited = append(visited, ns.PathOf(node))
		return nil
	})

	want := []string{"/", "/a/", "/a/x/", "/a/x/f/", "/b/"}
	if len(visited) != len(want) {
		t.Fatalf("expected %d nodes, got %d: %v", len(want), len(visited), visited)
	}
	for i := range want {
		if visited[i] != want[i] {
			t.Errorf("position %d: expected %q, got %q", i, want[i], visited[i])
		}
	}
	if ns.Count() != 5 {
		t.Errorf("expected count 5, got %d", ns.Count())
	}
}

func TestScenario_NavigateAndList(t *testing.T) {
	ns := New()

	mustMkdir(t, ns, "a")
	mustMkdir(t, ns, "a/b")
	if err := ns.ChangeDirectory([]string{"a/b"}); err != nil {
		t.Fatal(err)
	}
	if ns.Pwd() != "/a/b/" {
		t.Errorf("expected /a/b/, got %q", ns.Pwd())
	}
	if err := ns.ChangeDirectory([]string{".."}); err != nil {
		t.Fatal(err)
	}
	if ns.Pwd() != "/a/" {
		t.Errorf("expected /a/, got %q", ns.Pwd())
	}
	if got := ns.ListFiles(nil); got != "b" {
		t.Errorf("expected 'b', got %q", got)
	}
}
