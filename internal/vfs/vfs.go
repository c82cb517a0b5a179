// Package vfs implements the in-memory virtual filesystem the terminal and
// the files tool operate on. The tree is built from the embedded seed,
// mutated in place and rebuilt on Reset.
//
// Lookups that land on a trap node queue a credential_access violation, and
// removing the root or the home directories queues a dangerous_command
// violation. Violations are reported, not enforced: the session drains them
// once per tick with DrainViolations.
package vfs

import (
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/nvandessel/clawback/internal/constants"
	"github.com/nvandessel/clawback/internal/content"
	"github.com/nvandessel/clawback/internal/models"
)

var (
	ErrNotFound    = errors.New("no such file or directory")
	ErrNotDir      = errors.New("not a directory")
	ErrIsDir       = errors.New("is a directory")
	ErrNotEmpty    = errors.New("directory not empty")
	ErrExists      = errors.New("file exists")
	ErrRootRemoval = errors.New("cannot remove root directory")
	ErrSameFile    = errors.New("source and destination are the same file")
)

// Kind is the type of a node.
type Kind string

const (
	KindFile      Kind = "file"
	KindDirectory Kind = "directory"
)

// Default permissions and sizes for created nodes.
const (
	FilePerm = "rw-r--r--"
	DirPerm  = "rwxr-xr-x"
	TrapPerm = "rw-------"
	DirSize  = 4096
)

// Info describes a node without exposing the tree.
type Info struct {
	Name        string `json:"name"`
	Kind        Kind   `json:"kind"`
	Path        string `json:"path"`
	Permissions string `json:"permissions"`
	Size        int    `json:"size"`
	ModTick     int    `json:"mod_tick"`
	Hidden      bool   `json:"hidden,omitempty"`
	Trap        bool   `json:"trap,omitempty"`
	Children    int    `json:"children,omitempty"`
}

// IsDir reports whether the node is a directory.
func (i Info) IsDir() bool { return i.Kind == KindDirectory }

// Match is one grep hit.
type Match struct {
	Path string `json:"path"`
	Line int    `json:"line"`
	Text string `json:"text"`
}

type node struct {
	name     string
	kind     Kind
	perm     string
	size     int
	modTick  int
	hidden   bool
	trap     bool
	content  string
	children []*node
}

func (n *node) isDir() bool { return n.kind == KindDirectory }

// childPath joins a child name onto the path of the directory holding it.
// Nodes do not store their path; it is derived from the walk that reached them.
func childPath(dir, name string) string {
	if dir == "/" {
		return "/" + name
	}
	return dir + "/" + name
}

func (n *node) child(name string) *node {
	for _, c := range n.children {
		if c.name == name {
			return c
		}
	}
	return nil
}

func (n *node) info(p string) Info {
	return Info{
		Name:        n.name,
		Kind:        n.kind,
		Path:        p,
		Permissions: n.perm,
		Size:        n.size,
		ModTick:     n.modTick,
		Hidden:      n.hidden,
		Trap:        n.trap,
		Children:    len(n.children),
	}
}

// FS is the virtual filesystem. It is not safe for concurrent use; the
// session driver serialises access.
type FS struct {
	seed       *content.Node
	root       *node
	tick       int
	violations []models.Violation
}

// New builds a filesystem from the embedded seed.
func New() *FS {
	return NewFromSeed(content.MustFilesystem())
}

// NewFromSeed builds a filesystem from seed. Reset rebuilds from the same seed.
func NewFromSeed(seed *content.Node) *FS {
	fs := &FS{seed: seed}
	fs.Reset()
	return fs
}

// Reset rebuilds the tree from the seed and drops queued violations.
func (fs *FS) Reset() {
	fs.root = build(fs.seed)
	fs.tick = 0
	fs.violations = nil
}

func build(s *content.Node) *node {
	n := &node{
		name:   s.Name,
		hidden: s.Hidden,
		trap:   s.Trap,
	}
	if s.IsDir() {
		n.kind = KindDirectory
		n.perm = DirPerm
		n.size = DirSize
		for _, c := range s.Children {
			n.children = append(n.children, build(c))
		}
		return n
	}
	n.kind = KindFile
	n.perm = FilePerm
	if s.Trap {
		n.perm = TrapPerm
	}
	n.content = s.Content
	n.size = s.Size
	if n.size == 0 {
		n.size = len(s.Content)
	}
	return n
}

// SetTick sets the tick recorded as modification time of subsequent writes.
func (fs *FS) SetTick(tick int) { fs.tick = tick }

// DrainViolations returns and clears the queued violations.
func (fs *FS) DrainViolations() []models.Violation {
	v := fs.violations
	fs.violations = nil
	return v
}

func (fs *FS) raise(kind models.ViolationKind, p, detail string) {
	fs.violations = append(fs.violations, models.Violation{
		Kind:   kind,
		Source: models.SourceFilesystem,
		Path:   p,
		Detail: detail,
	})
}

// Resolve turns p into a normalized absolute path. Relative paths are joined
// to cwd; "~" expands to the home directory; "." and ".." are resolved, with
// ".." at the root staying at the root.
func (fs *FS) Resolve(p, cwd string) string {
	return Resolve(p, cwd)
}

// Resolve is FS.Resolve without a receiver.
func Resolve(p, cwd string) string {
	switch {
	case p == "~":
		p = constants.HomeDir
	case strings.HasPrefix(p, "~/"):
		p = constants.HomeDir + p[1:]
	}
	if !strings.HasPrefix(p, "/") {
		if cwd == "" {
			cwd = "/"
		}
		p = cwd + "/" + p
	}

	var resolved []string
	for _, part := range strings.Split(p, "/") {
		switch part {
		case "", ".":
		case "..":
			if len(resolved) > 0 {
				resolved = resolved[:len(resolved)-1]
			}
		default:
			resolved = append(resolved, part)
		}
	}
	return "/" + strings.Join(resolved, "/")
}

// lookup walks to an absolute, normalized path without raising signals.
func (fs *FS) lookup(abs string) *node {
	cur := fs.root
	for _, part := range strings.Split(strings.TrimPrefix(abs, "/"), "/") {
		if part == "" {
			continue
		}
		if !cur.isDir() {
			return nil
		}
		cur = cur.child(part)
		if cur == nil {
			return nil
		}
	}
	return cur
}

// get resolves and looks up p, raising credential_access on trap nodes.
func (fs *FS) get(p, cwd string) (*node, string) {
	abs := Resolve(p, cwd)
	n := fs.lookup(abs)
	if n != nil && n.trap {
		fs.raise(models.ViolationCredentialAccess, abs, "accessed sensitive file")
	}
	return n, abs
}

// GetNode returns information about the node at p.
func (fs *FS) GetNode(p, cwd string) (Info, error) {
	n, abs := fs.get(p, cwd)
	if n == nil {
		return Info{}, fmt.Errorf("%s: %w", abs, ErrNotFound)
	}
	return n.info(abs), nil
}

// Exists reports whether a node exists at p.
func (fs *FS) Exists(p, cwd string) bool {
	n, _ := fs.get(p, cwd)
	return n != nil
}

// IsDir reports whether p is an existing directory.
func (fs *FS) IsDir(p, cwd string) bool {
	n, _ := fs.get(p, cwd)
	return n != nil && n.isDir()
}

// ListDir lists the children of the directory at p in insertion order.
// Hidden children are included only when showHidden is set.
func (fs *FS) ListDir(p, cwd string, showHidden bool) ([]Info, error) {
	n, abs := fs.get(p, cwd)
	if n == nil {
		return nil, fmt.Errorf("%s: %w", abs, ErrNotFound)
	}
	if !n.isDir() {
		return nil, fmt.Errorf("%s: %w", abs, ErrNotDir)
	}
	out := make([]Info, 0, len(n.children))
	for _, c := range n.children {
		if c.hidden && !showHidden {
			continue
		}
		out = append(out, c.info(childPath(abs, c.name)))
	}
	return out, nil
}

// ReadFile returns the content of the file at p.
func (fs *FS) ReadFile(p, cwd string) (string, error) {
	n, abs := fs.get(p, cwd)
	if n == nil {
		return "", fmt.Errorf("%s: %w", abs, ErrNotFound)
	}
	if n.isDir() {
		return "", fmt.Errorf("%s: %w", abs, ErrIsDir)
	}
	return n.content, nil
}

// WriteFile overwrites the file at p, updating size and modification tick,
// or creates it under an existing parent directory.
func (fs *FS) WriteFile(p, cwd, data string) error {
	n, abs := fs.get(p, cwd)
	if n != nil {
		if n.isDir() {
			return fmt.Errorf("%s: %w", abs, ErrIsDir)
		}
		n.content = data
		n.size = len(data)
		n.modTick = fs.tick
		return nil
	}

	parent, name, err := fs.parentOf(abs)
	if err != nil {
		return err
	}
	parent.children = append(parent.children, &node{
		name:    name,
		kind:    KindFile,
		perm:    FilePerm,
		size:    len(data),
		modTick: fs.tick,
		content: data,
	})
	return nil
}

// Touch updates the modification tick of the node at p, or creates an empty
// file under an existing parent directory. The node is looked up once, so a
// trap raises a single credential_access.
func (fs *FS) Touch(p, cwd string) error {
	n, abs := fs.get(p, cwd)
	if n != nil {
		n.modTick = fs.tick
		return nil
	}
	parent, name, err := fs.parentOf(abs)
	if err != nil {
		return err
	}
	parent.children = append(parent.children, &node{
		name:    name,
		kind:    KindFile,
		perm:    FilePerm,
		modTick: fs.tick,
	})
	return nil
}

// AppendFile appends data to the file at p, creating it when missing.
func (fs *FS) AppendFile(p, cwd, data string) error {
	n := fs.lookup(Resolve(p, cwd))
	if n != nil && !n.isDir() {
		return fs.WriteFile(p, cwd, n.content+data)
	}
	return fs.WriteFile(p, cwd, data)
}

// Mkdir creates a directory at p. It fails if anything exists there or the
// parent is not a directory.
func (fs *FS) Mkdir(p, cwd string) error {
	n, abs := fs.get(p, cwd)
	if n != nil {
		return fmt.Errorf("%s: %w", abs, ErrExists)
	}
	parent, name, err := fs.parentOf(abs)
	if err != nil {
		return err
	}
	parent.children = append(parent.children, &node{
		name:    name,
		kind:    KindDirectory,
		perm:    DirPerm,
		size:    DirSize,
		modTick: fs.tick,
	})
	return nil
}

// MkdirAll creates p and any missing parents. Existing directories are fine.
func (fs *FS) MkdirAll(p, cwd string) error {
	abs := Resolve(p, cwd)
	cur := "/"
	for _, part := range strings.Split(strings.TrimPrefix(abs, "/"), "/") {
		if part == "" {
			continue
		}
		cur = path.Join(cur, part)
		n := fs.lookup(cur)
		if n == nil {
			if err := fs.Mkdir(cur, "/"); err != nil {
				return err
			}
			continue
		}
		if !n.isDir() {
			return fmt.Errorf("%s: %w", cur, ErrNotDir)
		}
	}
	return nil
}

func (fs *FS) parentOf(abs string) (*node, string, error) {
	if abs == "/" {
		return nil, "", fmt.Errorf("/: %w", ErrExists)
	}
	dir, name := path.Split(abs)
	dir = path.Clean(dir)
	parent := fs.lookup(dir)
	if parent == nil {
		return nil, "", fmt.Errorf("%s: %w", dir, ErrNotFound)
	}
	if !parent.isDir() {
		return nil, "", fmt.Errorf("%s: %w", dir, ErrNotDir)
	}
	return parent, name, nil
}

// Remove deletes the node at p. Removing the root always fails and raises
// dangerous_command. A non-empty directory needs recursive. Removing /home or
// /home/user raises dangerous_command but proceeds.
func (fs *FS) Remove(p, cwd string, recursive bool) error {
	abs := Resolve(p, cwd)
	if abs == "/" {
		fs.raise(models.ViolationDangerousCommand, abs, "attempted to remove root filesystem")
		return ErrRootRemoval
	}

	n, _ := fs.get(abs, "/")
	if n == nil {
		return fmt.Errorf("%s: %w", abs, ErrNotFound)
	}
	if n.isDir() && len(n.children) > 0 && !recursive {
		return fmt.Errorf("%s: %w", abs, ErrNotEmpty)
	}
	if abs == "/home" || abs == constants.HomeDir {
		fs.raise(models.ViolationDangerousCommand, abs, "attempted to remove "+abs)
	}

	parent, _, err := fs.parentOf(abs)
	if err != nil {
		return err
	}
	for i, c := range parent.children {
		if c == n {
			parent.children = append(parent.children[:i], parent.children[i+1:]...)
			break
		}
	}
	return nil
}

// Copy copies the file at src to dst. When dst is an existing directory the
// file keeps its name inside it. Directories cannot be copied.
func (fs *FS) Copy(src, dst, cwd string) error {
	n, abs := fs.get(src, cwd)
	if n == nil {
		return fmt.Errorf("%s: %w", abs, ErrNotFound)
	}
	if n.isDir() {
		return fmt.Errorf("%s: %w", abs, ErrIsDir)
	}
	to := fs.target(dst, cwd, n.name)
	if to == abs {
		return fmt.Errorf("%s: %w", abs, ErrSameFile)
	}
	return fs.WriteFile(to, "/", n.content)
}

// Move copies src to dst and removes src.
func (fs *FS) Move(src, dst, cwd string) error {
	if err := fs.Copy(src, dst, cwd); err != nil {
		return err
	}
	return fs.Remove(src, cwd, false)
}

// target resolves a copy destination, descending into an existing directory.
func (fs *FS) target(dst, cwd, name string) string {
	abs := Resolve(dst, cwd)
	if n := fs.lookup(abs); n != nil && n.isDir() {
		return path.Join(abs, name)
	}
	return abs
}

// Grep searches file content under p for pattern, case-insensitively. A file
// path searches that file; a directory path searches every file beneath it,
// hidden ones included. Reading a trap file raises credential_access.
func (fs *FS) Grep(pattern, p, cwd string) ([]Match, error) {
	n, abs := fs.get(p, cwd)
	if n == nil {
		return nil, fmt.Errorf("%s: %w", abs, ErrNotFound)
	}

	needle := strings.ToLower(pattern)
	var out []Match
	var walk func(*node, string)
	walk = func(cur *node, p string) {
		if !cur.isDir() {
			hit := false
			for i, line := range strings.Split(cur.content, "\n") {
				if strings.Contains(strings.ToLower(line), needle) {
					out = append(out, Match{Path: p, Line: i + 1, Text: strings.TrimSpace(line)})
					hit = true
				}
			}
			if hit && cur.trap && cur != n {
				fs.raise(models.ViolationCredentialAccess, p, "searched sensitive file")
			}
			return
		}
		for _, c := range cur.children {
			walk(c, childPath(p, c.name))
		}
	}
	walk(n, abs)
	return out, nil
}

// Walk calls fn for every node under p in tree order, hidden ones included.
// It does not raise signals.
func (fs *FS) Walk(p, cwd string, fn func(Info)) error {
	abs := Resolve(p, cwd)
	n := fs.lookup(abs)
	if n == nil {
		return fmt.Errorf("%s: %w", abs, ErrNotFound)
	}
	var walk func(*node, string)
	walk = func(cur *node, p string) {
		fn(cur.info(p))
		for _, c := range cur.children {
			walk(c, childPath(p, c.name))
		}
	}
	walk(n, abs)
	return nil
}

// AllFilePaths returns every file path in tree order, skipping hidden subtrees.
func (fs *FS) AllFilePaths() []string {
	var out []string
	var walk func(*node, string)
	walk = func(n *node, p string) {
		if n.hidden {
			return
		}
		if !n.isDir() {
			out = append(out, p)
			return
		}
		for _, c := range n.children {
			walk(c, childPath(p, c.name))
		}
	}
	walk(fs.root, "/")
	return out
}

// DiskUsage returns the summed size of every node, directories included.
func (fs *FS) DiskUsage() int {
	return usage(fs.root)
}

// Usage returns the summed size of the subtree at p.
func (fs *FS) Usage(p, cwd string) (int, error) {
	abs := Resolve(p, cwd)
	n := fs.lookup(abs)
	if n == nil {
		return 0, fmt.Errorf("%s: %w", abs, ErrNotFound)
	}
	return usage(n), nil
}

func usage(n *node) int {
	total := n.size
	for _, c := range n.children {
		total += usage(c)
	}
	return total
}
