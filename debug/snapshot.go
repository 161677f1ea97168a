package debug

import (
	json "github.com/json-iterator/go"

	"github.com/xraph/crucible"
)

// SnapshotNode is the wire form of a tree node. The sentinel scope is
// omitted; unscoped nodes export "none".
type SnapshotNode struct {
	Description string         `json:"description"`
	Scope       string         `json:"scope,omitempty"`
	Kind        Kind           `json:"kind"`
	Children    []SnapshotNode `json:"children,omitempty"`
}

// TreeSnapshot captures one debug tree together with where it came from,
// ready to ship to tooling.
type TreeSnapshot struct {
	ContainerID string       `json:"container_id"`
	Origin      string       `json:"origin"`
	Depth       int          `json:"depth"`
	Root        SnapshotNode `json:"root"`
}

// Snapshot builds origin's tree on c and flattens it for export. Depth
// follows the same convention as Build.
func Snapshot(c *crucible.Container, origin any, depth int) TreeSnapshot {
	return TreeSnapshot{
		ContainerID: c.ID(),
		Origin:      crucible.Describe(origin),
		Depth:       depth,
		Root:        snapshotNode(Build(c, origin, depth)),
	}
}

// JSON renders the snapshot as indented JSON.
func (s TreeSnapshot) JSON() ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}

func snapshotNode(n *Node) SnapshotNode {
	out := SnapshotNode{
		Description: n.Description,
		Scope:       snapshotScope(n.Scope),
		Kind:        n.Kind,
	}
	for _, child := range n.Children {
		out.Children = append(out.Children, snapshotNode(child))
	}
	return out
}

func snapshotScope(s *crucible.Scope) string {
	switch {
	case s == nil:
		return "none"
	case s == crucible.Sentinel():
		return ""
	default:
		return s.Name()
	}
}
