// Package graph renders the active node of a workflow as a Mermaid flowchart.
package graph

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/aretw0/treetrim/pkg/domain"
)

// GenerateMermaid produces a Mermaid flowchart of the active node.
// Shapes:
// - Internal node: [Rectangle] with both branches as ((Circle)) stubs
// - Leaf: ([Stadium])
// - Staged change: [/Parallelogram/], linked with a dotted arrow
// An idle state yields an empty graph.
func GenerateMermaid(s domain.WorkflowState) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	n := s.ActiveNode
	if n == nil {
		return sb.String()
	}

	id := nodeID(*n)
	label := escape(strings.Join(n.Summary(), "<br/>"))
	if n.IsLeaf {
		fmt.Fprintf(&sb, "    %s([\"%s\"])\n", id, label)
	} else {
		fmt.Fprintf(&sb, "    %s[\"%s\"]\n", id, label)
		fmt.Fprintf(&sb, "    %s -- \"yes\" --> %s_left((\"...\"))\n", id, id)
		fmt.Fprintf(&sb, "    %s -- \"no\" --> %s_right((\"...\"))\n", id, id)
	}

	if s.Staged != nil {
		fmt.Fprintf(&sb, "    %s -. \"%s\" .-> staged[/\"%s = %s\"/]\n",
			id, escape(string(s.StagedReason)), s.Staged.Parameter,
			strconv.FormatFloat(s.Staged.Value, 'g', -1, 64))
	}

	sb.WriteString("\n    %% Overlay Styles\n")
	// Force black text (color:#000) for contrast on both light and dark themes.
	sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")
	fmt.Fprintf(&sb, "    class %s current;\n", id)
	if s.Staged != nil {
		sb.WriteString("    classDef staged fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    class staged staged;\n")
	}
	return sb.String()
}

func nodeID(n domain.NodeSnapshot) string {
	if n.ID == "" {
		return "node_d" + strconv.Itoa(n.Depth)
	}
	return "node_" + sanitizeMermaidID(n.ID)
}

func escape(label string) string {
	return strings.ReplaceAll(label, "\"", "'")
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}
