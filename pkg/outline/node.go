package outline

// Recognized object keys. class and children are consumed before content is
// computed, item/text/link get special treatment, everything else is rendered
// as "key : value".
const (
	KeyClass    = "class"
	KeyChildren = "children"
	KeyItem     = "item"
	KeyText     = "text"
	KeyLink     = "link"

	// keys of a link object
	KeyName = "name"
	KeyHref = "href"
)

// Node one line, container or section of an outline
type Node struct {
	Content   string  // inline markup of the node's own line, may be empty
	Class     string  // css class of the node's wrapping element
	IsItem    bool    // rendered with a bullet
	IsSection bool    // groups Children one indent level deeper, Content is ignored
	Children  []*Node // owned by this node, source order
}

// Empty is true for a node that renders no markup at all
func (n *Node) Empty() bool {
	return !n.IsSection && n.Content == "" && len(n.Children) == 0
}

// mergeable reports whether a following nested list may become the children of n
func (n *Node) mergeable() bool {
	return n != nil && !n.IsSection && len(n.Children) == 0
}

// Count returns the number of nodes in the given trees
func Count(nodes []*Node) int {
	count := 0
	for _, n := range nodes {
		count += 1 + Count(n.Children)
	}
	return count
}
