package tree

// Node is a single node of a fitted tree. Fields are exported so that a whole
// tree can be encoded with gob.
type Node struct {
	// Feature and Threshold describe the split: samples with
	// x[Feature] < Threshold go to Left.
	Feature   int
	Threshold float64

	Impurity float64
	NSamples int
	Depth    int

	// Value is the class distribution of the samples that reached the node,
	// aligned with the classifier's sorted classes.
	Value []float64

	Left  *Node
	Right *Node
}

// IsLeaf reports whether n has no children.
func (n *Node) IsLeaf() bool {
	return n.Left == nil && n.Right == nil
}

func (n *Node) leaf(x []float64) *Node {
	node := n
	for !node.IsLeaf() {
		if x[node.Feature] < node.Threshold {
			node = node.Left
		} else {
			node = node.Right
		}
	}
	return node
}

func (n *Node) maxDepth() int {
	if n.IsLeaf() {
		return n.Depth
	}
	return max(n.Left.maxDepth(), n.Right.maxDepth())
}

func (n *Node) countLeaves() int {
	if n.IsLeaf() {
		return 1
	}
	return n.Left.countLeaves() + n.Right.countLeaves()
}
