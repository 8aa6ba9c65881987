package tree

import (
	"fmt"
	"io"
	"strings"

	"github.com/goccy/go-graphviz"
	"github.com/goccy/go-graphviz/cgraph"

	"github.com/YuminosukeSato/mllib/pkg/errors"
)

// graphFormat maps a file extension or format name to a graphviz format.
func graphFormat(format string) (graphviz.Format, error) {
	switch strings.TrimPrefix(strings.ToLower(format), ".") {
	case "dot", "gv", "":
		return graphviz.XDOT, nil
	case "svg":
		return graphviz.SVG, nil
	case "png":
		return graphviz.PNG, nil
	case "jpg", "jpeg":
		return graphviz.JPG, nil
	default:
		return "", errors.NewValueError(modelName+".WriteGraph", fmt.Sprintf("unsupported graph format %q", format))
	}
}

// WriteGraph renders the fitted tree with graphviz. format is one of dot,
// svg, png or jpg. The left child of a split holds the samples for which
// the condition is true. With scaling enabled thresholds are in [0, 1].
func (dt *DecisionTreeClassifier) WriteGraph(w io.Writer, format string) error {
	if err := dt.state.RequireFitted(modelName, "WriteGraph"); err != nil {
		return err
	}
	gf, err := graphFormat(format)
	if err != nil {
		return err
	}

	gv := graphviz.New()
	defer gv.Close()
	graph, err := gv.Graph()
	if err != nil {
		return errors.Wrap(err, "failed to create graph")
	}
	defer graph.Close()

	id := 0
	if err := dt.drawNode(graph, dt.root, nil, &id); err != nil {
		return err
	}
	if err := gv.Render(graph, gf, w); err != nil {
		return errors.Wrap(err, "failed to render tree")
	}
	return nil
}

func (dt *DecisionTreeClassifier) drawNode(g *cgraph.Graph, n *Node, parent *cgraph.Node, id *int) error {
	current, err := g.CreateNode(fmt.Sprintf("n%d", *id))
	if err != nil {
		return errors.Wrap(err, "failed to create node")
	}
	*id++

	if parent != nil {
		if _, err := g.CreateEdge("", parent, current); err != nil {
			return errors.Wrap(err, "failed to create edge")
		}
	}

	if n.IsLeaf() {
		current.Set("label", fmt.Sprintf("class = %d\nsamples = %d", dt.classes[argmax(n.Value)], n.NSamples))
		current.Set("shape", "box")
		return nil
	}

	current.Set("label", fmt.Sprintf("x[%d] < %.4g\n%s = %.3f\nsamples = %d",
		n.Feature, n.Threshold, dt.params.Criterion, n.Impurity, n.NSamples))
	if err := dt.drawNode(g, n.Left, current, id); err != nil {
		return err
	}
	return dt.drawNode(g, n.Right, current, id)
}
