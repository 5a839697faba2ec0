package export

import (
	"fmt"
	"io"

	"github.com/deiu/rdf2go"

	"github.com/VRK-YTI/yti-datamodel-api-sub003/graph"
)

// Options select what is written and how.
type Options struct {
	Format  Format
	Profile Profile

	// Resource limits the export to one subject and its blank-node
	// structures when set.
	Resource string
}

// Write serializes g to w.
func Write(w io.Writer, g *rdf2go.Graph, opts Options) error {
	if opts.Format == "" {
		opts.Format = FormatTurtle
	}
	info, ok := GetFormatInfo(opts.Format)
	if !ok {
		return fmt.Errorf("unknown export format %q", opts.Format)
	}

	if opts.Resource != "" {
		g = graph.Describe(g, graph.IRI(opts.Resource))
		if g.Len() == 0 {
			return fmt.Errorf("resource %s not in graph", opts.Resource)
		}
	}
	g = GetProfileConfig(opts.Profile).Apply(g)

	switch info.Name {
	case FormatNTriples:
		data, err := graph.EncodeNTriples(g)
		if err != nil {
			return err
		}
		if _, err := w.Write(data); err != nil {
			return fmt.Errorf("write n-triples: %w", err)
		}
		return nil
	case FormatTurtle:
		return graph.WriteTurtle(w, g)
	default:
		if err := g.Serialize(w, info.MIMEType); err != nil {
			return fmt.Errorf("serialize %s: %w", info.Name, err)
		}
		return nil
	}
}
