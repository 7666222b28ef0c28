package document

import (
	"bytes"
	"fmt"

	"github.com/tsawler/pdfmin/core"
)

// inheritable lists the page attributes a Page may take from an ancestor
// Pages node. Only /Resources affects where images are drawn.
var inheritable = []string{"Resources"}

// Page represents a single PDF page
type Page struct {
	Index int              // 0-based position in document order
	Ref   core.IndirectRef // reference of the page dictionary
	Dict  core.Dict

	inherited core.Dict
	resolver  Resolver
}

// NewPage creates a page from a dictionary. inherited holds attributes
// collected from ancestor Pages nodes and may be nil.
func NewPage(index int, ref core.IndirectRef, dict, inherited core.Dict, resolver Resolver) *Page {
	return &Page{
		Index:     index,
		Ref:       ref,
		Dict:      dict,
		inherited: inherited,
		resolver:  resolver,
	}
}

// Pages traverses the page tree from the catalog and returns the leaves
// in document order.
func (d *Document) Pages() ([]*Page, error) {
	catalog, err := d.Catalog()
	if err != nil {
		return nil, err
	}
	rootObj := catalog.Get("Pages")
	if rootObj == nil {
		return nil, fmt.Errorf("catalog missing /Pages entry")
	}

	t := &treeWalk{doc: d, seen: make(map[core.IndirectRef]bool)}
	if err := t.visit(rootObj, nil); err != nil {
		return nil, fmt.Errorf("failed to traverse page tree: %w", err)
	}
	return t.pages, nil
}

type treeWalk struct {
	doc   *Document
	seen  map[core.IndirectRef]bool
	pages []*Page
}

// visit handles one page tree node. inherited carries the inheritable
// attributes of the node's ancestors.
func (t *treeWalk) visit(obj core.Object, inherited core.Dict) error {
	ref, _ := obj.(core.IndirectRef)
	if ref != (core.IndirectRef{}) {
		if t.seen[ref] {
			return fmt.Errorf("page tree cycle at %s", ref)
		}
		t.seen[ref] = true
	}

	resolved, err := t.doc.Resolve(obj)
	if err != nil {
		return err
	}
	node, ok := resolved.(core.Dict)
	if !ok {
		return fmt.Errorf("invalid page tree node type: %T", resolved)
	}

	typeName, _ := node.GetName("Type")
	switch typeName {
	case "Pages":
		own := inherited.Clone()
		if own == nil {
			own = make(core.Dict)
		}
		for _, key := range inheritable {
			if v := node.Get(key); v != nil {
				own[key] = v
			}
		}

		kidsObj, err := t.doc.Resolve(node.Get("Kids"))
		if err != nil {
			return fmt.Errorf("failed to resolve /Kids: %w", err)
		}
		kids, ok := kidsObj.(core.Array)
		if !ok {
			return fmt.Errorf("invalid /Kids type: %T", kidsObj)
		}
		for _, kid := range kids {
			if err := t.visit(kid, own); err != nil {
				return err
			}
		}

	case "Page":
		t.pages = append(t.pages, NewPage(len(t.pages), ref, node, inherited, t.doc))

	default:
		return fmt.Errorf("unexpected page node type: %q", typeName)
	}
	return nil
}

// attr returns a page attribute, falling back to the inherited value.
func (p *Page) attr(key string) core.Object {
	if v := p.Dict.Get(key); v != nil {
		return v
	}
	return p.inherited.Get(key)
}

// Resources returns the page resources dictionary. A page without
// resources yields an empty dictionary.
func (p *Page) Resources() (core.Dict, error) {
	obj := p.attr("Resources")
	if obj == nil {
		return core.Dict{}, nil
	}
	resolved, err := p.resolver.Resolve(obj)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve Resources: %w", err)
	}
	dict, ok := resolved.(core.Dict)
	if !ok {
		return nil, fmt.Errorf("invalid Resources type: %T", resolved)
	}
	return dict, nil
}

// Contents returns the page's decoded content. When /Contents is an array
// the streams are joined with a newline, forming one logical stream.
func (p *Page) Contents() ([]byte, error) {
	obj := p.Dict.Get("Contents")
	if obj == nil {
		return nil, nil
	}
	resolved, err := p.resolver.Resolve(obj)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve Contents: %w", err)
	}

	var parts core.Array
	switch v := resolved.(type) {
	case *core.Stream:
		parts = core.Array{v}
	case core.Array:
		parts = v
	default:
		return nil, fmt.Errorf("invalid Contents type: %T", resolved)
	}

	var buf bytes.Buffer
	for i, part := range parts {
		obj, err := p.resolver.Resolve(part)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve contents[%d]: %w", i, err)
		}
		stream, ok := obj.(*core.Stream)
		if !ok {
			return nil, fmt.Errorf("invalid contents[%d] type: %T", i, obj)
		}
		data, err := p.Decode(stream)
		if err != nil {
			return nil, fmt.Errorf("contents[%d]: %w", i, err)
		}
		if i > 0 {
			buf.WriteByte('\n')
		}
		buf.Write(data)
	}
	return buf.Bytes(), nil
}

// UserUnit returns the size of a user space unit in points (PDF 1.6).
// Missing or non-positive values yield 1.
func (p *Page) UserUnit() float64 {
	if u, ok := p.Dict.GetNumber("UserUnit"); ok && u > 0 {
		return u
	}
	return 1
}

// Decode decodes a stream of the page's document, resolving indirect
// /Filter and /DecodeParms entries first.
func (p *Page) Decode(stream *core.Stream) ([]byte, error) {
	resolved, err := stream.ResolveFilters(p.resolver)
	if err != nil {
		return nil, err
	}
	return resolved.Decode()
}

// Resolve resolves obj through the page's document.
func (p *Page) Resolve(obj core.Object) (core.Object, error) {
	return p.resolver.Resolve(obj)
}
