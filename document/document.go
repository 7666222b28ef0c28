package document

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/tsawler/pdfmin/core"
)

// ErrObjectNotFound is returned when a reference does not name an object
// in the table.
var ErrObjectNotFound = errors.New("object not found")

// maxRefChain bounds how many references Resolve follows before giving up.
const maxRefChain = 32

// Resolver resolves indirect references to the objects they name.
type Resolver = core.Resolver

// Document is an in-memory PDF object table together with its catalog.
// All methods are safe for concurrent use; Replace is atomic with respect
// to concurrent Lookup calls.
type Document struct {
	mu      sync.RWMutex
	objects map[core.IndirectRef]core.Object
	next    int
	root    core.IndirectRef
}

// Ensure Document implements Resolver
var _ Resolver = (*Document)(nil)

// New creates an empty document.
func New() *Document {
	return &Document{
		objects: make(map[core.IndirectRef]core.Object),
		next:    1,
	}
}

// Add stores obj under a fresh object number (generation 0) and returns
// its reference.
func (d *Document) Add(obj core.Object) core.IndirectRef {
	d.mu.Lock()
	defer d.mu.Unlock()

	ref := core.IndirectRef{Number: d.next}
	d.next++
	d.objects[ref] = obj
	return ref
}

// Set stores obj under an explicit reference, as a loader reading an
// existing file would. An existing object under ref is overwritten.
func (d *Document) Set(ref core.IndirectRef, obj core.Object) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.objects[ref] = obj
	if ref.Number >= d.next {
		d.next = ref.Number + 1
	}
}

// Lookup returns the object stored under ref.
func (d *Document) Lookup(ref core.IndirectRef) (core.Object, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	obj, ok := d.objects[ref]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, ref)
	}
	return obj, nil
}

// Replace substitutes obj for the object currently stored under ref. The
// previous object is no longer reachable through the table. Replacing a
// reference that does not exist is an error.
func (d *Document) Replace(ref core.IndirectRef, obj core.Object) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.objects[ref]; !ok {
		return fmt.Errorf("replace: %w: %s", ErrObjectNotFound, ref)
	}
	d.objects[ref] = obj
	return nil
}

// Resolve follows indirect references until it reaches a direct object.
// Direct objects are returned unchanged.
func (d *Document) Resolve(obj core.Object) (core.Object, error) {
	for i := 0; i < maxRefChain; i++ {
		ref, ok := obj.(core.IndirectRef)
		if !ok {
			return obj, nil
		}
		var err error
		obj, err = d.Lookup(ref)
		if err != nil {
			return nil, err
		}
	}
	return nil, fmt.Errorf("reference chain longer than %d", maxRefChain)
}

// Len returns the number of objects in the table.
func (d *Document) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.objects)
}

// Refs returns every reference in the table, sorted.
func (d *Document) Refs() []core.IndirectRef {
	d.mu.RLock()
	refs := make([]core.IndirectRef, 0, len(d.objects))
	for ref := range d.objects {
		refs = append(refs, ref)
	}
	d.mu.RUnlock()

	sort.Slice(refs, func(i, j int) bool { return refs[i].Less(refs[j]) })
	return refs
}

// SetRoot sets the document catalog.
func (d *Document) SetRoot(ref core.IndirectRef) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.root = ref
}

// Root returns the document catalog reference. The zero reference means
// no catalog has been set.
func (d *Document) Root() core.IndirectRef {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.root
}

// Catalog returns the document catalog dictionary.
func (d *Document) Catalog() (core.Dict, error) {
	root := d.Root()
	if root == (core.IndirectRef{}) {
		return nil, fmt.Errorf("document has no catalog")
	}
	obj, err := d.Lookup(root)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	catalog, ok := obj.(core.Dict)
	if !ok {
		return nil, fmt.Errorf("invalid catalog type: %T", obj)
	}
	return catalog, nil
}

// AppendPage adds page as the last leaf of the page tree, creating the
// catalog and root Pages node on first use. The page dictionary gets its
// /Type and /Parent entries filled in.
func (d *Document) AppendPage(page core.Dict) (core.IndirectRef, error) {
	if d.Root() == (core.IndirectRef{}) {
		pagesRef := d.Add(core.Dict{
			"Type":  core.Name("Pages"),
			"Kids":  core.Array{},
			"Count": core.Int(0),
		})
		d.SetRoot(d.Add(core.Dict{
			"Type":  core.Name("Catalog"),
			"Pages": pagesRef,
		}))
	}

	catalog, err := d.Catalog()
	if err != nil {
		return core.IndirectRef{}, err
	}
	pagesRef, ok := catalog.GetIndirectRef("Pages")
	if !ok {
		return core.IndirectRef{}, fmt.Errorf("catalog /Pages is not a reference")
	}
	obj, err := d.Lookup(pagesRef)
	if err != nil {
		return core.IndirectRef{}, err
	}
	root, ok := obj.(core.Dict)
	if !ok {
		return core.IndirectRef{}, fmt.Errorf("invalid /Pages type: %T", obj)
	}

	page.Set("Type", core.Name("Page"))
	page.Set("Parent", pagesRef)
	ref := d.Add(page)

	kids, _ := root.GetArray("Kids")
	count, _ := root.GetInt("Count")
	updated := root.Clone()
	updated.Set("Kids", append(append(core.Array{}, kids...), ref))
	updated.Set("Count", count+1)
	if err := d.Replace(pagesRef, updated); err != nil {
		return core.IndirectRef{}, err
	}
	return ref, nil
}
