package cluster

// DisjointSet is a union-find structure with path compression, used to
// reconcile inconsistent product identifiers within a single analysis run —
// e.g. the same SKU listed under slightly different titles on two
// marketplaces.  It is scoped to one run and never persisted.
type DisjointSet struct {
	parent map[string]string
	rank   map[string]int
}

// NewDisjointSet returns an empty DisjointSet.
func NewDisjointSet() *DisjointSet {
	return &DisjointSet{
		parent: make(map[string]string),
		rank:   make(map[string]int),
	}
}

// Find returns the canonical representative for id, adding id as its own
// singleton set on first sight.
func (d *DisjointSet) Find(id string) string {
	p, ok := d.parent[id]
	if !ok {
		d.parent[id] = id
		return id
	}
	if p == id {
		return id
	}
	root := d.Find(p)
	d.parent[id] = root // path compression
	return root
}

// Union merges the sets containing a and b, by rank.
func (d *DisjointSet) Union(a, b string) {
	ra, rb := d.Find(a), d.Find(b)
	if ra == rb {
		return
	}
	if d.rank[ra] < d.rank[rb] {
		ra, rb = rb, ra
	}
	d.parent[rb] = ra
	if d.rank[ra] == d.rank[rb] {
		d.rank[ra]++
	}
}

// Same reports whether a and b are in the same set.
func (d *DisjointSet) Same(a, b string) bool {
	return d.Find(a) == d.Find(b)
}
