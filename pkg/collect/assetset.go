package collect

// AssetSet is the deduplicated set of asset references produced by a Collector.
// References are unique by exact string value and kept in first-seen order.
// An AssetSet is never modified after it is returned.
type AssetSet struct {
	refs  []string
	index map[string]struct{}
}

// NewAssetSet builds a set from refs, dropping exact duplicates.
func NewAssetSet(refs ...string) *AssetSet {
	b := newSetBuilder()
	for _, ref := range refs {
		b.add(ref)
	}
	return b.build()
}

// Len returns the number of unique references.
func (s *AssetSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.refs)
}

// Items returns a copy of the references in insertion order.
func (s *AssetSet) Items() []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s.refs))
	copy(out, s.refs)
	return out
}

// Contains reports whether ref is in the set.
func (s *AssetSet) Contains(ref string) bool {
	if s == nil {
		return false
	}
	_, ok := s.index[ref]
	return ok
}

type setBuilder struct {
	seen  map[string]struct{}
	refs  []string
	total int
}

func newSetBuilder() *setBuilder {
	return &setBuilder{seen: make(map[string]struct{})}
}

func (b *setBuilder) add(ref string) {
	b.total++
	if _, dup := b.seen[ref]; dup {
		return
	}
	b.seen[ref] = struct{}{}
	b.refs = append(b.refs, ref)
}

func (b *setBuilder) duplicates() int {
	return b.total - len(b.refs)
}

func (b *setBuilder) build() *AssetSet {
	return &AssetSet{refs: b.refs, index: b.seen}
}
