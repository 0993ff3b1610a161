package sim

import (
	"path"
	"strconv"
	"strings"

	"github.com/san-kum/vessim/internal/errcode"
	"github.com/san-kum/vessim/internal/variable"
)

// walk visits n's initialized subtree in pre-order, n itself excluded. The
// caller holds s.mu.
func walk(n *node, visit func(*node) bool) bool {
	for _, c := range n.children {
		if c.lifecycle() != Initialized {
			continue
		}
		if !visit(c) || !walk(c, visit) {
			return false
		}
	}
	return true
}

// ObjectsByType returns initialized objects whose type matches pattern, in
// tree order.
func (s *System) ObjectsByType(pattern string) []*Object {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Object
	walk(s.root, func(n *node) bool {
		n.mu.RLock()
		typ := n.typ
		n.mu.RUnlock()
		if ok, _ := path.Match(pattern, typ); ok {
			out = append(out, &Object{n: n})
		}
		return true
	})
	return out
}

// ObjectByUID finds an initialized object by its unique id.
func (s *System) ObjectByUID(uid uint32) (*Object, error) {
	s.mu.RLock()
	n, ok := s.byUID[uid]
	s.mu.RUnlock()
	if uid == 0 || !ok || n.lifecycle() != Initialized {
		return nil, errcode.NotFound
	}
	return &Object{n: n}, nil
}

// ObjectByName searches parent's subtree, or the whole system, for the first
// initialized object called name.
func (s *System) ObjectByName(parent *Object, name string) (*Object, error) {
	start := s.root
	if parent != nil {
		if err := parent.readable(); err != nil {
			return nil, err
		}
		start = parent.n
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var found *node
	walk(start, func(n *node) bool {
		n.mu.RLock()
		match := n.name == name
		n.mu.RUnlock()
		if match {
			found = n
		}
		return !match
	})
	if found == nil {
		return nil, errcode.NotFound
	}
	if parent != nil {
		return parent.handle(found), nil
	}
	return &Object{n: found}, nil
}

// QueryByReference resolves a slash-separated reference such as
// "vessel/tank/fuel_mass". Leading segments name child objects; once a segment
// matches no child the rest is looked up as nested variables. A segment may
// carry a zero-based index, "engine[1]", to pick among equal names. The
// returned variable is nil when the reference ends at an object.
func (s *System) QueryByReference(parent *Object, ref string) (*Object, *variable.Variable, error) {
	obj := parent
	if obj == nil {
		obj = s.Root()
	}
	if err := obj.readable(); err != nil {
		return nil, nil, err
	}
	segs := strings.Split(strings.Trim(ref, "/"), "/")
	if len(segs) == 1 && segs[0] == "" {
		return obj, nil, nil
	}

	i := 0
	for ; i < len(segs); i++ {
		name, idx, err := parseSegment(segs[i])
		if err != nil {
			return nil, nil, err
		}
		next := obj.childNamed(name, idx)
		if next == nil {
			break
		}
		obj = next
	}
	if i == len(segs) {
		return obj, nil, nil
	}

	vars := obj.n.variables()
	var v *variable.Variable
	for ; i < len(segs); i++ {
		name, idx, err := parseSegment(segs[i])
		if err != nil {
			return nil, nil, err
		}
		v = nthVariable(vars, name, idx)
		if v == nil {
			return nil, nil, errcode.NotFound
		}
		vars = v
	}
	return obj, v, nil
}

func parseSegment(seg string) (string, int, error) {
	open := strings.IndexByte(seg, '[')
	if open < 0 {
		return seg, 0, nil
	}
	if !strings.HasSuffix(seg, "]") {
		return "", 0, errcode.SyntaxError
	}
	idx, err := strconv.Atoi(seg[open+1 : len(seg)-1])
	if err != nil || idx < 0 {
		return "", 0, errcode.SyntaxError
	}
	return seg[:open], idx, nil
}

func (o *Object) childNamed(name string, idx int) *Object {
	s := o.n.sys
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range o.n.children {
		if c.lifecycle() != Initialized {
			continue
		}
		c.mu.RLock()
		match := c.name == name
		c.mu.RUnlock()
		if !match {
			continue
		}
		if idx == 0 {
			return o.handle(c)
		}
		idx--
	}
	return nil
}

func nthVariable(v *variable.Variable, name string, idx int) *variable.Variable {
	for _, c := range v.Children() {
		if c.Name() != name {
			continue
		}
		if idx == 0 {
			return c
		}
		idx--
	}
	return nil
}

// AddDatabase registers a database: a nested variable whose children are
// entries such as materials. Entries of a database with the same name as an
// existing one are merged into it.
func (s *System) AddDatabase(db *variable.Variable) error {
	if db == nil || db.Type() != variable.Nested {
		return errcode.BadParameter
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.databases {
		if existing.Name() != db.Name() {
			continue
		}
		for _, entry := range db.Children() {
			if err := existing.Attach(entry.Copy()); err != nil {
				return err
			}
		}
		return nil
	}
	s.databases = append(s.databases, db)
	return nil
}

func (s *System) Database(name string) (*variable.Variable, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, db := range s.databases {
		if db.Name() == name {
			return db, nil
		}
	}
	return nil, errcode.NotFound
}

func (s *System) Databases() []*variable.Variable {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*variable.Variable(nil), s.databases...)
}

// DatabaseEntry returns entry name from database db.
func (s *System) DatabaseEntry(db, name string) (*variable.Variable, error) {
	d, err := s.Database(db)
	if err != nil {
		return nil, err
	}
	return d.Nested(name)
}
