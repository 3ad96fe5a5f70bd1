package session

// Model owns an item tree and indexes it by id.
type Model struct {
	root   *Item
	byID   map[ItemID]*Item
	nextID ItemID
}

// NewModel returns a model holding only the root item.
func NewModel() *Model {
	return &Model{
		root:   &Item{},
		byID:   make(map[ItemID]*Item),
		nextID: 1,
	}
}

// Root returns the root item. It has no payload and id 0.
func (m *Model) Root() *Item { return m.root }

// Add appends a new item to parent (the root when nil) and assigns it the
// next free id.
func (m *Model) Add(parent *Item, name string, data Data) *Item {
	if parent == nil {
		parent = m.root
	}
	it := &Item{ID: m.nextID, Name: name, Data: data}
	m.nextID++
	m.byID[it.ID] = it
	return parent.Append(it)
}

// FindItem returns the item with the given id, or nil.
func (m *Model) FindItem(id ItemID) *Item {
	if id == 0 {
		return nil
	}
	return m.byID[id]
}

// Find returns the payload of item id if it is of type T.
func Find[T Data](m *Model, id ItemID) (T, bool) {
	return As[T](m.FindItem(id))
}

// ForEachItem calls fn for every item except the root in depth-first
// document order.
func (m *Model) ForEachItem(fn func(*Item)) {
	var walk func(*Item)
	walk = func(it *Item) {
		for _, child := range it.Items {
			fn(child)
			walk(child)
		}
	}
	walk(m.root)
}

// Len returns the number of items, excluding the root.
func (m *Model) Len() int { return len(m.byID) }

// BlockStride returns the byte size of one row of block id.
func (m *Model) BlockStride(id ItemID) int {
	it := m.FindItem(id)
	if it == nil {
		return 0
	}
	stride := 0
	for _, child := range it.Items {
		if f, ok := As[*Field](child); ok {
			stride += f.Size()
		}
	}
	return stride
}

// FieldOffset returns the byte offset of field id within its block row.
func (m *Model) FieldOffset(id ItemID) int {
	it := m.FindItem(id)
	if it == nil || it.Parent == nil {
		return 0
	}
	offset := 0
	for _, sibling := range it.Parent.Items {
		if sibling == it {
			break
		}
		if f, ok := As[*Field](sibling); ok {
			offset += f.Size()
		}
	}
	return offset
}

// Clone returns a deep copy of the model. Item ids are preserved.
func (m *Model) Clone() *Model {
	c := &Model{
		byID:   make(map[ItemID]*Item, len(m.byID)),
		nextID: m.nextID,
	}
	var clone func(src, parent *Item) *Item
	clone = func(src, parent *Item) *Item {
		dst := &Item{ID: src.ID, Name: src.Name, Parent: parent, Data: cloneData(src.Data)}
		if parent != nil {
			c.byID[dst.ID] = dst
		}
		dst.Items = make([]*Item, 0, len(src.Items))
		for _, child := range src.Items {
			dst.Items = append(dst.Items, clone(child, dst))
		}
		return dst
	}
	c.root = clone(m.root, nil)
	return c
}

func cloneData(d Data) Data {
	switch v := d.(type) {
	case nil:
		return nil
	case *Group:
		c := *v
		return &c
	case *Buffer:
		c := *v
		return &c
	case *Block:
		c := *v
		return &c
	case *Field:
		c := *v
		return &c
	case *Texture:
		c := *v
		return &c
	case *Image:
		c := *v
		return &c
	case *Program:
		return &Program{}
	case *Shader:
		c := *v
		return &c
	case *Target:
		c := *v
		return &c
	case *Attachment:
		c := *v
		return &c
	case *Stream:
		return &Stream{}
	case *Attribute:
		c := *v
		return &c
	case *Binding:
		c := *v
		c.Values = append([]string(nil), v.Values...)
		return &c
	case *Call:
		c := *v
		return &c
	case *Script:
		c := *v
		return &c
	}
	return d
}
