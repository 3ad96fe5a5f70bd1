package session

import "testing"

func newTestModel() (*Model, *Item, *Item, *Item) {
	m := NewModel()
	buf := m.Add(nil, "verts", &Buffer{Size: 64})
	blk := m.Add(buf, "b", &Block{Offset: "0", RowCount: "3"})
	pos := m.Add(blk, "pos", &Field{DataType: Float32, Count: 3})
	m.Add(blk, "flag", &Field{DataType: Uint8, Count: 1, Padding: 3})
	return m, buf, blk, pos
}

func TestModelIDsAndLookup(t *testing.T) {
	m, buf, blk, pos := newTestModel()

	if buf.ID != 1 || blk.ID != 2 || pos.ID != 3 {
		t.Fatalf("ids = %d, %d, %d, want 1, 2, 3", buf.ID, blk.ID, pos.ID)
	}
	if got := m.FindItem(2); got != blk {
		t.Errorf("FindItem(2) = %v, want block", got)
	}
	if got := m.FindItem(0); got != nil {
		t.Errorf("FindItem(0) = %v, want nil", got)
	}
	if b, ok := Find[*Buffer](m, 1); !ok || b.Size != 64 {
		t.Errorf("Find[*Buffer](1) = %v, %v", b, ok)
	}
	if _, ok := Find[*Texture](m, 1); ok {
		t.Error("Find[*Texture](1) succeeded on a buffer")
	}
	if got := pos.Path(); got != "verts/b/pos" {
		t.Errorf("Path() = %q, want %q", got, "verts/b/pos")
	}
}

func TestModelForEachItemOrder(t *testing.T) {
	m, _, _, _ := newTestModel()
	m.Add(nil, "tex", &Texture{})

	var names []string
	m.ForEachItem(func(it *Item) { names = append(names, it.Name) })

	want := []string{"verts", "b", "pos", "flag", "tex"}
	if len(names) != len(want) {
		t.Fatalf("got %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("item %d = %q, want %q", i, names[i], want[i])
		}
	}
}

func TestModelBlockStride(t *testing.T) {
	m, _, blk, _ := newTestModel()
	if got := m.BlockStride(blk.ID); got != 16 {
		t.Errorf("BlockStride = %d, want 16", got)
	}
	if got := m.FieldOffset(4); got != 12 {
		t.Errorf("FieldOffset(flag) = %d, want 12", got)
	}
	if got := m.BlockStride(99); got != 0 {
		t.Errorf("BlockStride(missing) = %d, want 0", got)
	}
}

func TestModelClone(t *testing.T) {
	m := NewModel()
	bind := m.Add(nil, "color", &Binding{Values: []string{"1", "0"}})

	c := m.Clone()
	cb, ok := Find[*Binding](c, bind.ID)
	if !ok {
		t.Fatal("clone lost binding")
	}
	cb.Values[0] = "5"

	orig, _ := As[*Binding](bind)
	if orig.Values[0] != "1" {
		t.Errorf("original value = %q after editing clone, want %q", orig.Values[0], "1")
	}
	if c.FindItem(bind.ID).Parent != c.Root() {
		t.Error("cloned item is not parented to the cloned root")
	}
	if added := c.Add(nil, "next", &Group{}); added.ID != 2 {
		t.Errorf("next id in clone = %d, want 2", added.ID)
	}
}

func TestCallKindPredicates(t *testing.T) {
	tests := []struct {
		typ                               CallType
		program, draw, indexed, indirect bool
	}{
		{Draw, true, true, false, false},
		{DrawIndexedIndirect, true, true, true, true},
		{ComputeIndirect, true, false, false, true},
		{ClearTexture, false, false, false, false},
		{SwapBuffers, false, false, false, false},
	}
	for _, tt := range tests {
		c := &Call{CallType: tt.typ}
		if c.NeedsProgram() != tt.program || c.IsDraw() != tt.draw ||
			c.IsIndexed() != tt.indexed || c.IsIndirect() != tt.indirect {
			t.Errorf("%v: got (%v, %v, %v, %v), want (%v, %v, %v, %v)", tt.typ,
				c.NeedsProgram(), c.IsDraw(), c.IsIndexed(), c.IsIndirect(),
				tt.program, tt.draw, tt.indexed, tt.indirect)
		}
	}
}

func TestFormatProperties(t *testing.T) {
	tests := []struct {
		format  Format
		bytes   int
		srgb    bool
		depth   bool
		stencil bool
	}{
		{RGBA8Unorm, 4, false, false, false},
		{BGRA8UnormSrgb, 4, true, false, false},
		{RGBA32Float, 16, false, false, false},
		{Depth24PlusStencil8, 4, false, true, true},
		{FormatNone, 0, false, false, false},
	}
	for _, tt := range tests {
		if got := tt.format.BytesPerTexel(); got != tt.bytes {
			t.Errorf("%v.BytesPerTexel() = %d, want %d", tt.format, got, tt.bytes)
		}
		if tt.format.IsSRGB() != tt.srgb || tt.format.HasDepth() != tt.depth || tt.format.HasStencil() != tt.stencil {
			t.Errorf("%v flags = (%v, %v, %v), want (%v, %v, %v)", tt.format,
				tt.format.IsSRGB(), tt.format.HasDepth(), tt.format.HasStencil(), tt.srgb, tt.depth, tt.stencil)
		}
	}
	if f, ok := ParseFormat("RGBA8-Unorm-SRGB"); !ok || f != RGBA8UnormSrgb {
		t.Errorf("ParseFormat = %v, %v, want RGBA8UnormSrgb", f, ok)
	}
}
