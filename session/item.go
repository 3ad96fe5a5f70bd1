// Package session defines the declarative item tree that describes a GPU
// workload: buffers, textures, programs, targets, vertex streams, bindings,
// calls, scripts and the groups that scope them.
package session

import "fmt"

// ItemID is the stable identity of an item. 0 means "no item".
type ItemID int

// Kind identifies the payload of an item.
type Kind uint8

const (
	KindRoot Kind = iota
	KindGroup
	KindBuffer
	KindBlock
	KindField
	KindTexture
	KindImage
	KindProgram
	KindShader
	KindTarget
	KindAttachment
	KindStream
	KindAttribute
	KindBinding
	KindCall
	KindScript
)

var kindNames = [...]string{
	KindRoot:       "root",
	KindGroup:      "group",
	KindBuffer:     "buffer",
	KindBlock:      "block",
	KindField:      "field",
	KindTexture:    "texture",
	KindImage:      "image",
	KindProgram:    "program",
	KindShader:     "shader",
	KindTarget:     "target",
	KindAttachment: "attachment",
	KindStream:     "stream",
	KindAttribute:  "attribute",
	KindBinding:    "binding",
	KindCall:       "call",
	KindScript:     "script",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", k)
}

// Data is the kind-specific payload of an item.
type Data interface {
	Kind() Kind
}

// Item is a node of the session tree.
type Item struct {
	ID     ItemID
	Name   string
	Parent *Item
	Items  []*Item
	Data   Data
}

// Kind returns the kind of the item's payload.
func (it *Item) Kind() Kind {
	if it.Data == nil {
		return KindRoot
	}
	return it.Data.Kind()
}

// Path returns the slash separated names from the root to the item.
func (it *Item) Path() string {
	if it.Parent == nil || it.Parent.Kind() == KindRoot {
		return it.Name
	}
	return it.Parent.Path() + "/" + it.Name
}

// LastChild returns the last child, or nil.
func (it *Item) LastChild() *Item {
	if len(it.Items) == 0 {
		return nil
	}
	return it.Items[len(it.Items)-1]
}

// Append adds child as last child of it.
func (it *Item) Append(child *Item) *Item {
	child.Parent = it
	it.Items = append(it.Items, child)
	return child
}

// As returns the payload of it as T.
func As[T Data](it *Item) (T, bool) {
	var zero T
	if it == nil {
		return zero, false
	}
	d, ok := it.Data.(T)
	return d, ok
}

func (*Group) Kind() Kind      { return KindGroup }
func (*Buffer) Kind() Kind     { return KindBuffer }
func (*Block) Kind() Kind      { return KindBlock }
func (*Field) Kind() Kind      { return KindField }
func (*Texture) Kind() Kind    { return KindTexture }
func (*Image) Kind() Kind      { return KindImage }
func (*Program) Kind() Kind    { return KindProgram }
func (*Shader) Kind() Kind     { return KindShader }
func (*Target) Kind() Kind     { return KindTarget }
func (*Attachment) Kind() Kind { return KindAttachment }
func (*Stream) Kind() Kind     { return KindStream }
func (*Attribute) Kind() Kind  { return KindAttribute }
func (*Binding) Kind() Kind    { return KindBinding }
func (*Call) Kind() Kind       { return KindCall }
func (*Script) Kind() Kind     { return KindScript }
