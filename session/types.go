package session

// Group scopes bindings. A group that is not inline opens its own binding
// scope. Iterations is an expression evaluated once per compile.
type Group struct {
	InlineScope bool
	Iterations  string
}

// Buffer is a block of memory, optionally backed by a file.
type Buffer struct {
	FileName string
	Size     int
}

// Block is a region of a buffer made of rows of fields.
type Block struct {
	Offset   string
	RowCount string
}

// Field is one column of a block row.
type Field struct {
	DataType DataType
	Count    int
	Padding  int
}

// Size returns the byte size of the field within one row.
func (f *Field) Size() int {
	return f.DataType.Size()*f.Count + f.Padding
}

// Texture is an image resource. Its images are the children of kind Image.
type Texture struct {
	FileName string
	Target   TextureTarget
	Format   Format
	Width    int
	Height   int
	Depth    int
	Layers   int
	Samples  int
	FlipY    bool
}

// Image is one level, layer or face of a texture loaded from a file.
type Image struct {
	Level    int
	Layer    int
	Face     int
	FileName string
}

// Program links the shaders among its children.
type Program struct{}

// Shader is one source file of a program.
type Shader struct {
	Type       ShaderType
	Language   Language
	FileName   string
	EntryPoint string
}

// Target describes a framebuffer whose attachments are its children.
type Target struct {
	FrontFace      FrontFace
	CullMode       CullMode
	PolygonMode    PolygonMode
	LogicOperation LogicOperation
	BlendConstant  [4]float64
	DefaultWidth   int
	DefaultHeight  int
	DefaultLayers  int
	DefaultSamples int
}

// StencilFace holds the stencil state of one face.
type StencilFace struct {
	Comparison  ComparisonFunc
	Reference   int
	ReadMask    uint32
	WriteMask   uint32
	FailOp      StencilOperation
	DepthFailOp StencilOperation
	PassOp      StencilOperation
}

// Attachment binds a texture level/layer to a target.
type Attachment struct {
	TextureID ItemID
	Level     int
	Layer     int

	BlendColorEq     BlendEquation
	BlendColorSource BlendFactor
	BlendColorDest   BlendFactor
	BlendAlphaEq     BlendEquation
	BlendAlphaSource BlendFactor
	BlendAlphaDest   BlendFactor
	ColorWriteMask   uint8

	DepthComparison     ComparisonFunc
	DepthOffsetSlope    float64
	DepthOffsetConstant float64
	DepthClamp          bool
	DepthWrite          bool

	StencilFront StencilFace
	StencilBack  StencilFace
}

// Stream is a vertex stream whose attributes are its children.
type Stream struct{}

// Attribute feeds a vertex attribute, named like the item, from a field.
type Attribute struct {
	FieldID   ItemID
	Normalize bool
	Divisor   int
}

// Binding sets a named value for the calls of its scope. The binding
// name is the item name.
type Binding struct {
	BindingType BindingType
	Values      []string

	TextureID ItemID
	BufferID  ItemID
	BlockID   ItemID
	Level     int
	Layer     int

	ImageFormat Format
	Access      Access

	MinFilter      Filter
	MagFilter      Filter
	Anisotropic    bool
	WrapModeX      WrapMode
	WrapModeY      WrapMode
	WrapModeZ      WrapMode
	BorderColor    [4]float64
	ComparisonFunc ComparisonFunc

	Subroutine string
}

// Call is one GPU operation. Disabled calls (Checked false) are not compiled.
type Call struct {
	Checked       bool
	CallType      CallType
	ExecuteOn     ExecuteOn
	PrimitiveType PrimitiveType

	ProgramID             ItemID
	TargetID              ItemID
	VertexStreamID        ItemID
	IndexBufferBlockID    ItemID
	IndirectBufferBlockID ItemID

	First         string
	Count         string
	InstanceCount string
	BaseVertex    string
	BaseInstance  string
	DrawCount     string
	WorkGroupsX   string
	WorkGroupsY   string
	WorkGroupsZ   string

	TextureID     ItemID
	FromTextureID ItemID
	BufferID      ItemID
	FromBufferID  ItemID

	ClearColor   [4]float64
	ClearDepth   float64
	ClearStencil int
}

// NeedsProgram reports whether the call kind requires a program.
func (c *Call) NeedsProgram() bool {
	switch c.CallType {
	case Draw, DrawIndexed, DrawIndirect, DrawIndexedIndirect, Compute, ComputeIndirect:
		return true
	}
	return false
}

// IsDraw reports whether the call kind rasterizes into a target.
func (c *Call) IsDraw() bool {
	switch c.CallType {
	case Draw, DrawIndexed, DrawIndirect, DrawIndexedIndirect:
		return true
	}
	return false
}

// IsIndexed reports whether the call kind reads an index buffer.
func (c *Call) IsIndexed() bool {
	return c.CallType == DrawIndexed || c.CallType == DrawIndexedIndirect
}

// IsIndirect reports whether the call kind reads an indirect buffer.
func (c *Call) IsIndirect() bool {
	switch c.CallType {
	case DrawIndirect, DrawIndexedIndirect, ComputeIndirect:
		return true
	}
	return false
}

// Script is a file executed by the script engine.
type Script struct {
	FileName  string
	ExecuteOn ExecuteOn
}
