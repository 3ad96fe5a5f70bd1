package session

import (
	"fmt"
	"os"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
)

// LoadFile reads a session from an HCL file.
func LoadFile(path string) (*Model, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("session: %w", err)
	}
	return Parse(src, path)
}

// Parse reads a session from HCL source. Blocks become items in document
// order; the first block label is the item name. Cross references are item
// paths ("shaders/prog") or unique path suffixes.
func Parse(src []byte, filename string) (*Model, error) {
	file, diags := hclparse.NewParser().ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse session %s: %w", filename, diags)
	}
	body, ok := file.Body.(*hclsyntax.Body)
	if !ok {
		return nil, fmt.Errorf("session %s: unsupported body type %T", filename, file.Body)
	}

	l := &loader{model: NewModel(), src: file.Bytes}
	l.blocks(nil, body.Blocks)
	if !l.diags.HasErrors() {
		l.resolve()
	}
	if l.diags.HasErrors() {
		return nil, fmt.Errorf("failed to load session %s: %w", filename, l.diags)
	}
	return l.model, nil
}

type reference struct {
	dst  *ItemID
	path string
	kind Kind
	rng  hcl.Range
}

type loader struct {
	model *Model
	src   []byte
	refs  []reference
	diags hcl.Diagnostics
}

func (l *loader) errorf(rng hcl.Range, summary, format string, args ...any) {
	l.diags = append(l.diags, &hcl.Diagnostic{
		Severity: hcl.DiagError,
		Summary:  summary,
		Detail:   fmt.Sprintf(format, args...),
		Subject:  rng.Ptr(),
	})
}

func (l *loader) blocks(parent *Item, blocks hclsyntax.Blocks) {
	for _, b := range blocks {
		name := b.Type
		if len(b.Labels) > 0 {
			name = b.Labels[0]
		}
		decode, ok := decoders[b.Type]
		if !ok {
			l.errorf(b.DefRange(), "Unsupported block type", "Blocks of type %q are not expected here.", b.Type)
			continue
		}
		it := l.model.Add(parent, name, nil)
		it.Data = decode(l, b)
		l.blocks(it, b.Body.Blocks)
	}
}

func (l *loader) decodeBody(b *hclsyntax.Block, spec any) bool {
	diags := gohcl.DecodeBody(b.Body, nil, spec)
	l.diags = append(l.diags, diags...)
	return !diags.HasErrors()
}

// ref records a reference to be resolved once all items exist.
func (l *loader) ref(dst *ItemID, path string, kind Kind, rng hcl.Range) {
	if path == "" {
		return
	}
	l.refs = append(l.refs, reference{dst: dst, path: path, kind: kind, rng: rng})
}

func (l *loader) resolve() {
	byPath := make(map[string]*Item)
	var all []*Item
	l.model.ForEachItem(func(it *Item) {
		byPath[it.Path()] = it
		all = append(all, it)
	})
	for _, r := range l.refs {
		target, ok := byPath[r.path]
		if !ok {
			var matches []*Item
			for _, it := range all {
				if strings.HasSuffix(it.Path(), "/"+r.path) && it.Kind() == r.kind {
					matches = append(matches, it)
				}
			}
			switch len(matches) {
			case 0:
				l.errorf(r.rng, "Unresolved reference", "No %s named %q.", r.kind, r.path)
				continue
			case 1:
				target = matches[0]
			default:
				l.errorf(r.rng, "Ambiguous reference", "%d items of kind %s match %q.", len(matches), r.kind, r.path)
				continue
			}
		}
		if target.Kind() != r.kind {
			l.errorf(r.rng, "Invalid reference", "%q is a %s, not a %s.", r.path, target.Kind(), r.kind)
			continue
		}
		*r.dst = target.ID
	}
}

// expr converts an attribute expression to the string form used for
// dynamic fields. Constant values are normalized through cty; anything
// that needs evaluation context keeps its source text.
func (l *loader) expr(e hcl.Expression, def string) string {
	if e == nil {
		return def
	}
	v, diags := e.Value(nil)
	if !diags.HasErrors() && v.IsWhollyKnown() {
		if v.IsNull() {
			return def
		}
		switch v.Type() {
		case cty.String:
			return v.AsString()
		case cty.Number:
			return v.AsBigFloat().Text('g', -1)
		case cty.Bool:
			if v.True() {
				return "1"
			}
			return "0"
		}
	}
	rng := e.Range()
	if rng.End.Byte <= len(l.src) && rng.Start.Byte < rng.End.Byte {
		return string(l.src[rng.Start.Byte:rng.End.Byte])
	}
	return def
}

// exprs splits a list expression into its element expressions. A scalar
// yields one element.
func (l *loader) exprs(e hcl.Expression) []string {
	if e == nil {
		return nil
	}
	if v, diags := e.Value(nil); !diags.HasErrors() && v.IsNull() {
		return nil
	}
	elems, diags := hcl.ExprList(e)
	if diags.HasErrors() {
		return []string{l.expr(e, "")}
	}
	values := make([]string, 0, len(elems))
	for _, el := range elems {
		values = append(values, l.expr(el, "0"))
	}
	return values
}

func enum[T ~uint8](l *loader, names []string, attr, value string, def T, rng hcl.Range) T {
	if value == "" {
		return def
	}
	v, ok := lookup[T](names, value)
	if !ok {
		l.errorf(rng, "Invalid value", "Unknown %s %q.", attr, value)
		return def
	}
	return v
}

func vec4(values []float64, def [4]float64) [4]float64 {
	if len(values) == 0 {
		return def
	}
	var v [4]float64
	copy(v[:], values)
	return v
}

var decoders map[string]func(*loader, *hclsyntax.Block) Data

func init() {
	decoders = map[string]func(*loader, *hclsyntax.Block) Data{
		"group":      decodeGroup,
		"buffer":     decodeBuffer,
		"block":      decodeBlock,
		"field":      decodeField,
		"texture":    decodeTexture,
		"image":      decodeImage,
		"program":    decodeProgram,
		"shader":     decodeShader,
		"target":     decodeTarget,
		"attachment": decodeAttachment,
		"stream":     decodeStream,
		"attribute":  decodeAttribute,
		"binding":    decodeBinding,
		"call":       decodeCall,
		"script":     decodeScript,
	}
}

type groupSpec struct {
	Inline     bool           `hcl:"inline,optional"`
	Iterations hcl.Expression `hcl:"iterations,optional"`
	Remain     hcl.Body       `hcl:",remain"`
}

func decodeGroup(l *loader, b *hclsyntax.Block) Data {
	var s groupSpec
	l.decodeBody(b, &s)
	return &Group{InlineScope: s.Inline, Iterations: l.expr(s.Iterations, "1")}
}

type bufferSpec struct {
	File   string   `hcl:"file,optional"`
	Size   int      `hcl:"size,optional"`
	Remain hcl.Body `hcl:",remain"`
}

func decodeBuffer(l *loader, b *hclsyntax.Block) Data {
	var s bufferSpec
	l.decodeBody(b, &s)
	return &Buffer{FileName: s.File, Size: s.Size}
}

type blockSpec struct {
	Offset hcl.Expression `hcl:"offset,optional"`
	Rows   hcl.Expression `hcl:"rows,optional"`
	Remain hcl.Body       `hcl:",remain"`
}

func decodeBlock(l *loader, b *hclsyntax.Block) Data {
	var s blockSpec
	l.decodeBody(b, &s)
	return &Block{Offset: l.expr(s.Offset, "0"), RowCount: l.expr(s.Rows, "1")}
}

type fieldSpec struct {
	Type    string   `hcl:"type"`
	Count   int      `hcl:"count,optional"`
	Padding int      `hcl:"padding,optional"`
	Remain  hcl.Body `hcl:",remain"`
}

func decodeField(l *loader, b *hclsyntax.Block) Data {
	s := fieldSpec{Count: 1}
	l.decodeBody(b, &s)
	return &Field{
		DataType: enum(l, dataTypeNames, "data type", s.Type, Float32, b.DefRange()),
		Count:    s.Count,
		Padding:  s.Padding,
	}
}

type textureSpec struct {
	File    string   `hcl:"file,optional"`
	Target  string   `hcl:"target,optional"`
	Format  string   `hcl:"format,optional"`
	Width   int      `hcl:"width,optional"`
	Height  int      `hcl:"height,optional"`
	Depth   int      `hcl:"depth,optional"`
	Layers  int      `hcl:"layers,optional"`
	Samples int      `hcl:"samples,optional"`
	FlipY   bool     `hcl:"flip_y,optional"`
	Remain  hcl.Body `hcl:",remain"`
}

func decodeTexture(l *loader, b *hclsyntax.Block) Data {
	s := textureSpec{Width: 1, Height: 1, Depth: 1, Layers: 1, Samples: 1}
	l.decodeBody(b, &s)
	return &Texture{
		FileName: s.File,
		Target:   enum(l, textureTargetNames, "texture target", s.Target, Target2D, b.DefRange()),
		Format:   enum(l, formatNames, "format", s.Format, RGBA8Unorm, b.DefRange()),
		Width:    s.Width,
		Height:   s.Height,
		Depth:    s.Depth,
		Layers:   s.Layers,
		Samples:  s.Samples,
		FlipY:    s.FlipY,
	}
}

type imageSpec struct {
	Level  int      `hcl:"level,optional"`
	Layer  int      `hcl:"layer,optional"`
	Face   int      `hcl:"face,optional"`
	File   string   `hcl:"file,optional"`
	Remain hcl.Body `hcl:",remain"`
}

func decodeImage(l *loader, b *hclsyntax.Block) Data {
	var s imageSpec
	l.decodeBody(b, &s)
	return &Image{Level: s.Level, Layer: s.Layer, Face: s.Face, FileName: s.File}
}

type emptySpec struct {
	Remain hcl.Body `hcl:",remain"`
}

func decodeProgram(l *loader, b *hclsyntax.Block) Data {
	var s emptySpec
	l.decodeBody(b, &s)
	return &Program{}
}

func decodeStream(l *loader, b *hclsyntax.Block) Data {
	var s emptySpec
	l.decodeBody(b, &s)
	return &Stream{}
}

type shaderSpec struct {
	Type       string   `hcl:"type"`
	Language   string   `hcl:"language,optional"`
	File       string   `hcl:"file,optional"`
	EntryPoint string   `hcl:"entry_point,optional"`
	Remain     hcl.Body `hcl:",remain"`
}

func decodeShader(l *loader, b *hclsyntax.Block) Data {
	var s shaderSpec
	l.decodeBody(b, &s)
	return &Shader{
		Type:       enum(l, shaderTypeNames, "shader type", s.Type, VertexShader, b.DefRange()),
		Language:   enum(l, languageNames, "language", s.Language, WGSL, b.DefRange()),
		FileName:   s.File,
		EntryPoint: s.EntryPoint,
	}
}

type targetSpec struct {
	FrontFace      string    `hcl:"front_face,optional"`
	CullMode       string    `hcl:"cull_mode,optional"`
	PolygonMode    string    `hcl:"polygon_mode,optional"`
	LogicOperation string    `hcl:"logic_operation,optional"`
	BlendConstant  []float64 `hcl:"blend_constant,optional"`
	Width          int       `hcl:"width,optional"`
	Height         int       `hcl:"height,optional"`
	Layers         int       `hcl:"layers,optional"`
	Samples        int       `hcl:"samples,optional"`
	Remain         hcl.Body  `hcl:",remain"`
}

func decodeTarget(l *loader, b *hclsyntax.Block) Data {
	var s targetSpec
	l.decodeBody(b, &s)
	rng := b.DefRange()
	return &Target{
		FrontFace:      enum(l, frontFaceNames, "front face", s.FrontFace, FrontFaceCCW, rng),
		CullMode:       enum(l, cullModeNames, "cull mode", s.CullMode, CullNone, rng),
		PolygonMode:    enum(l, polygonModeNames, "polygon mode", s.PolygonMode, PolygonFill, rng),
		LogicOperation: enum(l, logicOperationNames, "logic operation", s.LogicOperation, LogicNone, rng),
		BlendConstant:  vec4(s.BlendConstant, [4]float64{}),
		DefaultWidth:   s.Width,
		DefaultHeight:  s.Height,
		DefaultLayers:  s.Layers,
		DefaultSamples: s.Samples,
	}
}

type attachmentSpec struct {
	Texture          string  `hcl:"texture"`
	Level            int     `hcl:"level,optional"`
	Layer            int     `hcl:"layer,optional"`
	BlendColorEq     string  `hcl:"blend_color_eq,optional"`
	BlendColorSource string  `hcl:"blend_color_source,optional"`
	BlendColorDest   string  `hcl:"blend_color_dest,optional"`
	BlendAlphaEq     string  `hcl:"blend_alpha_eq,optional"`
	BlendAlphaSource string  `hcl:"blend_alpha_source,optional"`
	BlendAlphaDest   string  `hcl:"blend_alpha_dest,optional"`
	ColorWriteMask   int     `hcl:"color_write_mask,optional"`
	DepthComparison  string  `hcl:"depth_comparison,optional"`
	DepthOffsetSlope float64 `hcl:"depth_offset_slope,optional"`
	DepthOffsetConst float64 `hcl:"depth_offset_constant,optional"`
	DepthClamp       bool    `hcl:"depth_clamp,optional"`
	DepthWrite       bool    `hcl:"depth_write,optional"`

	StencilComparison  string   `hcl:"stencil_comparison,optional"`
	StencilReference   int      `hcl:"stencil_reference,optional"`
	StencilReadMask    int      `hcl:"stencil_read_mask,optional"`
	StencilWriteMask   int      `hcl:"stencil_write_mask,optional"`
	StencilFailOp      string   `hcl:"stencil_fail_op,optional"`
	StencilDepthFailOp string   `hcl:"stencil_depth_fail_op,optional"`
	StencilPassOp      string   `hcl:"stencil_pass_op,optional"`
	Remain             hcl.Body `hcl:",remain"`
}

func decodeAttachment(l *loader, b *hclsyntax.Block) Data {
	s := attachmentSpec{ColorWriteMask: 0xF, DepthWrite: true, StencilReadMask: 0xFF, StencilWriteMask: 0xFF}
	l.decodeBody(b, &s)
	rng := b.DefRange()
	stencil := StencilFace{
		Comparison:  enum(l, comparisonFuncNames, "stencil comparison", s.StencilComparison, CompareAlways, rng),
		Reference:   s.StencilReference,
		ReadMask:    uint32(s.StencilReadMask),
		WriteMask:   uint32(s.StencilWriteMask),
		FailOp:      enum(l, stencilOperationNames, "stencil operation", s.StencilFailOp, StencilKeep, rng),
		DepthFailOp: enum(l, stencilOperationNames, "stencil operation", s.StencilDepthFailOp, StencilKeep, rng),
		PassOp:      enum(l, stencilOperationNames, "stencil operation", s.StencilPassOp, StencilKeep, rng),
	}
	a := &Attachment{
		Level:               s.Level,
		Layer:               s.Layer,
		BlendColorEq:        enum(l, blendEquationNames, "blend equation", s.BlendColorEq, BlendAdd, rng),
		BlendColorSource:    enum(l, blendFactorNames, "blend factor", s.BlendColorSource, BlendOne, rng),
		BlendColorDest:      enum(l, blendFactorNames, "blend factor", s.BlendColorDest, BlendZero, rng),
		BlendAlphaEq:        enum(l, blendEquationNames, "blend equation", s.BlendAlphaEq, BlendAdd, rng),
		BlendAlphaSource:    enum(l, blendFactorNames, "blend factor", s.BlendAlphaSource, BlendOne, rng),
		BlendAlphaDest:      enum(l, blendFactorNames, "blend factor", s.BlendAlphaDest, BlendZero, rng),
		ColorWriteMask:      uint8(s.ColorWriteMask),
		DepthComparison:     enum(l, comparisonFuncNames, "depth comparison", s.DepthComparison, CompareLess, rng),
		DepthOffsetSlope:    s.DepthOffsetSlope,
		DepthOffsetConstant: s.DepthOffsetConst,
		DepthClamp:          s.DepthClamp,
		DepthWrite:          s.DepthWrite,
		StencilFront:        stencil,
		StencilBack:         stencil,
	}
	l.ref(&a.TextureID, s.Texture, KindTexture, rng)
	return a
}

type attributeSpec struct {
	Field     string   `hcl:"field"`
	Normalize bool     `hcl:"normalize,optional"`
	Divisor   int      `hcl:"divisor,optional"`
	Remain    hcl.Body `hcl:",remain"`
}

func decodeAttribute(l *loader, b *hclsyntax.Block) Data {
	var s attributeSpec
	l.decodeBody(b, &s)
	a := &Attribute{Normalize: s.Normalize, Divisor: s.Divisor}
	l.ref(&a.FieldID, s.Field, KindField, b.DefRange())
	return a
}

type bindingSpec struct {
	Type        string         `hcl:"type"`
	Values      hcl.Expression `hcl:"values,optional"`
	Texture     string         `hcl:"texture,optional"`
	Buffer      string         `hcl:"buffer,optional"`
	Block       string         `hcl:"block,optional"`
	Level       int            `hcl:"level,optional"`
	Layer       int            `hcl:"layer,optional"`
	Format      string         `hcl:"format,optional"`
	Access      string         `hcl:"access,optional"`
	MinFilter   string         `hcl:"min_filter,optional"`
	MagFilter   string         `hcl:"mag_filter,optional"`
	Anisotropic bool           `hcl:"anisotropic,optional"`
	WrapX       string         `hcl:"wrap_x,optional"`
	WrapY       string         `hcl:"wrap_y,optional"`
	WrapZ       string         `hcl:"wrap_z,optional"`
	BorderColor []float64      `hcl:"border_color,optional"`
	Compare     string         `hcl:"compare,optional"`
	Subroutine  string         `hcl:"subroutine,optional"`
	Remain      hcl.Body       `hcl:",remain"`
}

func decodeBinding(l *loader, b *hclsyntax.Block) Data {
	var s bindingSpec
	l.decodeBody(b, &s)
	rng := b.DefRange()
	bd := &Binding{
		BindingType:    enum(l, bindingTypeNames, "binding type", s.Type, UniformBinding, rng),
		Values:         l.exprs(s.Values),
		Level:          s.Level,
		Layer:          s.Layer,
		ImageFormat:    enum(l, formatNames, "format", s.Format, FormatNone, rng),
		Access:         enum(l, accessNames, "access", s.Access, ReadWrite, rng),
		MinFilter:      enum(l, filterNames, "filter", s.MinFilter, FilterLinear, rng),
		MagFilter:      enum(l, filterNames, "filter", s.MagFilter, FilterLinear, rng),
		Anisotropic:    s.Anisotropic,
		WrapModeX:      enum(l, wrapModeNames, "wrap mode", s.WrapX, WrapRepeat, rng),
		WrapModeY:      enum(l, wrapModeNames, "wrap mode", s.WrapY, WrapRepeat, rng),
		WrapModeZ:      enum(l, wrapModeNames, "wrap mode", s.WrapZ, WrapRepeat, rng),
		BorderColor:    vec4(s.BorderColor, [4]float64{}),
		ComparisonFunc: enum(l, comparisonFuncNames, "comparison", s.Compare, CompareNone, rng),
		Subroutine:     s.Subroutine,
	}
	l.ref(&bd.TextureID, s.Texture, KindTexture, rng)
	l.ref(&bd.BufferID, s.Buffer, KindBuffer, rng)
	l.ref(&bd.BlockID, s.Block, KindBlock, rng)
	return bd
}

type callSpec struct {
	Enabled        bool           `hcl:"enabled,optional"`
	Type           string         `hcl:"type"`
	ExecuteOn      string         `hcl:"execute_on,optional"`
	Primitive      string         `hcl:"primitive,optional"`
	Program        string         `hcl:"program,optional"`
	Target         string         `hcl:"target,optional"`
	Stream         string         `hcl:"stream,optional"`
	IndexBuffer    string         `hcl:"index_buffer,optional"`
	IndirectBuffer string         `hcl:"indirect_buffer,optional"`
	First          hcl.Expression `hcl:"first,optional"`
	Count          hcl.Expression `hcl:"count,optional"`
	InstanceCount  hcl.Expression `hcl:"instance_count,optional"`
	BaseVertex     hcl.Expression `hcl:"base_vertex,optional"`
	BaseInstance   hcl.Expression `hcl:"base_instance,optional"`
	DrawCount      hcl.Expression `hcl:"draw_count,optional"`
	WorkGroupsX    hcl.Expression `hcl:"work_groups_x,optional"`
	WorkGroupsY    hcl.Expression `hcl:"work_groups_y,optional"`
	WorkGroupsZ    hcl.Expression `hcl:"work_groups_z,optional"`
	Texture        string         `hcl:"texture,optional"`
	FromTexture    string         `hcl:"from_texture,optional"`
	Buffer         string         `hcl:"buffer,optional"`
	FromBuffer     string         `hcl:"from_buffer,optional"`
	ClearColor     []float64      `hcl:"clear_color,optional"`
	ClearDepth     float64        `hcl:"clear_depth,optional"`
	ClearStencil   int            `hcl:"clear_stencil,optional"`
	Remain         hcl.Body       `hcl:",remain"`
}

func decodeCall(l *loader, b *hclsyntax.Block) Data {
	s := callSpec{Enabled: true, ClearDepth: 1}
	l.decodeBody(b, &s)
	rng := b.DefRange()
	c := &Call{
		Checked:       s.Enabled,
		CallType:      enum(l, callTypeNames, "call type", s.Type, Draw, rng),
		ExecuteOn:     enum(l, executeOnNames, "execute on", s.ExecuteOn, EveryEvaluation, rng),
		PrimitiveType: enum(l, primitiveTypeNames, "primitive type", s.Primitive, Triangles, rng),
		First:         l.expr(s.First, "0"),
		Count:         l.expr(s.Count, ""),
		InstanceCount: l.expr(s.InstanceCount, "1"),
		BaseVertex:    l.expr(s.BaseVertex, "0"),
		BaseInstance:  l.expr(s.BaseInstance, "0"),
		DrawCount:     l.expr(s.DrawCount, "1"),
		WorkGroupsX:   l.expr(s.WorkGroupsX, "1"),
		WorkGroupsY:   l.expr(s.WorkGroupsY, "1"),
		WorkGroupsZ:   l.expr(s.WorkGroupsZ, "1"),
		ClearColor:    vec4(s.ClearColor, [4]float64{}),
		ClearDepth:    s.ClearDepth,
		ClearStencil:  s.ClearStencil,
	}
	l.ref(&c.ProgramID, s.Program, KindProgram, rng)
	l.ref(&c.TargetID, s.Target, KindTarget, rng)
	l.ref(&c.VertexStreamID, s.Stream, KindStream, rng)
	l.ref(&c.IndexBufferBlockID, s.IndexBuffer, KindBlock, rng)
	l.ref(&c.IndirectBufferBlockID, s.IndirectBuffer, KindBlock, rng)
	l.ref(&c.TextureID, s.Texture, KindTexture, rng)
	l.ref(&c.FromTextureID, s.FromTexture, KindTexture, rng)
	l.ref(&c.BufferID, s.Buffer, KindBuffer, rng)
	l.ref(&c.FromBufferID, s.FromBuffer, KindBuffer, rng)
	return c
}

type scriptSpec struct {
	File      string   `hcl:"file"`
	ExecuteOn string   `hcl:"execute_on,optional"`
	Remain    hcl.Body `hcl:",remain"`
}

func decodeScript(l *loader, b *hclsyntax.Block) Data {
	var s scriptSpec
	l.decodeBody(b, &s)
	return &Script{
		FileName:  s.File,
		ExecuteOn: enum(l, executeOnNames, "execute on", s.ExecuteOn, EveryEvaluation, b.DefRange()),
	}
}
