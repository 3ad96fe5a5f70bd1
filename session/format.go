package session

// Format is a texel format of a texture or image binding.
type Format uint8

const (
	FormatNone Format = iota
	R8Unorm
	RG8Unorm
	RGBA8Unorm
	RGBA8UnormSrgb
	BGRA8Unorm
	BGRA8UnormSrgb
	R8Uint
	R16Float
	RG16Float
	RGBA16Float
	R32Float
	RG32Float
	RGBA32Float
	R32Uint
	RGBA32Uint
	R32Sint
	RGBA32Sint
	Depth16Unorm
	Depth24Plus
	Depth32Float
	Depth24PlusStencil8
	Stencil8
)

// SampleType is the shader-visible type of a texel.
type SampleType uint8

const (
	SampleFloat SampleType = iota
	SampleUint
	SampleSint
	SampleDepth
)

var formatInfo = [...]struct {
	name       string
	bytes      int
	components int
	sample     SampleType
	srgb       bool
	depth      bool
	stencil    bool
}{
	FormatNone:          {"", 0, 0, SampleFloat, false, false, false},
	R8Unorm:             {"r8unorm", 1, 1, SampleFloat, false, false, false},
	RG8Unorm:            {"rg8unorm", 2, 2, SampleFloat, false, false, false},
	RGBA8Unorm:          {"rgba8unorm", 4, 4, SampleFloat, false, false, false},
	RGBA8UnormSrgb:      {"rgba8unorm_srgb", 4, 4, SampleFloat, true, false, false},
	BGRA8Unorm:          {"bgra8unorm", 4, 4, SampleFloat, false, false, false},
	BGRA8UnormSrgb:      {"bgra8unorm_srgb", 4, 4, SampleFloat, true, false, false},
	R8Uint:              {"r8uint", 1, 1, SampleUint, false, false, false},
	R16Float:            {"r16float", 2, 1, SampleFloat, false, false, false},
	RG16Float:           {"rg16float", 4, 2, SampleFloat, false, false, false},
	RGBA16Float:         {"rgba16float", 8, 4, SampleFloat, false, false, false},
	R32Float:            {"r32float", 4, 1, SampleFloat, false, false, false},
	RG32Float:           {"rg32float", 8, 2, SampleFloat, false, false, false},
	RGBA32Float:         {"rgba32float", 16, 4, SampleFloat, false, false, false},
	R32Uint:             {"r32uint", 4, 1, SampleUint, false, false, false},
	RGBA32Uint:          {"rgba32uint", 16, 4, SampleUint, false, false, false},
	R32Sint:             {"r32sint", 4, 1, SampleSint, false, false, false},
	RGBA32Sint:          {"rgba32sint", 16, 4, SampleSint, false, false, false},
	Depth16Unorm:        {"depth16unorm", 2, 1, SampleDepth, false, true, false},
	Depth24Plus:         {"depth24plus", 4, 1, SampleDepth, false, true, false},
	Depth32Float:        {"depth32float", 4, 1, SampleDepth, false, true, false},
	Depth24PlusStencil8: {"depth24plus_stencil8", 4, 2, SampleDepth, false, true, true},
	Stencil8:            {"stencil8", 1, 1, SampleUint, false, false, true},
}

var formatNames = func() []string {
	names := make([]string, len(formatInfo))
	for i, fi := range formatInfo {
		names[i] = fi.name
	}
	return names
}()

// ParseFormat looks up a format by name.
func ParseFormat(s string) (Format, bool) {
	return lookup[Format](formatNames, s)
}

func (f Format) String() string { return name(formatNames, f) }

func (f Format) valid() bool { return int(f) < len(formatInfo) }

// BytesPerTexel returns the size of one texel, or 0 for FormatNone.
func (f Format) BytesPerTexel() int {
	if !f.valid() {
		return 0
	}
	return formatInfo[f].bytes
}

// Components returns the number of channels.
func (f Format) Components() int {
	if !f.valid() {
		return 0
	}
	return formatInfo[f].components
}

// SampleType returns how shaders read the format.
func (f Format) SampleType() SampleType {
	if !f.valid() {
		return SampleFloat
	}
	return formatInfo[f].sample
}

// IsSRGB reports whether the color channels are sRGB encoded.
func (f Format) IsSRGB() bool { return f.valid() && formatInfo[f].srgb }

// HasDepth reports whether the format has a depth aspect.
func (f Format) HasDepth() bool { return f.valid() && formatInfo[f].depth }

// HasStencil reports whether the format has a stencil aspect.
func (f Format) HasStencil() bool { return f.valid() && formatInfo[f].stencil }

// IsColor reports whether the format is a color format.
func (f Format) IsColor() bool {
	return f != FormatNone && !f.HasDepth() && !f.HasStencil()
}
