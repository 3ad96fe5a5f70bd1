// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package halgpu implements render.Device on top of the gogpu/wgpu HAL.
//
// Every operation is recorded into its own command buffer, submitted and
// waited for, so the device is simple rather than fast. Limitations:
//   - textures bind at level 0 and border colors clamp to the edge
//   - unbound slots read zero-filled placeholder resources
//   - indirect draws and dispatches read their arguments back to the host
//   - attachments are always level 0, layer 0
//   - timers measure wall clock time of the synchronous submission
package halgpu

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/gpuplay"
	"github.com/gogpu/gpuplay/render"
)

// Errors returned by the device.
var (
	// ErrInvalidHandle is returned for handles the device did not create or
	// already destroyed.
	ErrInvalidHandle = errors.New("halgpu: invalid handle")

	// ErrNoHALProvider is returned by NewFromProvider when the provider does
	// not expose its HAL device.
	ErrNoHALProvider = errors.New("halgpu: provider does not expose a HAL device")

	// ErrGPUTimeout is returned when a submission does not complete in time.
	ErrGPUTimeout = errors.New("halgpu: timed out waiting for GPU")
)

// submitTimeout bounds the wait for a single submission.
const submitTimeout = 5 * time.Second

type buffer struct {
	buf  hal.Buffer
	size uint64
}

type texture struct {
	tex  hal.Texture
	view hal.TextureView
	desc render.TextureDescriptor
}

// Device is a render.Device backed by a hal.Device and its queue.
//
// Device is safe for concurrent use; operations are serialized.
type Device struct {
	mu     sync.Mutex
	device hal.Device
	queue  hal.Queue
	owned  bool
	next   render.Handle

	buffers  map[render.Handle]*buffer
	textures map[render.Handle]*texture
	programs map[render.Handle]*program
}

var _ render.Device = (*Device)(nil)

// New wraps an opened HAL device. The caller keeps ownership of device and
// queue; Destroy only releases the objects created through the wrapper.
func New(device hal.Device, queue hal.Queue) *Device {
	return &Device{
		device:   device,
		queue:    queue,
		next:     1,
		buffers:  make(map[render.Handle]*buffer),
		textures: make(map[render.Handle]*texture),
		programs: make(map[render.Handle]*program),
	}
}

// NewFromProvider shares the device of a host application. The provider
// must also implement HalDevice() any and HalQueue() any returning the
// hal.Device and hal.Queue behind it.
func NewFromProvider(provider gpucontext.DeviceProvider) (*Device, error) {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, ErrNoHALProvider
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok {
		return nil, fmt.Errorf("%w: HalDevice is %T", ErrNoHALProvider, hp.HalDevice())
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok {
		return nil, fmt.Errorf("%w: HalQueue is %T", ErrNoHALProvider, hp.HalQueue())
	}
	gpuplay.Logger().Info("halgpu: using shared device", "surface_format", provider.SurfaceFormat())
	return New(device, queue), nil
}

// Open creates a device on the first adapter of backend, preferring
// discrete and integrated GPUs. The returned device owns the HAL device.
func Open(backend gputypes.Backend) (*Device, error) {
	b, ok := hal.GetBackend(backend)
	if !ok {
		return nil, fmt.Errorf("halgpu: backend %v not available", backend)
	}
	instance, err := b.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return nil, fmt.Errorf("halgpu: create instance: %w", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, errors.New("halgpu: no GPU adapters found")
	}
	selected := &adapters[0]
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}
	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return nil, fmt.Errorf("halgpu: open device: %w", err)
	}
	gpuplay.Logger().Info("halgpu: device opened", "adapter", selected.Info.Name)
	d := New(openDev.Device, openDev.Queue)
	d.owned = true
	return d, nil
}

// Destroy releases every object created through d, and the HAL device when
// d opened it.
func (d *Device) Destroy() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for h, p := range d.programs {
		p.destroy(d.device)
		delete(d.programs, h)
	}
	for h, t := range d.textures {
		d.destroyTexture(t)
		delete(d.textures, h)
	}
	for h, b := range d.buffers {
		d.device.DestroyBuffer(b.buf)
		delete(d.buffers, h)
	}
	if d.owned {
		d.device.Destroy()
	}
}

func (d *Device) handle() render.Handle {
	h := d.next
	d.next++
	return h
}

// align4 rounds n up to the copy alignment of buffers.
func align4(n uint64) uint64 { return (n + 3) &^ 3 }

// alignRow rounds a row pitch up to the alignment of texture copies.
func alignRow(n uint32) uint32 { return (n + 255) &^ 255 }

// submit records a command buffer with record, submits it and waits for
// its completion.
func (d *Device) submit(label string, record func(enc hal.CommandEncoder) error) error {
	enc, err := d.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: label})
	if err != nil {
		return fmt.Errorf("halgpu: create command encoder: %w", err)
	}
	if err := enc.BeginEncoding(label); err != nil {
		return fmt.Errorf("halgpu: begin encoding: %w", err)
	}
	if err := record(enc); err != nil {
		enc.DiscardEncoding()
		return err
	}
	cmdBuf, err := enc.EndEncoding()
	if err != nil {
		return fmt.Errorf("halgpu: end encoding: %w", err)
	}
	defer d.device.FreeCommandBuffer(cmdBuf)

	fence, err := d.device.CreateFence()
	if err != nil {
		return fmt.Errorf("halgpu: create fence: %w", err)
	}
	defer d.device.DestroyFence(fence)
	if err := d.queue.Submit([]hal.CommandBuffer{cmdBuf}, fence, 1); err != nil {
		return fmt.Errorf("halgpu: submit: %w", err)
	}
	ok, err := d.device.Wait(fence, 1, submitTimeout)
	if err != nil {
		return fmt.Errorf("halgpu: wait: %w", err)
	}
	if !ok {
		return ErrGPUTimeout
	}
	return nil
}

func (d *Device) CreateBuffer(desc *render.BufferDescriptor) (render.Handle, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	size := max(align4(desc.Size), 4)
	buf, err := d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: desc.Label,
		Size:  size,
		Usage: desc.Usage | gputypes.BufferUsageCopySrc | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return 0, fmt.Errorf("halgpu: create buffer %q: %w", desc.Label, err)
	}
	h := d.handle()
	d.buffers[h] = &buffer{buf: buf, size: size}
	return h, nil
}

func (d *Device) lookupBuffer(h render.Handle) (*buffer, error) {
	b, ok := d.buffers[h]
	if !ok {
		return nil, ErrInvalidHandle
	}
	return b, nil
}

func (d *Device) WriteBuffer(buf render.Handle, offset uint64, data []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	b, err := d.lookupBuffer(buf)
	if err != nil {
		return err
	}
	if offset%4 != 0 {
		return fmt.Errorf("halgpu: unaligned write offset %d", offset)
	}
	n := align4(uint64(len(data)))
	if offset+n > b.size {
		return fmt.Errorf("halgpu: write of %d bytes at %d exceeds buffer of %d bytes", len(data), offset, b.size)
	}
	padded := data
	if n != uint64(len(data)) {
		padded = make([]byte, n)
		copy(padded, data)
	}
	d.queue.WriteBuffer(b.buf, offset, padded)
	return nil
}

// readBuffer copies size bytes at offset of src into a staging buffer and
// reads them back.
func (d *Device) readBuffer(src hal.Buffer, offset, size uint64) ([]byte, error) {
	size = align4(size)
	staging, err := d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "halgpu_staging",
		Size:  size,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("halgpu: create staging buffer: %w", err)
	}
	defer d.device.DestroyBuffer(staging)
	err = d.submit("halgpu_read_buffer", func(enc hal.CommandEncoder) error {
		enc.CopyBufferToBuffer(src, staging, []hal.BufferCopy{{SrcOffset: offset, DstOffset: 0, Size: size}})
		return nil
	})
	if err != nil {
		return nil, err
	}
	out := make([]byte, size)
	if err := d.queue.ReadBuffer(staging, 0, out); err != nil {
		return nil, fmt.Errorf("halgpu: readback: %w", err)
	}
	return out, nil
}

func (d *Device) ReadBuffer(buf render.Handle, offset uint64, data []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	b, err := d.lookupBuffer(buf)
	if err != nil {
		return err
	}
	if offset >= b.size || len(data) == 0 {
		return nil
	}
	size := min(uint64(len(data)), b.size-offset)
	out, err := d.readBuffer(b.buf, offset&^3, size+offset%4)
	if err != nil {
		return err
	}
	copy(data, out[offset%4:])
	return nil
}

func (d *Device) CopyBuffer(dst, src render.Handle, size uint64) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	to, err := d.lookupBuffer(dst)
	if err != nil {
		return err
	}
	from, err := d.lookupBuffer(src)
	if err != nil {
		return err
	}
	size = min(align4(size), to.size, from.size)
	if size == 0 {
		return nil
	}
	return d.submit("halgpu_copy_buffer", func(enc hal.CommandEncoder) error {
		enc.CopyBufferToBuffer(from.buf, to.buf, []hal.BufferCopy{{Size: size}})
		return nil
	})
}

func (d *Device) ClearBuffer(buf render.Handle) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	b, err := d.lookupBuffer(buf)
	if err != nil {
		return err
	}
	d.queue.WriteBuffer(b.buf, 0, make([]byte, b.size))
	return nil
}

func (d *Device) DestroyBuffer(buf render.Handle) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if b, ok := d.buffers[buf]; ok {
		d.device.DestroyBuffer(b.buf)
		delete(d.buffers, buf)
	}
}

// BeginTimer returns a wall clock timer. Submissions are synchronous, so
// the elapsed time covers the GPU work issued in between.
func (d *Device) BeginTimer() render.Timer {
	return &timer{start: time.Now()}
}

type timer struct {
	start   time.Time
	elapsed time.Duration
}

func (t *timer) End() { t.elapsed = time.Since(t.start) }

func (t *timer) Wait() time.Duration { return t.elapsed }
