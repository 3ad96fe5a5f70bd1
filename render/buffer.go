// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"bytes"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/gpuplay"
	"github.com/gogpu/gpuplay/message"
	"github.com/gogpu/gpuplay/session"
)

const bufferUsage = gputypes.BufferUsageVertex | gputypes.BufferUsageIndex |
	gputypes.BufferUsageUniform | gputypes.BufferUsageStorage |
	gputypes.BufferUsageIndirect | gputypes.BufferUsageCopySrc | gputypes.BufferUsageCopyDst

// Buffer is the GPU side of a buffer item.
//
// The CPU shadow in data is reloaded from the backing file, uploaded when
// systemModified is set and read back when deviceModified is set. The
// device handle is created on first use.
type Buffer struct {
	itemID   session.ItemID
	name     string
	fileName string
	size     int

	data           []byte
	handle         Handle
	systemModified bool
	deviceModified bool
}

func newBuffer(id session.ItemID, name, fileName string, size int) *Buffer {
	return &Buffer{itemID: id, name: name, fileName: fileName, size: max(size, 0)}
}

// ItemID returns the id of the buffer item.
func (b *Buffer) ItemID() session.ItemID { return b.itemID }

// FileName returns the backing file, or "".
func (b *Buffer) FileName() string { return b.fileName }

// Size returns the size in bytes.
func (b *Buffer) Size() int { return b.size }

// Handle returns the device handle, or 0 before first use.
func (b *Buffer) Handle() Handle { return b.handle }

// Data returns the CPU shadow. It must not be modified.
func (b *Buffer) Data() []byte { return b.data }

// Equal reports whether b and o describe the same buffer.
func (b *Buffer) Equal(o *Buffer) bool {
	return b.itemID == o.itemID && b.fileName == o.fileName && b.size == o.size
}

// adopt moves the device state of prev into b. prev no longer owns a handle.
func (b *Buffer) adopt(prev *Buffer) {
	b.data = prev.data
	b.handle = prev.handle
	b.systemModified = prev.systemModified
	b.deviceModified = prev.deviceModified
	prev.data = nil
	prev.handle = 0
}

// WritableData returns the CPU shadow for modification. The contents are
// uploaded on the next handle access.
func (b *Buffer) WritableData() []byte {
	if b.data == nil {
		b.data = make([]byte, b.size)
	}
	b.systemModified = true
	return b.data
}

// reload refreshes the shadow from the backing file. Pending device writes
// are kept until they were downloaded.
func (b *Buffer) reload(e *env) {
	if b.data == nil {
		b.data = make([]byte, b.size)
		b.systemModified = true
	}
	if b.fileName == "" || b.deviceModified {
		return
	}
	src, err := e.assets.Bytes(b.fileName)
	if err != nil {
		e.msgs.Add(b.itemID, message.LoadingFileFailed, b.fileName)
		return
	}
	next := make([]byte, b.size)
	copy(next, src)
	if !bytes.Equal(next, b.data) {
		b.data = next
		b.systemModified = true
	}
}

func (b *Buffer) createHandle(e *env) bool {
	if b.handle != 0 {
		return true
	}
	h, err := e.dev.CreateBuffer(&BufferDescriptor{
		Label: b.name,
		Size:  uint64(b.size),
		Usage: bufferUsage,
	})
	if err != nil {
		e.msgs.Add(b.itemID, message.CreatingBufferFailed, err.Error())
		return false
	}
	b.handle = h
	return true
}

func (b *Buffer) upload(e *env) {
	if !b.systemModified {
		return
	}
	if err := e.dev.WriteBuffer(b.handle, 0, b.data); err != nil {
		gpuplay.Logger().Warn("render: buffer upload failed", "item", b.itemID, "err", err)
		return
	}
	b.systemModified = false
	b.deviceModified = false
}

// ReadOnlyHandle returns the device buffer with the current shadow
// uploaded, or 0 when it could not be created.
func (b *Buffer) ReadOnlyHandle(e *env) Handle {
	b.reload(e)
	if !b.createHandle(e) {
		return 0
	}
	b.upload(e)
	return b.handle
}

// ReadWriteHandle is ReadOnlyHandle for callers that let the device write
// the buffer.
func (b *Buffer) ReadWriteHandle(e *env) Handle {
	h := b.ReadOnlyHandle(e)
	if h != 0 {
		b.deviceModified = true
	}
	return h
}

// Download reads the device contents back into the shadow. It reports
// false when nothing was written by the device, or when checkModification
// is set and the contents are unchanged.
func (b *Buffer) Download(dev Device, checkModification bool) bool {
	if !b.deviceModified || b.handle == 0 {
		return false
	}
	next := make([]byte, b.size)
	if err := dev.ReadBuffer(b.handle, 0, next); err != nil {
		gpuplay.Logger().Warn("render: buffer download failed", "item", b.itemID, "err", err)
		return false
	}
	b.deviceModified = false
	if checkModification && bytes.Equal(next, b.data) {
		return false
	}
	b.data = next
	b.systemModified = false
	return true
}

// Clear zeroes the buffer on the device.
func (b *Buffer) Clear(e *env) error {
	h := b.ReadWriteHandle(e)
	if h == 0 {
		return errNoHandle
	}
	return e.dev.ClearBuffer(h)
}

// CopyFrom copies the overlapping range of src into b.
func (b *Buffer) CopyFrom(e *env, src *Buffer) error {
	from := src.ReadOnlyHandle(e)
	to := b.ReadWriteHandle(e)
	if from == 0 || to == 0 {
		return errNoHandle
	}
	return e.dev.CopyBuffer(to, from, uint64(min(b.size, src.size)))
}

// Swap exchanges the contents of two buffers of equal size.
func (b *Buffer) Swap(o *Buffer) bool {
	if b.size != o.size {
		return false
	}
	b.data, o.data = o.data, b.data
	b.handle, o.handle = o.handle, b.handle
	b.systemModified, o.systemModified = o.systemModified, b.systemModified
	b.deviceModified, o.deviceModified = o.deviceModified, b.deviceModified
	return true
}

// Release destroys the device buffer.
func (b *Buffer) Release(dev Device) {
	if b.handle != 0 && dev != nil {
		dev.DestroyBuffer(b.handle)
	}
	b.handle = 0
}
