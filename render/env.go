// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"github.com/gogpu/gpuplay/asset"
	"github.com/gogpu/gpuplay/message"
)

// Assets provides the contents of the files a session refers to.
// *asset.Cache implements it.
type Assets interface {
	Bytes(name string) ([]byte, error)
	Source(name string) (string, error)
	Image(name string, flipY bool) (*asset.Image, error)
	Store(name string, data []byte) error
	StoreImage(name string, img *asset.Image) error
}

var _ Assets = (*asset.Cache)(nil)

// env is what resource wrappers reach during a frame.
type env struct {
	dev    Device
	assets Assets
	msgs   *message.List
}
