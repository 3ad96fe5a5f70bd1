//go:build !nogpu

package main

// Register the Vulkan backend with the HAL.
import _ "github.com/gogpu/wgpu/hal/vulkan"
