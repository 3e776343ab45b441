// MIT License
//
// Copyright (c) 2025 Advanced Micro Devices, Inc.
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package utils

import (
	"dario.cat/mergo"
)

// MergeOptions returns the mergo options for layered config merging: non-empty values of a
// later layer replace the earlier ones, slices and maps are replaced as a whole.
func MergeOptions() []func(*mergo.Config) {
	return []func(*mergo.Config){
		mergo.WithOverride,
	}
}

// MergeConfigs merges multiple config structs with later configs taking precedence.
// Zero values never override.
//
// Example:
//
//	cfg := Default()
//	err := MergeConfigs(&cfg, fromFile, fromEnv)
func MergeConfigs[T any](dst *T, srcs ...T) error {
	opts := MergeOptions()
	for _, src := range srcs {
		if err := mergo.Merge(dst, src, opts...); err != nil {
			return err
		}
	}
	return nil
}
