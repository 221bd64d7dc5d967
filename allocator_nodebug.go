// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build !memdebug

package memarena

// trackAlloc and trackFree are no-ops outside memdebug builds; see
// allocator_debug.go for the leak-tracking variants.
func trackAlloc(ptr []byte) {}
func trackFree(ptr []byte)  {}
