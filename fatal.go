// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package memarena

import "os"

// osExit is exitFunc's production value; allocator_test.go replaces
// exitFunc to observe corruption paths without killing the test binary.
func osExit(code int) {
	os.Exit(code)
}
