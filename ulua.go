// Copyright (c) 2020 Ozan Hacıbekiroğlu.
// Use of this source code is governed by a MIT License
// that can be found in the LICENSE file.

package ulua

// CallableFunc is a function signature for a native function.
type CallableFunc = func(c Call) (ret Value, err error)
