// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: Ryan Johnson

package rfbauto

// Encoding type identifiers this client advertises and understands. Any
// other encoding a server sends anyway is a protocol violation from this
// client's point of view: unsupportedEncodingError, not a silent skip.
const (
	encodingRaw         int32 = 0
	encodingDesktopSize int32 = -223
)
