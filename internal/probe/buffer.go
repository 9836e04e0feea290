// SPDX-License-Identifier: MPL-2.0

package probe

import "bytes"

// cappedBuffer keeps the first limit bytes written and silently drops the
// rest, so a misbehaving candidate cannot grow memory without bound. Writes
// always report full success to keep the child from seeing EPIPE.
type cappedBuffer struct {
	buf   bytes.Buffer
	limit int
}

func (b *cappedBuffer) Write(p []byte) (int, error) {
	if room := b.limit - b.buf.Len(); room > 0 {
		if len(p) > room {
			b.buf.Write(p[:room])
		} else {
			b.buf.Write(p)
		}
	}
	return len(p), nil
}

func (b *cappedBuffer) String() string { return b.buf.String() }
