// Package resp encodes RESP replies for the transaction commands (spec §6):
// simple strings, errors, and the nil/array reply EXEC returns. The network
// parser and the rest of the command surface are out of this spec's scope
// (spec §1); this package only covers the framing the five transaction
// commands need for their replies.
package resp

import (
	"strconv"

	"github.com/rsms/pikistore/pkg/buf"
)

// WriteOK appends a RESP simple string "+OK\r\n".
func WriteOK(b *buf.Buffer) {
	b.Write([]byte("+OK\r\n"))
}

// WriteSimpleString appends a RESP simple string "+s\r\n". s must not
// contain CR or LF.
func WriteSimpleString(b *buf.Buffer, s string) {
	b.WriteByte('+')
	b.Write([]byte(s))
	b.Write([]byte("\r\n"))
}

// WriteError appends a RESP error reply "-msg\r\n".
func WriteError(b *buf.Buffer, msg string) {
	b.WriteByte('-')
	b.Write([]byte(msg))
	b.Write([]byte("\r\n"))
}

// WriteBulkString appends a RESP bulk string "$N\r\ndata\r\n".
func WriteBulkString(b *buf.Buffer, data []byte) {
	b.WriteByte('$')
	b.Write(strconv.AppendInt(nil, int64(len(data)), 10))
	b.Write([]byte("\r\n"))
	b.Write(data)
	b.Write([]byte("\r\n"))
}

// WriteArrayHeader appends a RESP array header "*N\r\n".
func WriteArrayHeader(b *buf.Buffer, n int) {
	b.WriteByte('*')
	b.Write(strconv.AppendInt(nil, int64(n), 10))
	b.Write([]byte("\r\n"))
}

// WriteArray appends a RESP array of bulk strings, the shape EXEC's
// successful reply takes (spec §6: "an array of replies").
func WriteArray(b *buf.Buffer, replies [][]byte) {
	WriteArrayHeader(b, len(replies))
	for _, r := range replies {
		WriteBulkString(b, r)
	}
}

// WriteNilArray appends the RESP nil-array reply "*-1\r\n", the shape EXEC
// returns when aborted by a dirty WATCH (spec §6: "a null/dirty reply if
// aborted by WATCH").
func WriteNilArray(b *buf.Buffer) {
	b.Write([]byte("*-1\r\n"))
}
