package resp

import (
	"errors"

	"github.com/rsms/pikistore/internal/client"
	"github.com/rsms/pikistore/internal/txn"
	"github.com/rsms/pikistore/pkg/buf"
	"github.com/rsms/pikistore/pkg/metaval"
)

// errorMessages maps the sentinel errors named in spec §7 to the literal
// Redis-protocol error strings spec §6 names for the transaction commands.
var errorMessages = map[error]string{
	client.ErrMultiNested:         "ERR MULTI calls can not be nested",
	client.ErrWatchInsideMulti:    "ERR WATCH inside MULTI is not allowed",
	client.ErrDiscardWithoutMulti: "ERR DISCARD without MULTI",
	txn.ErrExecWithoutMulti:       "ERR EXEC without MULTI",
	metaval.ErrWrongType:          "WRONGTYPE Operation against a key holding the wrong kind of value",
	metaval.ErrCountOutOfRange:    "ERR count out of range",
	metaval.ErrCorruptMeta:        "ERR corrupt meta-value",
}

// WriteCommandError writes err as a RESP error reply, using the literal
// message spec §6/§7 names when err is one of the sentinels above, or a
// generic "ERR <message>" otherwise. txn.ErrDirtyExec is handled separately
// by the EXEC handler via WriteNilArray, since it isn't an error reply.
func WriteCommandError(b *buf.Buffer, err error) {
	for sentinel, msg := range errorMessages {
		if errors.Is(err, sentinel) {
			WriteError(b, msg)
			return
		}
	}
	WriteError(b, "ERR "+err.Error())
}
