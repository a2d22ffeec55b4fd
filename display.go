package burrowdb

// display.go implements human-readable rendering of values and documents.

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// String renders v for people: strings quoted, binary as a hex byte array,
// timestamps as RFC 3339 followed by the zone name in brackets.
// The output is not a serialization format.
func (v Value) String() string {
	var b strings.Builder
	writeValue(&b, v)
	return b.String()
}

// String renders d like a Map value.
func (d *Document) String() string {
	var b strings.Builder
	writeFields(&b, d.Fields())
	return b.String()
}

func writeValue(b *strings.Builder, v Value) {
	switch v.kind {
	case KindNull:
		b.WriteString("null")
	case KindBool:
		b.WriteString(strconv.FormatBool(v.Bool()))
	case KindUint8, KindUint16, KindUint32, KindUint64:
		b.WriteString(strconv.FormatUint(v.num, 10))
	case KindUint128:
		b.WriteString(v.Uint128().String())
	case KindInt8, KindInt16, KindInt32, KindInt64:
		b.WriteString(strconv.FormatInt(int64(v.num), 10))
	case KindInt128:
		b.WriteString(v.Int128().String())
	case KindFloat32:
		b.WriteString(strconv.FormatFloat(float64(v.Float32()), 'g', -1, 32))
	case KindFloat64:
		b.WriteString(strconv.FormatFloat(v.Float64(), 'g', -1, 64))
	case KindString:
		b.WriteString(strconv.Quote(v.str))
	case KindBinary:
		writeHexArray(b, v.bin)
	case KindArray:
		b.WriteByte('[')
		for i, e := range v.arr {
			if i > 0 {
				b.WriteString(", ")
			}
			writeValue(b, e)
		}
		b.WriteByte(']')
	case KindMap:
		writeFields(b, v.fields)
	case KindTimestamp:
		b.WriteString(v.t.Format(time.RFC3339Nano))
		b.WriteString(" [")
		b.WriteString(v.str)
		b.WriteByte(']')
	default:
		fmt.Fprintf(b, "<%s>", v.kind)
	}
}

func writeFields(b *strings.Builder, fields []Field) {
	b.WriteByte('{')
	for i, f := range fields {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(strconv.Quote(f.Key))
		b.WriteString(": ")
		writeValue(b, f.Value)
	}
	b.WriteByte('}')
}

// writeHexArray renders bytes as [0x1, 0xAB].
func writeHexArray(b *strings.Builder, p []byte) {
	b.WriteByte('[')
	for i, c := range p {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(b, "0x%X", c)
	}
	b.WriteByte(']')
}
