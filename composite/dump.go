package composite

import (
	"fmt"
	"strings"

	"github.com/jlab-evio/evio/bytebuf"
)

// Dump renders composite data as indented text, one block per format
// re-entry, mirroring eviofmtdump.c's XML-ish row output (ported to plain
// text rather than XML, since nothing in this module otherwise touches
// XML). Intended for diagnostics, not for round-tripping.
func Dump(opcodes []Opcode, data *bytebuf.Buffer, padding int) (string, error) {
	end := data.Limit() - padding
	st := newStepper(opcodes)

	var out strings.Builder
	out.WriteString("<row>\n")

	for data.Position() < end {
		typ, count, err := st.next(func(src RepeatSource) (int, error) {
			switch src {
			case RepeatFromInt32:
				n := int(data.GetUint32())
				fmt.Fprintf(&out, "  %d(\n", n)
				return n, nil
			case RepeatFromInt16:
				n := int(data.GetUint16())
				fmt.Fprintf(&out, "  %d(\n", n)
				return n, nil
			case RepeatFromInt8:
				n := int(data.GetUint8())
				fmt.Fprintf(&out, "  %d(\n", n)
				return n, nil
			default:
				return 0, nil
			}
		})
		if err != nil {
			return "", err
		}

		if st.consumeWrapped() {
			out.WriteString("</row>\n<row>\n")
		}

		width := typ.Width()
		if width == 0 {
			continue
		}
		n := count
		if data.Position()+n*width > end {
			n = (end - data.Position()) / width
		}

		switch typ {
		case TypeFloat64:
			out.WriteString("  64bit:")
			for i := 0; i < n; i++ {
				fmt.Fprintf(&out, " %g", data.GetFloat64())
			}
			out.WriteString("\n")
		case TypeInt64, TypeUint64:
			out.WriteString("  64bit:")
			for i := 0; i < n; i++ {
				fmt.Fprintf(&out, " 0x%016x", data.GetUint64())
			}
			out.WriteString("\n")
		case TypeFloat32:
			out.WriteString("  32bit:")
			for i := 0; i < n; i++ {
				fmt.Fprintf(&out, " %g", data.GetFloat32())
			}
			out.WriteString("\n")
		case TypeUint32, TypeInt32, TypeHollerith:
			out.WriteString("  32bit:")
			for i := 0; i < n; i++ {
				fmt.Fprintf(&out, " 0x%08x", data.GetUint32())
			}
			out.WriteString("\n")
		case TypeInt16, TypeUint16:
			out.WriteString("  16bit:")
			for i := 0; i < n; i++ {
				fmt.Fprintf(&out, " 0x%04x", data.GetUint16())
			}
			out.WriteString("\n")
		case TypeInt8, TypeUint8, TypeChar8:
			out.WriteString("  08bit:")
			for i := 0; i < n; i++ {
				fmt.Fprintf(&out, " 0x%02x", data.GetUint8())
			}
			out.WriteString("\n")
		}
	}

	out.WriteString("</row>\n")
	return out.String(), nil
}
