// Package disasm decodes the ARM64 instruction words carried by execution traces.
package disasm

import (
	"encoding/binary"
	"fmt"
	"strings"

	"golang.org/x/arch/arm64/arm64asm"
)

// Inst is a decoded ARM64 instruction with address and raw bytes.
type Inst struct {
	Addr     uint64
	Raw      uint32
	Mnemonic string
	Operands string
	Text     string // full disassembly line
}

// Annotator returns a comment for an instruction, or "" for none.
type Annotator func(inst Inst) string

// Decode decodes one little-endian instruction word at addr.
// Undecodable words render as .word directives.
func Decode(raw uint32, addr uint64) Inst {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], raw)

	inst := Inst{Addr: addr, Raw: raw}
	dec, err := arm64asm.Decode(buf[:])
	if err != nil {
		inst.Mnemonic = ".word"
		inst.Operands = fmt.Sprintf("0x%08x", raw)
		inst.Text = fmt.Sprintf(".word 0x%08x", raw)
		return inst
	}
	inst.Text = dec.String()
	parts := strings.SplitN(inst.Text, " ", 2)
	inst.Mnemonic = parts[0]
	if len(parts) > 1 {
		inst.Operands = parts[1]
	}
	return inst
}

// Format renders instructions as stable text output.
// Each line: <addr>  <hex bytes>  <disasm>  ; <comment>[; <comment>...]
// Non-empty annotations are joined in annotator order.
func Format(insts []Inst, annotators ...Annotator) string {
	var b strings.Builder
	for _, inst := range insts {
		fmt.Fprintf(&b, "0x%08x  ", inst.Addr)
		fmt.Fprintf(&b, "%02x %02x %02x %02x  ",
			byte(inst.Raw), byte(inst.Raw>>8), byte(inst.Raw>>16), byte(inst.Raw>>24))
		b.WriteString(inst.Text)
		sep := "  ; "
		for _, ann := range annotators {
			if s := ann(inst); s != "" {
				b.WriteString(sep)
				b.WriteString(s)
				sep = "; "
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// ControlAnnotator marks calls, branches and returns with their targets.
func ControlAnnotator(inst Inst) string {
	if target, ok := isBL(inst.Raw, inst.Addr); ok {
		return fmt.Sprintf("bl -> 0x%x", target)
	}
	if rn, ok := isBLR(inst.Raw); ok {
		return fmt.Sprintf("blr X%d", rn)
	}
	br, ok := DecodeBranch(inst.Raw, inst.Addr)
	switch {
	case !ok:
		return ""
	case br.Kind == "ret":
		return "ret"
	default:
		return fmt.Sprintf("%s -> 0x%x", br.Kind, br.Target)
	}
}
