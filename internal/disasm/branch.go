package disasm

// Branch is a decoded local control transfer. Calls are not branches.
type Branch struct {
	Kind   string // "b", "b.cond", "cbz", "cbnz", "tbz", "tbnz" or "ret"
	Target uint64 // absolute target; 0 for ret
	Cond   bool   // falls through when not taken
}

// PC-relative branch encodings. The immediate is a word offset of bits
// width starting at bit shift.
var branchForms = []struct {
	mask, value  uint32
	kind         string
	shift, width int
	cond         bool
}{
	{0xFC000000, 0x14000000, "b", 0, 26, false},
	{0xFF000010, 0x54000000, "b.cond", 5, 19, true},
	{0x7F000000, 0x34000000, "cbz", 5, 19, true},
	{0x7F000000, 0x35000000, "cbnz", 5, 19, true},
	{0x7F000000, 0x36000000, "tbz", 5, 14, true},
	{0x7F000000, 0x37000000, "tbnz", 5, 14, true},
}

// DecodeBranch decodes raw at pc as a branch or return.
func DecodeBranch(raw uint32, pc uint64) (Branch, bool) {
	if IsRet(raw) {
		return Branch{Kind: "ret"}, true
	}
	for _, f := range branchForms {
		if raw&f.mask != f.value {
			continue
		}
		imm := (raw >> f.shift) & (1<<f.width - 1)
		off := int64(signExtend(imm, f.width)) * 4
		return Branch{Kind: f.kind, Target: uint64(int64(pc) + off), Cond: f.cond}, true
	}
	return Branch{}, false
}

func signExtend(val uint32, bits int) int32 {
	sign := uint32(1) << (bits - 1)
	if val&sign != 0 {
		return int32(val | ^(sign - 1))
	}
	return int32(val)
}
