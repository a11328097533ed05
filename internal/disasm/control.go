package disasm

// Call kinds returned by CallKind.
const (
	KindBL  = "bl"
	KindBLR = "blr"
)

// CallKind classifies a raw instruction as a direct call, an indirect call
// or neither ("").
func CallKind(raw uint32) string {
	if raw&0xFC000000 == 0x94000000 {
		return KindBL
	}
	if _, ok := isBLR(raw); ok {
		return KindBLR
	}
	return ""
}

// IsRet detects RET and RET Xn.
func IsRet(raw uint32) bool {
	return raw&0xFFFFFC1F == 0xD65F0000
}

// isBL detects ARM64 BL (branch with link) instructions.
// Encoding: 1 | 00101 | imm26
// Mask: 0xFC000000, Value: 0x94000000
// Returns the target address (sign-extended imm26 * 4 + PC).
func isBL(raw uint32, pc uint64) (target uint64, ok bool) {
	if raw&0xFC000000 != 0x94000000 {
		return 0, false
	}
	imm26 := int32(raw & 0x03FFFFFF)
	if imm26&(1<<25) != 0 {
		imm26 |= ^int32(0x03FFFFFF)
	}
	return uint64(int64(pc) + int64(imm26)*4), true
}

// isBLR detects ARM64 BLR (branch with link to register) instructions.
// Encoding: 1101011 | 0 | 0 | 01 | 11111 | 0000 | 0 | 0 | Rn | 00000
// Mask: 0xFFFFFC1F, Value: 0xD63F0000
func isBLR(raw uint32) (rn int, ok bool) {
	if raw&0xFFFFFC1F != 0xD63F0000 {
		return 0, false
	}
	return int((raw >> 5) & 0x1F), true
}
