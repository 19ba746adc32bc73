package wasm

import (
	"github.com/wippyai/static-config/wasm/internal/binary"
)

// ConstI32 decodes an init expression of the exact form `i32.const N; end`.
func ConstI32(expr []byte) (int32, bool) {
	if len(expr) < 3 || expr[0] != OpI32Const || expr[len(expr)-1] != OpEnd {
		return 0, false
	}
	r := binary.NewReader(expr[1:])
	v, err := r.ReadS32()
	if err != nil || r.Len() != 1 {
		return 0, false
	}
	return v, true
}

// I32ConstExpr encodes `i32.const v; end`.
func I32ConstExpr(v int32) []byte {
	w := binary.NewWriter()
	w.Byte(OpI32Const)
	w.WriteS32(v)
	w.Byte(OpEnd)
	return w.Bytes()
}

// readConstExpr consumes a constant expression up to and including its end
// opcode and returns a copy of its bytes.
func readConstExpr(r *binary.Reader) ([]byte, error) {
	start := r.Position()
	for {
		op, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		if op == OpEnd {
			return r.Since(start), nil
		}
		if err := skipConstImmediate(r, op); err != nil {
			return nil, err
		}
	}
}

func skipConstImmediate(r *binary.Reader, op byte) error {
	switch op {
	case OpI32Const, OpI64Const, OpGlobalGet, OpRefNull, OpRefFunc:
		return r.SkipLEB128()
	case OpF32Const:
		return r.Skip(4)
	case OpF64Const:
		return r.Skip(8)
	case OpI32Add, OpI32Sub, OpI32Mul, OpI32And, OpI32Or, OpI32Xor,
		OpI64Add, OpI64Sub, OpI64Mul, OpI64And, OpI64Or, OpI64Xor:
		return nil
	case OpPrefixSIMD:
		sub, err := r.ReadU32()
		if err != nil {
			return err
		}
		if sub == SimdV128Const {
			return r.Skip(16)
		}
		return nil
	case OpPrefixGC:
		sub, err := r.ReadU32()
		if err != nil {
			return err
		}
		switch sub {
		case GCStructNew, GCStructNewDefault, GCArrayNew, GCArrayNewDefault:
			return r.SkipLEB128()
		case GCArrayNewFixed, GCArrayNewData, GCArrayNewElem:
			if err := r.SkipLEB128(); err != nil {
				return err
			}
			return r.SkipLEB128()
		}
		return nil
	}
	return nil
}
