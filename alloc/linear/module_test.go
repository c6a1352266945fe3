package linear

import (
	"bytes"
	"context"
	"testing"

	"github.com/tetratelabs/wazero"
)

func TestEncodeULEB128(t *testing.T) {
	tests := []struct {
		expected []byte
		input    uint32
	}{
		{[]byte{0x00}, 0},
		{[]byte{0x01}, 1},
		{[]byte{0x7f}, 127},
		{[]byte{0x80, 0x01}, 128},
		{[]byte{0x80, 0x02}, 256},
		{[]byte{0xff, 0xff, 0x03}, 65535},
	}

	for _, tt := range tests {
		if result := encodeULEB128(tt.input); !bytes.Equal(result, tt.expected) {
			t.Errorf("encodeULEB128(%d): expected % x, got % x", tt.input, tt.expected, result)
		}
	}
}

func TestMemoryModule(t *testing.T) {
	wasm := memoryModule("mem", 2, 300)
	if !bytes.HasPrefix(wasm, []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}) {
		t.Fatal("missing wasm header")
	}

	ctx := context.Background()
	r := wazero.NewRuntime(ctx)
	defer r.Close(ctx)

	compiled, err := r.CompileModule(ctx, wasm)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	defs := compiled.ExportedMemories()
	def, ok := defs["mem"]
	if !ok {
		t.Fatalf("memory not exported: %v", defs)
	}
	if def.Min() != 2 {
		t.Errorf("min pages: got %d, want 2", def.Min())
	}
	if maxPages, ok := def.Max(); !ok || maxPages != 300 {
		t.Errorf("max pages: got %d (%v), want 300", maxPages, ok)
	}
}
