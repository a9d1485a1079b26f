package tensor

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// RawTensor Tests

func TestNewRaw(t *testing.T) {
	shape := Shape{3, 4}
	raw, err := NewRaw(shape, Float32, Foo(1))
	if err != nil {
		t.Fatalf("NewRaw failed: %v", err)
	}

	if !raw.Shape().Equal(shape) {
		t.Errorf("Shape = %v, want %v", raw.Shape(), shape)
	}
	if raw.DType() != Float32 {
		t.Errorf("DType = %v, want Float32", raw.DType())
	}
	if raw.Device() != Foo(1) {
		t.Errorf("Device = %v, want foo:1", raw.Device())
	}
	if raw.NumElements() != 12 {
		t.Errorf("NumElements = %d, want 12", raw.NumElements())
	}
	if raw.ByteSize() != 48 {
		t.Errorf("ByteSize = %d, want 48", raw.ByteSize())
	}

	if _, err := NewRaw(Shape{0}, Float32, CPU); err == nil {
		t.Error("NewRaw should reject empty dimension")
	}
}

func TestRawTensorAsInt64(t *testing.T) {
	raw, _ := NewRaw(Shape{3, 2}, Int64, CPU)
	data := raw.AsInt64()

	if len(data) != 6 {
		t.Errorf("AsInt64 length = %d, want 6", len(data))
	}

	// Modify and verify zero-copy
	data[0] = 42
	if raw.AsInt64()[0] != 42 {
		t.Error("AsInt64 should return zero-copy slice")
	}
}

func TestRawTensorAsBool(t *testing.T) {
	raw, _ := NewRaw(Shape{2, 2}, Bool, CPU)
	data := raw.AsBool()

	if len(data) != 4 {
		t.Errorf("AsBool length = %d, want 4", len(data))
	}

	data[0] = true
	if !raw.AsBool()[0] {
		t.Error("AsBool should return zero-copy slice")
	}
}

func TestRawTensorWrongDTypePanics(t *testing.T) {
	raw, _ := NewRaw(Shape{2}, Int32, CPU)
	defer func() {
		if r := recover(); r == nil {
			t.Error("AsFloat32 on int32 tensor should panic")
		}
	}()
	raw.AsFloat32()
}

func TestFromSlice(t *testing.T) {
	raw, err := FromSlice([]int32{1, 2, 3, 4}, Shape{2, 2}, CPU)
	if err != nil {
		t.Fatalf("FromSlice failed: %v", err)
	}
	if raw.DType() != Int32 {
		t.Errorf("DType = %v, want int32", raw.DType())
	}
	if diff := cmp.Diff([]int32{1, 2, 3, 4}, raw.AsInt32()); diff != "" {
		t.Errorf("data mismatch (-want +got):\n%s", diff)
	}

	if _, err := FromSlice([]float32{1, 2}, Shape{3}, CPU); !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("FromSlice with short data error = %v, want ErrShapeMismatch", err)
	}
}

func TestFromFloat64sHalfTypes(t *testing.T) {
	values := []float64{1, -2.5, 0.5, 1024}
	for _, dtype := range []DataType{Float16, BFloat16} {
		raw, err := FromFloat64s(values, Shape{4}, dtype, CPU)
		if err != nil {
			t.Fatalf("FromFloat64s(%s) failed: %v", dtype, err)
		}
		if raw.ByteSize() != 8 {
			t.Errorf("%s ByteSize = %d, want 8", dtype, raw.ByteSize())
		}
		if diff := cmp.Diff(values, raw.Float64s()); diff != "" {
			t.Errorf("%s round trip mismatch (-want +got):\n%s", dtype, diff)
		}
	}
}

func TestInt64sAndSetInt64s(t *testing.T) {
	raw, _ := NewRaw(Shape{3}, Uint8, CPU)
	if err := raw.SetInt64s([]int64{1, 2, 255}); err != nil {
		t.Fatalf("SetInt64s failed: %v", err)
	}
	if diff := cmp.Diff([]int64{1, 2, 255}, raw.Int64s()); diff != "" {
		t.Errorf("Int64s mismatch (-want +got):\n%s", diff)
	}

	floats, _ := FromSlice([]float64{1.9, -1.9}, Shape{2}, CPU)
	if diff := cmp.Diff([]int64{1, -1}, floats.Int64s()); diff != "" {
		t.Errorf("truncation mismatch (-want +got):\n%s", diff)
	}

	if err := raw.SetInt64s([]int64{1}); !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("SetInt64s with wrong length error = %v, want ErrShapeMismatch", err)
	}
}

func TestCloneAndTo(t *testing.T) {
	a, _ := FromSlice([]float32{1, 2, 3}, Shape{3}, CPU)
	b := a.To(Foo(0))

	if b.Device() != Foo(0) {
		t.Errorf("To() device = %v, want foo:0", b.Device())
	}
	b.AsFloat32()[0] = 100
	if a.AsFloat32()[0] != 1 {
		t.Error("To() must not share the buffer with the source")
	}
	if a.Device() != CPU {
		t.Error("To() must not change the source device")
	}
}
