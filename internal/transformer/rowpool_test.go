package transformer

import "testing"

/*
TestGetRow_Zeroing verifies that GetRow returns a row of the requested length
with all elements and the line number cleared, including after reuse.
*/
func TestGetRow_Zeroing(t *testing.T) {
	r := GetRow(3)
	if got := len(r.V); got != 3 {
		t.Fatalf("len(V)=%d; want 3", got)
	}
	r.V[0], r.V[1], r.V[2] = "x", int64(1), true
	r.Line = 42
	r.Free()

	r2 := GetRow(5)
	defer r2.Free()
	if got := len(r2.V); got != 5 {
		t.Fatalf("after reuse, len(V)=%d; want 5", got)
	}
	for i, v := range r2.V {
		if v != nil {
			t.Fatalf("after reuse, V[%d]=%v; want nil", i, v)
		}
	}
	if r2.Line != 0 {
		t.Fatalf("after reuse, Line=%d; want 0", r2.Line)
	}
}
