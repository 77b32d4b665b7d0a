package floatutils

import (
	"reflect"
	"testing"
)

func TestMaxSlice(t *testing.T) {
	max, indices := MaxSlice([]float64{1, 3, 2})
	if max != 3 {
		t.Errorf("wrong maximum \n\twant(%v) \n\thave(%v)", 3.0, max)
	}
	if !reflect.DeepEqual(indices, []int{1}) {
		t.Errorf("wrong indices \n\twant(%v) \n\thave(%v)", []int{1},
			indices)
	}

	max, indices = MaxSlice([]float64{2, 1, 2, 2})
	if max != 2 {
		t.Errorf("wrong tied maximum \n\twant(%v) \n\thave(%v)", 2.0, max)
	}
	if !reflect.DeepEqual(indices, []int{0, 2, 3}) {
		t.Errorf("wrong tied indices \n\twant(%v) \n\thave(%v)",
			[]int{0, 2, 3}, indices)
	}
}

func TestMax(t *testing.T) {
	if have := Max(0.3, -1, 0.7, 0.5); have != 0.7 {
		t.Errorf("wrong maximum \n\twant(%v) \n\thave(%v)", 0.7, have)
	}
	if have := Max(-2); have != -2 {
		t.Errorf("wrong single-value maximum \n\twant(%v) \n\thave(%v)",
			-2.0, have)
	}
}
