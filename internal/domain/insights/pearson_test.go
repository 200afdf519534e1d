package insights

import "testing"

func TestPearson_PerfectPositive(t *testing.T) {
	r := pearson([]float64{1, 2, 3, 4}, []float64{2, 4, 6, 8})
	if r == nil || *r != 1.0 {
		t.Fatalf("pearson = %v, want 1.0", r)
	}
}

func TestPearson_PerfectNegative(t *testing.T) {
	r := pearson([]float64{1, 2, 3}, []float64{9, 6, 3})
	if r == nil || *r != -1.0 {
		t.Fatalf("pearson = %v, want -1.0", r)
	}
}

func TestPearson_RoundsToTwoDecimals(t *testing.T) {
	// r = 8 / sqrt(8 * 10.667) = 0.866... => 0.87
	r := pearson([]float64{4, 6, 8}, []float64{5, 5, 9})
	if r == nil || *r != 0.87 {
		t.Fatalf("pearson = %v, want 0.87", r)
	}
}

func TestPearson_TooFewSamples(t *testing.T) {
	if r := pearson([]float64{1, 2}, []float64{3, 4}); r != nil {
		t.Fatalf("expected nil with n < 3, got %v", *r)
	}
	if r := pearson(nil, nil); r != nil {
		t.Fatalf("expected nil with empty series, got %v", *r)
	}
}

func TestPearson_ConstantSeries(t *testing.T) {
	if r := pearson([]float64{5, 5, 5}, []float64{1, 2, 3}); r != nil {
		t.Fatalf("expected nil with zero variance, got %v", *r)
	}
}

func TestPearson_LengthMismatch(t *testing.T) {
	if r := pearson([]float64{1, 2, 3}, []float64{1, 2}); r != nil {
		t.Fatalf("expected nil with mismatched lengths, got %v", *r)
	}
}
