package insights

import "testing"

func sev(name, date string, avg float64) DailySeverity {
	return DailySeverity{Name: name, Date: date, AvgSeverity: avg}
}

func cnt(name, date string, n int) DailyCount {
	return DailyCount{Name: name, Date: date, Count: n}
}

func TestComputeSymptomMatrix_SortedNamesAndDiagonal(t *testing.T) {
	rows := []DailySeverity{
		sev("Headache", "2025-06-01", 4),
		sev("Fatigue", "2025-06-01", 5),
		sev("Headache", "2025-06-02", 6),
		sev("Fatigue", "2025-06-02", 5),
		sev("Headache", "2025-06-03", 8),
		sev("Fatigue", "2025-06-03", 9),
	}

	m := ComputeSymptomMatrix(rows)
	if len(m.Names) != 2 || m.Names[0] != "Fatigue" || m.Names[1] != "Headache" {
		t.Fatalf("Names = %v, want [Fatigue Headache]", m.Names)
	}
	for i := range m.Names {
		if m.Matrix[i][i] == nil || *m.Matrix[i][i] != 1.0 {
			t.Fatalf("diagonal [%d][%d] = %v, want 1.0", i, i, m.Matrix[i][i])
		}
	}

	// Fatigue=[5,5,9] vs Headache=[4,6,8] => 0.87, y espejado.
	if r := m.Matrix[0][1]; r == nil || *r != 0.87 {
		t.Fatalf("Matrix[0][1] = %v, want 0.87", r)
	}
	if a, b := m.Matrix[0][1], m.Matrix[1][0]; a != b {
		t.Fatalf("expected mirrored cells to share the result")
	}
}

func TestComputeSymptomMatrix_OnlyCommonDates(t *testing.T) {
	// Solo 2 días en común: por debajo del mínimo, celda nil.
	rows := []DailySeverity{
		sev("Headache", "2025-06-01", 4),
		sev("Headache", "2025-06-02", 6),
		sev("Headache", "2025-06-03", 8),
		sev("Fatigue", "2025-06-01", 5),
		sev("Fatigue", "2025-06-02", 5),
		sev("Fatigue", "2025-06-09", 9),
	}

	m := ComputeSymptomMatrix(rows)
	if r := m.Matrix[0][1]; r != nil {
		t.Fatalf("expected nil with 2 common dates, got %v", *r)
	}
}

func TestComputeSymptomMatrix_Empty(t *testing.T) {
	m := ComputeSymptomMatrix(nil)
	if m.Names == nil || len(m.Names) != 0 {
		t.Fatalf("expected empty (non-nil) names, got %v", m.Names)
	}
	if len(m.Matrix) != 0 {
		t.Fatalf("expected empty matrix")
	}
}

func TestComputeMedSymptomMatrix_AlignsOnSymptomDates(t *testing.T) {
	symps := []DailySeverity{
		sev("Headache", "2025-06-01", 5),
		sev("Headache", "2025-06-02", 5),
		sev("Headache", "2025-06-03", 9),
	}
	// Ibuprofen solo el día 3; los días sin registro cuentan como 0.
	meds := []DailyCount{
		cnt("Ibuprofen", "2025-06-03", 1),
	}

	m := ComputeMedSymptomMatrix(meds, symps)
	if len(m.MedNames) != 1 || m.MedNames[0] != "Ibuprofen" {
		t.Fatalf("MedNames = %v", m.MedNames)
	}
	if len(m.SymptomNames) != 1 || m.SymptomNames[0] != "Headache" {
		t.Fatalf("SymptomNames = %v", m.SymptomNames)
	}

	// counts=[0,0,1] vs sev=[5,5,9]: correlación perfecta.
	if r := m.Matrix[0][0]; r == nil || *r != 1.0 {
		t.Fatalf("Matrix[0][0] = %v, want 1.0", r)
	}
}

func TestComputeMedSymptomMatrix_UnusedMedIsNil(t *testing.T) {
	symps := []DailySeverity{
		sev("Headache", "2025-06-01", 5),
		sev("Headache", "2025-06-02", 5),
		sev("Headache", "2025-06-03", 9),
	}
	// Tomada solo fuera de los días con datos del síntoma: suma 0 => nil.
	meds := []DailyCount{
		cnt("Ibuprofen", "2025-05-20", 2),
	}

	m := ComputeMedSymptomMatrix(meds, symps)
	if r := m.Matrix[0][0]; r != nil {
		t.Fatalf("expected nil for med never taken on symptom dates, got %v", *r)
	}
}

func TestComputeMedSymptomMatrix_EmptyInputs(t *testing.T) {
	m := ComputeMedSymptomMatrix(nil, nil)
	if m.MedNames == nil || m.SymptomNames == nil || m.Matrix == nil {
		t.Fatalf("expected empty non-nil slices, got %+v", m)
	}
	if len(m.MedNames) != 0 || len(m.SymptomNames) != 0 || len(m.Matrix) != 0 {
		t.Fatalf("expected empty result, got %+v", m)
	}
}
