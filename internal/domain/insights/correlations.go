package insights

import "sort"

// DailySeverity es la severidad promedio de un síntoma en un día.
// Si un síntoma se loguea varias veces el mismo día, las severidades se
// promedian antes de correlacionar (suavizado deliberado).
type DailySeverity struct {
	Name        string
	Date        string // YYYY-MM-DD
	AvgSeverity float64
}

// DailyCount es la cantidad de usos de una medicación en un día.
type DailyCount struct {
	Name  string
	Date  string // YYYY-MM-DD
	Count int
}

// SymptomMatrix es la matriz simétrica síntoma×síntoma.
// Celdas nil = correlación indefinida (pocas muestras o varianza cero).
type SymptomMatrix struct {
	Names  []string
	Matrix [][]*float64
}

// MedSymptomMatrix es la matriz (no simétrica) medicación×síntoma:
// filas = medicaciones, columnas = síntomas.
type MedSymptomMatrix struct {
	MedNames     []string
	SymptomNames []string
	Matrix       [][]*float64
}

// ComputeSymptomMatrix arma la matriz N×N sobre los promedios diarios.
// Diagonal 1.0; como Pearson es simétrico, solo se computa el triángulo
// superior (i<j) y se espeja — la mitad del trabajo para O(N²) pares.
// Cada par correlaciona solo sobre los días donde ambos tienen datos.
func ComputeSymptomMatrix(rows []DailySeverity) SymptomMatrix {
	avg := make(map[[2]string]float64, len(rows))
	datesByName := make(map[string]map[string]bool)
	for _, row := range rows {
		avg[[2]string{row.Name, row.Date}] = row.AvgSeverity
		if datesByName[row.Name] == nil {
			datesByName[row.Name] = make(map[string]bool)
		}
		datesByName[row.Name][row.Date] = true
	}

	names := make([]string, 0, len(datesByName))
	for name := range datesByName {
		names = append(names, name)
	}
	sort.Strings(names)

	n := len(names)
	matrix := make([][]*float64, n)
	for i := range matrix {
		matrix[i] = make([]*float64, n)
		one := 1.0
		matrix[i][i] = &one
	}

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			common := commonDates(datesByName[names[i]], datesByName[names[j]])
			xs := make([]float64, 0, len(common))
			ys := make([]float64, 0, len(common))
			for _, d := range common {
				xs = append(xs, avg[[2]string{names[i], d}])
				ys = append(ys, avg[[2]string{names[j], d}])
			}
			r := pearson(xs, ys)
			matrix[i][j] = r
			matrix[j][i] = r
		}
	}

	return SymptomMatrix{Names: names, Matrix: matrix}
}

// ComputeMedSymptomMatrix alinea cada celda sobre las fechas con datos
// del síntoma; el conteo de la medicación se completa con ceros. Una
// medicación nunca tomada en días con datos del síntoma da nil (además
// del mínimo de muestras del primitivo, no en su lugar).
func ComputeMedSymptomMatrix(meds []DailyCount, symps []DailySeverity) MedSymptomMatrix {
	sympAvg := make(map[[2]string]float64, len(symps))
	datesBySymp := make(map[string]map[string]bool)
	for _, row := range symps {
		sympAvg[[2]string{row.Name, row.Date}] = row.AvgSeverity
		if datesBySymp[row.Name] == nil {
			datesBySymp[row.Name] = make(map[string]bool)
		}
		datesBySymp[row.Name][row.Date] = true
	}

	medCnt := make(map[[2]string]int, len(meds))
	medNameSet := make(map[string]bool)
	for _, row := range meds {
		medCnt[[2]string{row.Name, row.Date}] = row.Count
		medNameSet[row.Name] = true
	}

	sympNames := make([]string, 0, len(datesBySymp))
	for name := range datesBySymp {
		sympNames = append(sympNames, name)
	}
	sort.Strings(sympNames)

	medNames := make([]string, 0, len(medNameSet))
	for name := range medNameSet {
		medNames = append(medNames, name)
	}
	sort.Strings(medNames)

	if len(sympNames) == 0 || len(medNames) == 0 {
		return MedSymptomMatrix{MedNames: []string{}, SymptomNames: []string{}, Matrix: [][]*float64{}}
	}

	matrix := make([][]*float64, 0, len(medNames))
	for _, med := range medNames {
		row := make([]*float64, 0, len(sympNames))
		for _, symp := range sympNames {
			dates := sortedKeys(datesBySymp[symp])
			xs := make([]float64, 0, len(dates))
			ys := make([]float64, 0, len(dates))
			sum := 0
			for _, d := range dates {
				cnt := medCnt[[2]string{med, d}]
				sum += cnt
				xs = append(xs, float64(cnt))
				ys = append(ys, sympAvg[[2]string{symp, d}])
			}
			if sum > 0 {
				row = append(row, pearson(xs, ys))
			} else {
				row = append(row, nil)
			}
		}
		matrix = append(matrix, row)
	}

	return MedSymptomMatrix{MedNames: medNames, SymptomNames: sympNames, Matrix: matrix}
}

// commonDates devuelve la intersección ordenada (salida determinística:
// mismo input => mismo output byte a byte).
func commonDates(a, b map[string]bool) []string {
	out := make([]string, 0)
	for d := range a {
		if b[d] {
			out = append(out, d)
		}
	}
	sort.Strings(out)
	return out
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
