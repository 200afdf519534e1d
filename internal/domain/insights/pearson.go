package insights

import "math"

// minSamples: con menos de 3 puntos no se reporta correlación
// (un solo par de valores da "correlaciones" engañosamente confiadas).
const minSamples = 3

// pearson calcula el coeficiente de Pearson de dos series del mismo
// largo, en una sola pasada, redondeado a 2 decimales.
// Devuelve nil con menos de minSamples puntos o varianza cero.
func pearson(xs, ys []float64) *float64 {
	n := len(xs)
	if n < minSamples || len(ys) != n {
		return nil
	}

	var mx, my float64
	for i := 0; i < n; i++ {
		mx += xs[i]
		my += ys[i]
	}
	mx /= float64(n)
	my /= float64(n)

	var cov, sx, sy float64
	for i := 0; i < n; i++ {
		dx, dy := xs[i]-mx, ys[i]-my
		cov += dx * dy
		sx += dx * dx
		sy += dy * dy
	}

	den := math.Sqrt(sx * sy)
	if den == 0 {
		return nil // serie constante
	}

	r := round2(cov / den)
	return &r
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
