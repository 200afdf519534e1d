package clock

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	// StorageLayout es el formato canónico de timestamps en storage:
	// UTC, precisión de segundos, sin offset (UTC implícito).
	StorageLayout = "2006-01-02 15:04:05"

	// DateLayout para fechas de calendario (sin hora).
	DateLayout = "2006-01-02"

	// OffsetHeader trae el offset del cliente en minutos, convención JS
	// getTimezoneOffset: UTC = local + offset.
	OffsetHeader = "X-TZ-Offset-Min"

	// Offsets reales van de UTC-14 a UTC+14; fuera de eso se ignora.
	minOffsetMin = -840
	maxOffsetMin = 840
)

// Clock resuelve "ahora" y conversiones local<->UTC para un request.
// El offset viene del cliente (por request), nunca del locale del server:
// el server puede estar en otra zona que quien consulta.
type Clock struct {
	offsetMin *int
	nowFn     func() time.Time
}

// New crea un Clock con offset de cliente opcional.
// Si offsetMin es nil, se usa la zona local del server como fallback.
func New(offsetMin *int) Clock {
	return Clock{offsetMin: offsetMin, nowFn: time.Now}
}

// Fixed crea un Clock con "ahora" congelado (tests).
// now se interpreta como instante UTC.
func Fixed(now time.Time, offsetMin *int) Clock {
	utc := now.UTC()
	return Clock{offsetMin: offsetMin, nowFn: func() time.Time { return utc }}
}

// FromRequest deriva el Clock del header X-TZ-Offset-Min.
// Header ausente o inválido => fallback a hora local del server.
func FromRequest(r *http.Request) Clock {
	raw := strings.TrimSpace(r.Header.Get(OffsetHeader))
	if raw == "" {
		return New(nil)
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < minOffsetMin || n > maxOffsetMin {
		return New(nil)
	}
	return New(&n)
}

// Now devuelve el "ahora" en reloj de pared del cliente.
// Se representa como time.Time en UTC con los valores de pared locales
// (equivalente a un datetime naive), para que comparaciones y .Date()
// operen en calendario del cliente.
func (c Clock) Now() time.Time {
	utc := c.nowFn().UTC()
	if c.offsetMin != nil {
		return utc.Add(-time.Duration(*c.offsetMin) * time.Minute).Truncate(time.Second)
	}
	l := utc.In(serverLocation())
	return asWall(l)
}

// Today es la fecha de calendario del cliente.
func (c Clock) Today() time.Time {
	return DateOf(c.Now())
}

// NowUTC es el instante actual en UTC (precisión de storage).
func (c Clock) NowUTC() time.Time {
	return c.nowFn().UTC().Truncate(time.Second)
}

// ToStorage convierte un wall-clock local del cliente al instante UTC
// de storage (precisión de segundos).
func (c Clock) ToStorage(local time.Time) time.Time {
	w := asWall(local)
	if c.offsetMin != nil {
		return w.Add(time.Duration(*c.offsetMin) * time.Minute).Truncate(time.Second)
	}
	// Fallback: interpretar el wall-clock en la zona del server.
	y, m, d := w.Date()
	hh, mm, ss := w.Clock()
	return time.Date(y, m, d, hh, mm, ss, 0, serverLocation()).UTC().Truncate(time.Second)
}

// FromStorage convierte un instante UTC de storage al wall-clock local.
func (c Clock) FromStorage(utc time.Time) time.Time {
	u := utc.UTC().Truncate(time.Second)
	if c.offsetMin != nil {
		return u.Add(-time.Duration(*c.offsetMin) * time.Minute)
	}
	return asWall(u.In(serverLocation()))
}

// DateOf normaliza t a su fecha de calendario (medianoche UTC).
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parsea una fecha YYYY-MM-DD.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, strings.TrimSpace(s))
}

// FormatStorage serializa un instante al formato de storage.
func FormatStorage(t time.Time) string {
	return t.UTC().Format(StorageLayout)
}

// ParseStorage parsea un timestamp de storage (UTC implícito).
func ParseStorage(s string) (time.Time, error) {
	t, err := time.ParseInLocation(StorageLayout, strings.TrimSpace(s), time.UTC)
	if err != nil {
		return time.Time{}, err
	}
	return t, nil
}

// asWall re-etiqueta t como UTC conservando los valores de pared.
func asWall(t time.Time) time.Time {
	y, m, d := t.Date()
	hh, mm, ss := t.Clock()
	return time.Date(y, m, d, hh, mm, ss, 0, time.UTC)
}

func serverLocation() *time.Location {
	return time.Local
}
