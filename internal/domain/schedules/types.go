package schedules

// Frequency es el enum cerrado de frecuencias de un schedule.
// Determina los slots esperados por día de calendario.
type Frequency string

const (
	FreqOnceDaily  Frequency = "once_daily"
	FreqTwiceDaily Frequency = "twice_daily"
	FreqThreeDaily Frequency = "three_daily"
	FreqAsNeeded   Frequency = "prn" // sin slots programados, se loguea ad hoc
)

func (f Frequency) Valid() bool {
	switch f {
	case FreqOnceDaily, FreqTwiceDaily, FreqThreeDaily, FreqAsNeeded:
		return true
	}
	return false
}

// DosesPerDay: once=1, twice=2, thrice=3, prn=0.
func (f Frequency) DosesPerDay() int {
	switch f {
	case FreqOnceDaily:
		return 1
	case FreqTwiceDaily:
		return 2
	case FreqThreeDaily:
		return 3
	default:
		return 0
	}
}

// DoseStatus es el estado de un slot (schedule, fecha, slot).
// pending no se persiste: es la ausencia de registro.
type DoseStatus string

const (
	DosePending DoseStatus = "pending"
	DoseTaken   DoseStatus = "taken"
	DoseMissed  DoseStatus = "missed"
)

// SlotLabel etiqueta un slot según el total de dosis diarias.
func SlotLabel(doseNum, total int) string {
	if total == 1 {
		return "Daily dose"
	}
	if total == 2 {
		return [...]string{"Morning dose", "Evening dose"}[doseNum-1]
	}
	return [...]string{"Morning dose", "Afternoon dose", "Evening dose"}[doseNum-1]
}
