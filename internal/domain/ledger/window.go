package ledger

import (
	"sort"
	"time"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// DateWindow ventana de fechas inclusiva. Un límite nil significa "sin límite" en ese lado.
// Se pasa siempre como parámetro; nunca se guarda en objetos compartidos.
type DateWindow struct {
	From *time.Time
	To   *time.Time
}

// NewWindow normaliza los límites a fecha (medianoche UTC).
func NewWindow(from, to *time.Time) DateWindow {
	return DateWindow{From: dayPtr(from), To: dayPtr(to)}
}

// Day trunca t a su fecha en UTC.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func dayPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	d := Day(*t)
	return &d
}

// Inverted indica from > to; la ventana no contiene ningún día.
func (w DateWindow) Inverted() bool {
	return w.From != nil && w.To != nil && w.From.After(*w.To)
}

// Contains indica si la fecha cae en [From, To].
func (w DateWindow) Contains(date time.Time) bool {
	if w.From != nil && date.Before(*w.From) {
		return false
	}
	if w.To != nil && date.After(*w.To) {
		return false
	}
	return true
}

// SortEntries ordena por fecha ascendente y desempata por orden de inserción.
// Ordena una copia; la entrada no se modifica.
func SortEntries(entries []entity.LedgerEntry) []entity.LedgerEntry {
	out := make([]entity.LedgerEntry, len(entries))
	copy(out, entries)
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].Seq < out[j].Seq
	})
	return out
}
