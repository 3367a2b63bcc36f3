package ledger

import (
	"fmt"
	"strings"
	"time"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/domain"
	engine "github.com/jhoicas/stock-ledger/internal/domain/ledger"
)

// DateLayout formato de fecha de la API y del CLI.
const DateLayout = "2006-01-02"

// ParseWindow convierte from/to o el rango predefinido en una ventana, tomando hoy del reloj del sistema.
func ParseWindow(q dto.WindowQuery) (engine.DateWindow, error) {
	return ParseWindowAt(q, time.Now())
}

// ParseWindowAt igual que ParseWindow con "hoy" = la fecha de now en su zona horaria.
func ParseWindowAt(q dto.WindowQuery, now time.Time) (engine.DateWindow, error) {
	if r := strings.TrimSpace(q.Range); r != "" {
		if strings.TrimSpace(q.From) != "" || strings.TrimSpace(q.To) != "" {
			return engine.DateWindow{}, fmt.Errorf("%w: range no se combina con from/to", domain.ErrInvalidInput)
		}
		from, to, err := presetRange(r, now)
		if err != nil {
			return engine.DateWindow{}, err
		}
		return engine.NewWindow(&from, &to), nil
	}

	from, err := parseDay(q.From)
	if err != nil {
		return engine.DateWindow{}, err
	}
	to, err := parseDay(q.To)
	if err != nil {
		return engine.DateWindow{}, err
	}
	return engine.NewWindow(from, to), nil
}

// presetRange límites inclusivos del rango. La semana empieza el lunes.
func presetRange(name string, now time.Time) (time.Time, time.Time, error) {
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	sinceMonday := (int(today.Weekday()) + 6) % 7

	switch name {
	case dto.RangeToday:
		return today, today, nil
	case dto.RangeYesterday:
		yesterday := today.AddDate(0, 0, -1)
		return yesterday, yesterday, nil
	case dto.RangeThisWeek:
		return today.AddDate(0, 0, -sinceMonday), today, nil
	case dto.RangeLastWeek:
		start := today.AddDate(0, 0, -sinceMonday-7)
		return start, start.AddDate(0, 0, 6), nil
	case dto.RangeThisMonth:
		return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC), today, nil
	case dto.RangeLastMonth:
		firstOfMonth := time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
		return firstOfMonth.AddDate(0, -1, 0), firstOfMonth.AddDate(0, 0, -1), nil
	case dto.RangeThisYear:
		return time.Date(y, time.January, 1, 0, 0, 0, 0, time.UTC), today, nil
	}
	return time.Time{}, time.Time{}, fmt.Errorf("%w: rango %q desconocido", domain.ErrInvalidInput, name)
}

func parseDay(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return nil, fmt.Errorf("%w: fecha %q, se espera YYYY-MM-DD", domain.ErrInvalidInput, s)
	}
	return &t, nil
}
