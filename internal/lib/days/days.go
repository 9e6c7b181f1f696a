// Package days содержит помощники для работы с календарными днями:
// начало дня и окна из последних N дней для графиков.
package days

import "time"

// Layout формат календарной даты в ответах API.
const Layout = "2006-01-02"

// StartOfDay возвращает полночь дня t в его часовом поясе.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// Same сообщает, приходятся ли a и b на одну календарную дату в часовом поясе a.
func Same(a, b time.Time) bool {
	b = b.In(a.Location())
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// Window возвращает n дней, заканчивающихся today, от старого к новому:
// today-(n-1), ..., today-1, today. Для n <= 0 возвращает nil.
func Window(today time.Time, n int) []time.Time {
	if n <= 0 {
		return nil
	}
	start := StartOfDay(today)
	res := make([]time.Time, 0, n)
	for i := n - 1; i >= 0; i-- {
		res = append(res, start.AddDate(0, 0, -i))
	}
	return res
}
