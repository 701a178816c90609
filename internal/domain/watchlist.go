package domain

// Watchlists - снимок всех списков отслеживания: chat_id -> упорядоченный список символов.
// Дубликаты допустимы, пустой список означает «ничего не отслеживается».
type Watchlists map[int64][]string

// Clone - глубокая копия, чтобы снимок можно было сохранять без блокировки хранилища
func (w Watchlists) Clone() Watchlists {
	out := make(Watchlists, len(w))
	for id, symbols := range w {
		out[id] = append([]string{}, symbols...)
	}
	return out
}
