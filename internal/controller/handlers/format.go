package handlers

// pluralDays возвращает правильную форму слова "день"
func pluralDays(count int) string {
	if count%10 == 1 && count%100 != 11 {
		return "день"
	}
	if count%10 >= 2 && count%10 <= 4 && (count%100 < 10 || count%100 >= 20) {
		return "дні"
	}
	return "днів"
}
