package domain

import "strings"

// MinPhoneDigits минимальное число цифр, при котором телефон участвует в сопоставлении
const MinPhoneDigits = 7

// phoneSuffixDigits сколько последних цифр сравнивается, чтобы код страны не мешал
const phoneSuffixDigits = 10

// MatchMethod показывает каким способом найдена запись
type MatchMethod string

// Способы сопоставления
const (
	MatchByEmail MatchMethod = "email"
	MatchByPhone MatchMethod = "phone"
	MatchByName  MatchMethod = "name"
)

// Identity содержит идентифицирующие данные из входящего вебхука
type Identity struct {
	Email     string
	Phone     string
	FirstName string
	LastName  string
}

// NormalizeEmail приводит email к виду для сравнения
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizePhone оставляет только цифры и берет последние 10.
// Возвращает пустую строку, если цифр меньше MinPhoneDigits.
func NormalizePhone(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if len(digits) < MinPhoneDigits {
		return ""
	}
	if len(digits) > phoneSuffixDigits {
		digits = digits[len(digits)-phoneSuffixDigits:]
	}
	return digits
}

// SplitName делит полное имя на имя и фамилию по первому пробелу
func SplitName(full string) (string, string) {
	full = strings.TrimSpace(full)
	first, last, _ := strings.Cut(full, " ")
	return first, strings.TrimSpace(last)
}
