// Package webhook проверяет подписи и структуру входящих вебхуков провайдеров.
package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aidar/member-crm/internal/domain"
)

// MaxClockSkew допустимое расхождение времени для подписей с меткой времени
const MaxClockSkew = 5 * time.Minute

// Заголовки подписей провайдеров
const (
	HeaderTypeform       = "Typeform-Signature"
	HeaderCalendly       = "Calendly-Webhook-Signature"
	HeaderWasender       = "X-Webhook-Signature"
	HeaderSamCart        = "X-Samcart-Signature"
	HeaderSlackSignature = "X-Slack-Signature"
	HeaderSlackTimestamp = "X-Slack-Request-Timestamp"
)

func hmacSHA256(key, data []byte) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write(data)
	return mac.Sum(nil)
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", domain.ErrInvalidSignature, fmt.Sprintf(format, args...))
}

// VerifyTypeform проверяет заголовок "sha256=<base64 HMAC-SHA256(body)>".
// Пустой секрет отключает проверку.
func VerifyTypeform(secret string, body []byte, header string) error {
	if secret == "" {
		return nil
	}
	sig, ok := strings.CutPrefix(strings.TrimSpace(header), "sha256=")
	if !ok {
		return invalid("missing sha256 prefix")
	}
	expected := base64.StdEncoding.EncodeToString(hmacSHA256([]byte(secret), body))
	if !hmac.Equal([]byte(sig), []byte(expected)) {
		return invalid("typeform signature mismatch")
	}
	return nil
}

// VerifyCalendly проверяет заголовок "t=<unix>,v1=<hex HMAC-SHA256(t.body)>"
func VerifyCalendly(key string, body []byte, header string, now time.Time) error {
	if key == "" {
		return nil
	}

	var ts, sig string
	for _, part := range strings.Split(header, ",") {
		k, v, _ := strings.Cut(strings.TrimSpace(part), "=")
		switch k {
		case "t":
			ts = v
		case "v1":
			sig = v
		}
	}
	if ts == "" || sig == "" {
		return invalid("malformed calendly signature header")
	}
	if err := checkTimestamp(ts, now); err != nil {
		return err
	}

	expected := hex.EncodeToString(hmacSHA256([]byte(key), append([]byte(ts+"."), body...)))
	if !hmac.Equal([]byte(sig), []byte(expected)) {
		return invalid("calendly signature mismatch")
	}
	return nil
}

// VerifyWasender сравнивает заголовок с общим секретом
func VerifyWasender(secret, header string) error {
	if secret == "" {
		return nil
	}
	if subtle.ConstantTimeCompare([]byte(secret), []byte(strings.TrimSpace(header))) != 1 {
		return invalid("wasender secret mismatch")
	}
	return nil
}

// VerifySamCart проверяет hex HMAC-SHA256 тела
func VerifySamCart(secret string, body []byte, header string) error {
	if secret == "" {
		return nil
	}
	expected := hex.EncodeToString(hmacSHA256([]byte(secret), body))
	if !hmac.Equal([]byte(strings.ToLower(strings.TrimSpace(header))), []byte(expected)) {
		return invalid("samcart signature mismatch")
	}
	return nil
}

// VerifySlack проверяет подпись v0 = hex(HMAC-SHA256("v0:ts:body"))
func VerifySlack(secret string, body []byte, timestamp, header string, now time.Time) error {
	if secret == "" {
		return nil
	}
	if err := checkTimestamp(timestamp, now); err != nil {
		return err
	}
	sig, ok := strings.CutPrefix(header, "v0=")
	if !ok {
		return invalid("missing v0 prefix")
	}
	base := "v0:" + timestamp + ":" + string(body)
	expected := hex.EncodeToString(hmacSHA256([]byte(secret), []byte(base)))
	if !hmac.Equal([]byte(sig), []byte(expected)) {
		return invalid("slack signature mismatch")
	}
	return nil
}

func checkTimestamp(ts string, now time.Time) error {
	sec, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return invalid("bad timestamp %q", ts)
	}
	skew := now.Sub(time.Unix(sec, 0))
	if skew < 0 {
		skew = -skew
	}
	if skew > MaxClockSkew {
		return invalid("timestamp outside allowed window")
	}
	return nil
}
