// Package jitter рассчитывает интервалы повторов с экспоненциальным ростом и случайной добавкой,
// чтобы повторы разных воркеров не совпадали по времени.
package jitter

import (
	"math/rand/v2"
	"time"
)

// DefaultFactor доля интервала, которая добавляется случайно (50%)
const DefaultFactor = 0.5

// Backoff описывает политику задержек между повторами.
type Backoff struct {
	Base   time.Duration // задержка перед первым повтором
	Max    time.Duration // верхняя граница задержки без учёта джиттера
	Factor float64       // коэффициент джиттера
}

// Delay возвращает задержку перед повтором с номером attempt (с нуля).
// Результат лежит в диапазоне [d, d*(1+Factor)], где d = min(Base*2^attempt, Max).
func (b Backoff) Delay(attempt int) time.Duration {
	return ExponentialBackoff(b.Base, b.Max, attempt, b.Factor)
}

// Duration добавляет к d случайную величину из [0, d*factor].
func Duration(d time.Duration, factor float64) time.Duration {
	if d <= 0 || factor <= 0 {
		return d
	}

	return d + time.Duration(rand.Float64()*factor*float64(d))
}

// ExponentialBackoff удваивает base attempt раз, ограничивает результат max и добавляет джиттер.
func ExponentialBackoff(base, max time.Duration, attempt int, factor float64) time.Duration {
	backoff := base
	for i := 0; i < attempt; i++ {
		backoff *= 2
		if max > 0 && backoff >= max {
			backoff = max
			break
		}
	}

	return Duration(backoff, factor)
}
