package consumer

import (
	"math/rand"
	"time"
)

// fetchBackoff — экспоненциальная пауза с equal-jitter между
// неудачными попытками получить сообщение.
type fetchBackoff struct {
	initial     time.Duration
	max         time.Duration
	maxAttempts int
	jitterRand  *rand.Rand
}

func newFetchBackoff(initial, maxDelay time.Duration, maxAttempts int) *fetchBackoff {
	if initial <= 0 {
		initial = 1 * time.Second
	}
	if maxDelay <= 0 {
		maxDelay = 30 * time.Second
	}
	return &fetchBackoff{
		initial:     initial,
		max:         maxDelay,
		maxAttempts: maxAttempts,
		// jitterRand — источник случайности, чтобы рассинхронизировать экземпляры.
		jitterRand: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// exhausted — исчерпан лимит подряд идущих ошибок (0 — без лимита).
func (b *fetchBackoff) exhausted(failures int) bool {
	return b.maxAttempts > 0 && failures > b.maxAttempts
}

// next возвращает следующее время ожидания повтора с учетом max.
func (b *fetchBackoff) next(current time.Duration) time.Duration {
	current *= 2
	if current > b.max {
		return b.max
	}
	return current
}

// withJitterEqual — половина задержки фиксирована, вторая половина — случайная.
func (b *fetchBackoff) withJitterEqual(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	half := d / 2
	jitter := time.Duration(b.jitterRand.Int63n(int64(d-half) + 1))
	return half + jitter
}
