package cache

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/tonatiuh19/intelivoucher-checkout/payment"
	"golang.org/x/sync/singleflight"
)

var _ payment.KeyRepository = &PaymentKeys{}

const paymentKeysKey = "payment:keys"

type PaymentKeys struct {
	next   payment.KeyRepository
	store  store
	sfg    singleflight.Group
	logger *slog.Logger
}

func NewPaymentKeys(client *redis.Client, next payment.KeyRepository, ttl time.Duration, logger *slog.Logger) *PaymentKeys {
	return &PaymentKeys{
		next:   next,
		store:  newStore(client, ttl),
		logger: logger,
	}
}

func (p *PaymentKeys) GetPaymentKeys(ctx context.Context) ([]payment.Key, error) {
	v, err, _ := p.sfg.Do(paymentKeysKey, func() (any, error) {
		var keys []payment.Key
		err := p.store.get(ctx, paymentKeysKey, &keys)
		if err == nil {
			return keys, nil
		}
		if !errors.Is(err, ErrCacheMiss) {
			p.logger.Warn("payment keys cache read failed", slog.String("error", err.Error()))
		}

		keys, err = p.next.GetPaymentKeys(ctx)
		if err != nil {
			return nil, err
		}

		if err := p.store.set(ctx, paymentKeysKey, keys); err != nil {
			p.logger.Warn("payment keys cache write failed", slog.String("error", err.Error()))
		}
		return keys, nil
	})
	if err != nil {
		return nil, err
	}

	return v.([]payment.Key), nil
}
