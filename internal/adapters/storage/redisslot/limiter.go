// Package redisslot implementa el límite de capacidad por slot sobre Redis,
// para desplegar varias réplicas del API detrás de un balanceador. El script
// Lua hace check-and-increment en una sola operación atómica.
package redisslot

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"petcare-booking/internal/domain/scheduling"
)

const (
	slotKeyPrefix = "slot:"

	// Los contadores de un día pasado no sirven para nada; se dejan expirar.
	slotKeyTTL = 45 * 24 * time.Hour
)

var reserveSlotScript = redis.NewScript(`
local key = KEYS[1]
local capacity = tonumber(ARGV[1])
local ttl = tonumber(ARGV[2])

local current = tonumber(redis.call('GET', key) or '0')
if current >= capacity then
	return 0
end

redis.call('INCR', key)
if current == 0 then
	redis.call('PEXPIRE', key, ttl)
end
return 1
`)

// El contador nunca baja de cero: un DECR sin INCR correspondiente (clave
// expirada, reinicio, cita creada con redis deshabilitado) no puede regalar
// cupos de más en reservas futuras.
var releaseSlotScript = redis.NewScript(`
local key = KEYS[1]

local current = tonumber(redis.call('GET', key) or '0')
if current > 0 then
	redis.call('DECR', key)
end
return current
`)

type Limiter struct {
	client   *redis.Client
	capacity int
	log      *zap.Logger
}

func NewLimiter(client *redis.Client, capacity int, log *zap.Logger) *Limiter {
	if log == nil {
		log = zap.NewNop()
	}
	return &Limiter{client: client, capacity: capacity, log: log}
}

var _ scheduling.Reserver = (*Limiter)(nil)

// Reserve incrementa el contador del slot si hay cupo y recién entonces corre
// insert. Si insert falla, el cupo se devuelve. excludeID no se usa: en un
// reagendamiento el destino es otra clave y el origen se libera con Release.
func (l *Limiter) Reserve(ctx context.Context, date, slot, excludeID string, insert func(context.Context) error) error {
	key := slotKey(date, slot)

	ok, err := reserveSlotScript.Run(ctx, l.client, []string{key}, l.capacity, slotKeyTTL.Milliseconds()).Int()
	if err != nil {
		return err
	}
	if ok != 1 {
		return scheduling.ErrSlotFull
	}

	if err := insert(ctx); err != nil {
		l.Release(ctx, date, slot)
		return err
	}
	return nil
}

// Release devuelve un cupo al slot, sin pasar de cero. Best effort: si Redis
// no responde, el contador queda alto hasta que expire la clave.
func (l *Limiter) Release(ctx context.Context, date, slot string) {
	key := slotKey(date, slot)
	if err := releaseSlotScript.Run(ctx, l.client, []string{key}).Err(); err != nil {
		l.log.Warn("release slot failed", zap.String("key", key), zap.Error(err))
	}
}

func slotKey(date, slot string) string {
	return slotKeyPrefix + date + ":" + slot
}
