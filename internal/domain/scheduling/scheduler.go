package scheduling

import (
	"context"
	"errors"
	"sync"
)

var ErrSlotFull = errors.New("slot is full")

// ActiveCounter cuenta citas activas (pending|confirmed) en un slot,
// opcionalmente excluyendo una cita (su propia ocupación al reprogramar).
type ActiveCounter interface {
	CountActiveInSlot(ctx context.Context, date, slot, excludeID string) (int, error)
}

// Reserver admite una nueva ocupación en un slot o falla con ErrSlotFull.
// insert se ejecuta dentro de la sección crítica: contar y escribir forman
// una unidad atómica, dos llamadas simultáneas no pueden ver ambas count = cap-1.
type Reserver interface {
	Reserve(ctx context.Context, date, slot, excludeID string, insert func(context.Context) error) error

	// Release libera una ocupación activa (cancelación, borrado, o el slot de
	// origen de un reschedule). Para implementaciones que derivan la cuenta
	// del estado persistido es un no-op.
	Release(ctx context.Context, date, slot string)
}

// Scheduler es el Reserver por defecto: mutex por slot + cuenta viva del
// repositorio. Correcto para un despliegue de una sola instancia; para
// multi-instancia ver el limitador redis.
type Scheduler struct {
	counter  ActiveCounter
	capacity int

	mu    sync.Mutex
	slots map[string]*sync.Mutex
}

func NewScheduler(counter ActiveCounter, capacity int) *Scheduler {
	return &Scheduler{
		counter:  counter,
		capacity: capacity,
		slots:    make(map[string]*sync.Mutex),
	}
}

func (s *Scheduler) Reserve(ctx context.Context, date, slot, excludeID string, insert func(context.Context) error) error {
	lock := s.lockFor(date + "|" + slot)
	lock.Lock()
	defer lock.Unlock()

	count, err := s.counter.CountActiveInSlot(ctx, date, slot, excludeID)
	if err != nil {
		return err
	}
	if count >= s.capacity {
		return ErrSlotFull
	}
	return insert(ctx)
}

func (s *Scheduler) Release(ctx context.Context, date, slot string) {
	// La ocupación se deriva del status de las filas; nada que liberar.
}

func (s *Scheduler) lockFor(key string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	if m, ok := s.slots[key]; ok {
		return m
	}
	m := &sync.Mutex{}
	s.slots[key] = m
	return m
}
