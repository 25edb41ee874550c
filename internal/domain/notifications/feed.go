package notifications

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultRetention es cuántos eventos recientes se conservan.
const DefaultRetention = 50

// Feed es el log compartido de eventos, acotado y ordenado por tiempo.
// Lo mutan muchas operaciones del ciclo de vida y lo leen muchos clientes
// por polling; alcanza con un lock liviano, no hace falta aislamiento
// transaccional (un leve reorden de eventos casi simultáneos es aceptable).
type Feed struct {
	mu         sync.Mutex
	events     []Event
	retention  int
	lastCursor int64
	now        func() time.Time
}

func NewFeed(retention int) *Feed {
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &Feed{
		retention: retention,
		now:       time.Now,
	}
}

// Emit agrega un evento con un cursor fresco y recorta los más viejos.
// El cursor es wall-clock en segundos, subido a last+1 cuando varios eventos
// caen en el mismo segundo, así Pull sigue siendo estrictamente incremental.
func (f *Feed) Emit(t Type, message string, payload map[string]any) Event {
	f.mu.Lock()
	defer f.mu.Unlock()

	now := f.now().Unix()
	cursor := now
	if cursor <= f.lastCursor {
		cursor = f.lastCursor + 1
	}
	f.lastCursor = cursor

	e := Event{
		ID:        uuid.NewString(),
		Type:      t,
		Message:   message,
		Payload:   payload,
		CreatedAt: now,
		Cursor:    cursor,
	}

	f.events = append(f.events, e)
	if len(f.events) > f.retention {
		f.events = append([]Event(nil), f.events[len(f.events)-f.retention:]...)
	}
	return e
}

// Pull devuelve los eventos con cursor > since más el cursor máximo actual.
// Un resultado vacío es una respuesta válida, no un error.
func (f *Feed) Pull(since int64) ([]Event, int64) {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]Event, 0)
	for _, e := range f.events {
		if e.Cursor > since {
			out = append(out, e)
		}
	}
	return out, f.lastCursor
}

// Clear vacía el log (acción administrativa).
func (f *Feed) Clear() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = nil
}
