package animals

import (
	"context"

	"companion-connect/internal/platform/logger"
)

// AllocatorFallback es el id que se entrega cuando la tabla está vacía o el
// scan de ids falla (equivale a tomar max=0).
//
// Un fallo de scan no bloquea el alta: se asume tabla vacía. Si el fallo fue
// transitorio y la tabla tenía datos, el id 1 puede pisar un record existente.
const AllocatorFallback int64 = 1

type Allocator struct {
	repo Repository
	log  logger.Logger

	// OnFallback se llama cuando NextID cae al default por un error de scan.
	OnFallback func(err error)
}

func NewAllocator(repo Repository, log logger.Logger) *Allocator {
	if log == nil {
		log = logger.Nop()
	}
	return &Allocator{repo: repo, log: log}
}

// NextID escanea solo la proyección de id y devuelve max+1.
func (a *Allocator) NextID(ctx context.Context) int64 {
	var maxID int64
	for r, err := range Records(ctx, a.repo, FieldID) {
		if err != nil {
			a.log.Warn("next id: scan failed, using fallback", map[string]any{
				"error":    err,
				"fallback": AllocatorFallback,
			})
			if a.OnFallback != nil {
				a.OnFallback(err)
			}
			return AllocatorFallback
		}
		if r.ID > maxID {
			maxID = r.ID
		}
	}
	return maxID + 1
}
