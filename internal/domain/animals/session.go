package animals

import (
	"strings"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
)

// Session guarda el estado de UI de un usuario (los valores de búsqueda
// recordados entre requests). Vive lo que dure la sesión, no el proceso.
type Session struct {
	ID string

	mu     sync.Mutex
	search Query
}

func NewSession(id string) *Session {
	return &Session{ID: id, search: Query{}}
}

// Remember reemplaza los valores de búsqueda recordados.
func (s *Session) Remember(q Query) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.search = Query{}
	for f, v := range q {
		s.search[f] = v
	}
}

// SearchValues devuelve una copia de los valores recordados.
func (s *Session) SearchValues() Query {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := Query{}
	for f, v := range s.search {
		out[f] = v
	}
	return out
}

// Refresh limpia todos los campos de búsqueda.
func (s *Session) Refresh() {
	s.Remember(Query{})
}

const DefaultSessionTTL = 30 * time.Minute

// SessionStore mantiene las sesiones en memoria con expiración.
type SessionStore struct {
	c *cache.Cache
}

func NewSessionStore(ttl time.Duration) *SessionStore {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &SessionStore{c: cache.New(ttl, 2*ttl)}
}

// Get devuelve la sesión (creándola si no existe) y renueva su expiración.
func (s *SessionStore) Get(id string) *Session {
	id = strings.TrimSpace(id)
	if v, ok := s.c.Get(id); ok {
		sess := v.(*Session)
		s.c.SetDefault(id, sess)
		return sess
	}
	sess := NewSession(id)
	if err := s.c.Add(id, sess, cache.DefaultExpiration); err != nil {
		// otra request de la misma sesión la creó primero
		if v, ok := s.c.Get(id); ok {
			return v.(*Session)
		}
	}
	return sess
}

// Drop descarta la sesión.
func (s *SessionStore) Drop(id string) {
	s.c.Delete(strings.TrimSpace(id))
}
