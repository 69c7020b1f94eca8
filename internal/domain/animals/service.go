package animals

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"companion-connect/internal/platform/logger"

	"github.com/shopspring/decimal"
)

// Service implementa los flujos de formulario (alta, edición, baja) y la
// búsqueda. Cada flujo es un único submit sin estado compartido.
type Service struct {
	repo  Repository
	alloc *Allocator
	log   logger.Logger
	now   func() time.Time
}

func NewService(repo Repository, alloc *Allocator, log logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	if alloc == nil {
		alloc = NewAllocator(repo, log)
	}
	return &Service{
		repo:  repo,
		alloc: alloc,
		log:   log,
		now:   time.Now,
	}
}

// ParseID convierte el id ingresado. Tiene que ser un entero positivo.
func ParseID(raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, fmt.Errorf("%w: id required", ErrInvalidID)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidID, raw)
	}
	return id, nil
}

func (s *Service) Snapshot(ctx context.Context) (Snapshot, error) {
	return BuildSnapshot(ctx, s.repo)
}

// NextID es el id que tendría el próximo alta (para pre-llenar el formulario).
func (s *Service) NextID(ctx context.Context) int64 {
	return s.alloc.NextID(ctx)
}

// CreateInput son los campos del formulario de alta.
type CreateInput struct {
	Name         string
	Species      string
	Breed        string
	Sex          string
	Age          decimal.Decimal
	Color        string
	IntakeReason string
	IntakeDate   string // YYYY-MM-DD; vacío = hoy
}

type CreateResult struct {
	Record   Record
	Snapshot Snapshot

	// RefreshErr es el error del re-scan posterior al alta. El record ya quedó
	// guardado; el llamador decide cómo mostrarlo.
	RefreshErr error
}

// Create asigna id, arma el record y lo guarda. Si Put falla no se reintenta
// ni se re-asigna el id: el siguiente intento pide un NextID nuevo.
func (s *Service) Create(ctx context.Context, in CreateInput) (CreateResult, error) {
	age, err := NormalizeAge(in.Age)
	if err != nil {
		return CreateResult{}, err
	}

	intake := strings.TrimSpace(in.IntakeDate)
	if intake == "" {
		intake = s.now().Format(DateLayout)
	}
	intake, err = NormalizeDate(FieldIntakeDate, intake)
	if err != nil {
		return CreateResult{}, err
	}

	r := Record{
		ID:           s.alloc.NextID(ctx),
		Name:         strings.TrimSpace(in.Name),
		Species:      strings.TrimSpace(in.Species),
		Breed:        strings.TrimSpace(in.Breed),
		Sex:          strings.TrimSpace(in.Sex),
		Age:          age,
		Color:        strings.TrimSpace(in.Color),
		IntakeReason: strings.TrimSpace(in.IntakeReason),
		IntakeDate:   intake,
	}

	if err := s.repo.Put(ctx, r); err != nil {
		s.log.Error("create animal failed", map[string]any{"id": r.ID, "error": err})
		return CreateResult{}, err
	}
	s.log.Info("animal created", map[string]any{"id": r.ID})

	out := CreateResult{Record: r}
	snap, err := BuildSnapshot(ctx, s.repo)
	if err != nil {
		out.RefreshErr = err
		return out, nil
	}
	out.Snapshot = snap
	return out, nil
}

// Load trae el record a editar (sus valores son los defaults del formulario).
func (s *Service) Load(ctx context.Context, rawID string) (Record, error) {
	id, err := ParseID(rawID)
	if err != nil {
		return Record{}, err
	}
	return s.repo.Get(ctx, id)
}

// UpdateForm son los valores enviados en la edición. Los campos que no
// vienen conservan el valor cargado.
type UpdateForm struct {
	Text map[Field]string
	Age  *decimal.Decimal
}

type UpdateResult struct {
	Record  Record
	Changes Changes
}

// Update compara lo enviado contra el record cargado y manda solo lo que cambió.
// Sin cambios no se llama a la tabla.
func (s *Service) Update(ctx context.Context, rawID string, form UpdateForm) (UpdateResult, error) {
	loaded, err := s.Load(ctx, rawID)
	if err != nil {
		return UpdateResult{}, err
	}

	submitted, err := s.applyForm(loaded, form)
	if err != nil {
		return UpdateResult{}, err
	}

	changes := Diff(loaded, submitted)
	if len(changes) == 0 {
		return UpdateResult{Record: loaded, Changes: changes}, nil
	}

	confirmed, err := s.repo.Update(ctx, loaded.ID, changes)
	if err != nil {
		s.log.Error("update animal failed", map[string]any{"id": loaded.ID, "error": err})
		return UpdateResult{}, err
	}
	updated, err := loaded.With(confirmed)
	if err != nil {
		return UpdateResult{}, err
	}
	s.log.Info("animal updated", map[string]any{"id": loaded.ID, "fields": changes.Fields()})
	return UpdateResult{Record: updated, Changes: changes}, nil
}

func (s *Service) applyForm(loaded Record, form UpdateForm) (Record, error) {
	changes := make(Changes, 0, len(form.Text)+1)
	for _, f := range EditableFields {
		if f == FieldAge {
			var (
				age decimal.Decimal
				err error
			)
			switch raw, ok := form.Text[f]; {
			case form.Age != nil:
				age, err = NormalizeAge(*form.Age)
			case ok:
				age, err = ParseAge(strings.TrimSpace(raw))
			default:
				continue
			}
			if err != nil {
				return Record{}, err
			}
			changes = append(changes, Change{Field: f, Value: age})
			continue
		}

		v, ok := form.Text[f]
		if !ok {
			continue
		}
		if f == FieldIntakeDate || f == FieldMovementDate {
			d, err := NormalizeDate(f, strings.TrimSpace(v))
			if err != nil {
				return Record{}, err
			}
			v = d
		}
		changes = append(changes, Change{Field: f, Value: v})
	}

	for f := range form.Text {
		if !isEditable(f) {
			return Record{}, fmt.Errorf("%w: field %q cannot be updated", ErrValidation, f)
		}
	}

	return loaded.With(changes)
}

// Delete verifica que el id exista antes de borrar. Si no existe no se llama a Delete.
func (s *Service) Delete(ctx context.Context, rawID string) (int64, error) {
	id, err := ParseID(rawID)
	if err != nil {
		return 0, err
	}
	if _, err := s.repo.Get(ctx, id); err != nil {
		return id, err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		s.log.Error("delete animal failed", map[string]any{"id": id, "error": err})
		return id, err
	}
	s.log.Info("animal deleted", map[string]any{"id": id})
	return id, nil
}

// Search recuerda la query en la sesión y filtra un snapshot nuevo.
func (s *Service) Search(ctx context.Context, sess *Session, q Query) (FilterResult, error) {
	sess.Remember(q)
	return s.searchWith(ctx, sess.SearchValues())
}

// SearchRemembered vuelve a correr la última búsqueda de la sesión.
func (s *Service) SearchRemembered(ctx context.Context, sess *Session) (FilterResult, error) {
	return s.searchWith(ctx, sess.SearchValues())
}

// Refresh limpia los campos de búsqueda y devuelve la tabla sin filtrar.
func (s *Service) Refresh(ctx context.Context, sess *Session) (FilterResult, error) {
	sess.Refresh()
	return s.searchWith(ctx, Query{})
}

func (s *Service) searchWith(ctx context.Context, q Query) (FilterResult, error) {
	snap, err := BuildSnapshot(ctx, s.repo)
	if err != nil {
		return FilterResult{}, err
	}
	return Filter(snap, q), nil
}

func isEditable(f Field) bool {
	for _, e := range EditableFields {
		if e == f {
			return true
		}
	}
	return false
}
