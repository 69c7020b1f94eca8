package animals

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"companion-connect/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

func RegisterRoutes(r chi.Router, svc *Service, sessions *SessionStore) {
	r.Route("/animals", func(ar chi.Router) {
		// Read: tabla completa
		ar.Get("/", listAnimalsHandler(svc))
		ar.Post("/", createAnimalHandler(svc))
		ar.Get("/next-id", nextIDHandler(svc))

		// Búsqueda con estado de sesión (campos recordados)
		ar.Post("/search", searchHandler(svc, sessions))
		ar.Get("/search", rememberedSearchHandler(svc, sessions))
		ar.Delete("/search", refreshSearchHandler(svc, sessions))

		ar.Get("/{animalID}", loadAnimalHandler(svc))
		ar.Patch("/{animalID}", updateAnimalHandler(svc))
		ar.Delete("/{animalID}", deleteAnimalHandler(svc))
	})
}

// createAnimalRequest son los campos del formulario de alta. El id lo asigna el sistema.
type createAnimalRequest struct {
	Name         string          `json:"animalname"`
	Species      string          `json:"speciesname"`
	Breed        string          `json:"breedname"`
	Sex          string          `json:"sexname"`
	Age          decimal.Decimal `json:"animalage" swaggertype:"number"`
	Color        string          `json:"basecolour"`
	IntakeReason string          `json:"intakereason"`
	IntakeDate   string          `json:"intakedate"` // YYYY-MM-DD, vacío = hoy
}

// animalResponse es un record con los nombres de atributo de la tabla.
type animalResponse struct {
	ID             int64           `json:"id"`
	Name           string          `json:"animalname"`
	Species        string          `json:"speciesname"`
	Breed          string          `json:"breedname"`
	Sex            string          `json:"sexname"`
	Age            decimal.Decimal `json:"animalage" swaggertype:"string"`
	Color          string          `json:"basecolour"`
	Location       string          `json:"location"`
	ShelterCode    string          `json:"sheltercode"`
	ChipNumber     string          `json:"identichipnumber"`
	IntakeReason   string          `json:"intakereason"`
	IntakeDate     string          `json:"intakedate"`
	MovementType   string          `json:"movementtype"`
	MovementDate   string          `json:"movementdate"`
	ReturnedReason string          `json:"returnedreason"`
	DeceasedReason string          `json:"deceasedreason"`
	DiedOffShelter string          `json:"diedoffshelter"`
	IsTransfer     string          `json:"istransfer"`
	IsTrial        string          `json:"istrial"`
	PutToSleep     string          `json:"puttosleep"`
	IsDOA          string          `json:"isdoa"`
}

type rowResponse struct {
	Index  int      `json:"index"`
	Values []string `json:"values"`
}

// tableResponse es la tabla tal como se muestra: columnas con etiqueta y filas en orden de scan.
type tableResponse struct {
	Columns []string      `json:"columns"`
	Rows    []rowResponse `json:"rows"`
	Count   int           `json:"count"`
}

type createAnimalResponse struct {
	Message      string         `json:"message"`
	Animal       animalResponse `json:"animal"`
	Table        *tableResponse `json:"table,omitempty"`
	RefreshError string         `json:"refresh_error,omitempty"`
}

type loadAnimalResponse struct {
	Animal animalResponse `json:"animal"`
	// Form son los valores por defecto del formulario de edición.
	Form map[string]string `json:"form"`
}

type updateAnimalResponse struct {
	Message string         `json:"message"`
	Animal  animalResponse `json:"animal"`
	Changed []Field        `json:"changed"`
}

type deleteAnimalResponse struct {
	Message string `json:"message"`
	ID      int64  `json:"id"`
}

type nextIDResponse struct {
	ID int64 `json:"id"`
}

type searchResponse struct {
	Status  FilterStatus      `json:"status"`
	Message string            `json:"message,omitempty"`
	Query   map[string]string `json:"query"`
	Table   tableResponse     `json:"table"`
}

// listAnimalsHandler godoc
// @Summary Listar animales
// @Description Devuelve la tabla completa (scan de toda la tabla) con columnas en orden fijo. El índice de cada fila es 1-based y no depende del id.
// @Tags animals
// @Produce json
// @Success 200 {object} tableResponse
// @Failure 503 {string} string "store unavailable"
// @Router /animals [get]
func listAnimalsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, err := svc.Snapshot(r.Context())
		if err != nil {
			http.Error(w, Message(err), statusFor(err))
			return
		}
		writeJSON(w, http.StatusOK, toTableResponse(snap))
	}
}

// nextIDHandler godoc
// @Summary Próximo id
// @Description Id que se asignaría al próximo alta (max(id)+1). Si la tabla está vacía o el scan falla devuelve 1.
// @Tags animals
// @Produce json
// @Success 200 {object} nextIDResponse
// @Router /animals/next-id [get]
func nextIDHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, nextIDResponse{ID: svc.NextID(r.Context())})
	}
}

// createAnimalHandler godoc
// @Summary Alta de animal
// @Description Asigna el próximo id, guarda el record y devuelve la tabla actualizada. La edad se guarda como decimal exacto con un decimal de precisión.
// @Tags animals
// @Accept json
// @Produce json
// @Param payload body createAnimalRequest true "Campos del formulario de alta"
// @Success 201 {object} createAnimalResponse
// @Failure 400 {string} string "invalid json / validación"
// @Failure 422 {string} string "la tabla rechazó el alta"
// @Failure 503 {string} string "store unavailable"
// @Router /animals [post]
func createAnimalHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createAnimalRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		res, err := svc.Create(r.Context(), CreateInput{
			Name:         req.Name,
			Species:      req.Species,
			Breed:        req.Breed,
			Sex:          req.Sex,
			Age:          req.Age,
			Color:        req.Color,
			IntakeReason: req.IntakeReason,
			IntakeDate:   req.IntakeDate,
		})
		if err != nil {
			http.Error(w, Message(err), statusFor(err))
			return
		}

		out := createAnimalResponse{
			Message: "New animal entry created successfully!",
			Animal:  toAnimalResponse(res.Record),
		}
		if res.RefreshErr != nil {
			out.RefreshError = Message(res.RefreshErr)
		} else {
			t := toTableResponse(res.Snapshot)
			out.Table = &t
		}
		writeJSON(w, http.StatusCreated, out)
	}
}

// loadAnimalHandler godoc
// @Summary Cargar animal para editar
// @Description Devuelve el record y los valores por defecto del formulario de edición (edad 0 y fecha de hoy si faltan).
// @Tags animals
// @Produce json
// @Param animalID path int true "ID del animal"
// @Success 200 {object} loadAnimalResponse
// @Failure 400 {string} string "Invalid ID type provided."
// @Failure 404 {string} string "No data found for this ID."
// @Failure 503 {string} string "store unavailable"
// @Router /animals/{animalID} [get]
func loadAnimalHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec, err := svc.Load(r.Context(), chi.URLParam(r, "animalID"))
		if err != nil {
			http.Error(w, Message(err), statusFor(err))
			return
		}
		writeJSON(w, http.StatusOK, loadAnimalResponse{
			Animal: toAnimalResponse(rec),
			Form:   formDefaults(rec, time.Now()),
		})
	}
}

// updateAnimalHandler godoc
// @Summary Editar animal
// @Description Compara los valores enviados contra el record actual y manda a la tabla solo los campos que cambiaron. Los campos no enviados se mantienen. Sin cambios no se escribe nada.
// @Tags animals
// @Accept json
// @Produce json
// @Param animalID path int true "ID del animal"
// @Param payload body map[string]string true "Campos a editar por nombre de atributo (animalage acepta número)"
// @Success 200 {object} updateAnimalResponse
// @Failure 400 {string} string "invalid json / validación / Invalid ID type provided."
// @Failure 404 {string} string "No data found for this ID."
// @Failure 422 {string} string "Update failed: ..."
// @Failure 503 {string} string "store unavailable"
// @Router /animals/{animalID} [patch]
func updateAnimalHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Decodificamos a map para saber qué campos vinieron (PATCH real).
		var raw map[string]json.RawMessage
		if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		form, err := decodeUpdateForm(raw)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		res, err := svc.Update(r.Context(), chi.URLParam(r, "animalID"), form)
		if err != nil {
			http.Error(w, Message(err), statusFor(err))
			return
		}

		writeJSON(w, http.StatusOK, updateAnimalResponse{
			Message: "Animal data updated successfully!",
			Animal:  toAnimalResponse(res.Record),
			Changed: res.Changes.Fields(),
		})
	}
}

// deleteAnimalHandler godoc
// @Summary Borrar animal
// @Description Verifica que el id exista y recién ahí borra. Si no existe no se llama a la tabla.
// @Tags animals
// @Produce json
// @Param animalID path int true "ID del animal"
// @Success 200 {object} deleteAnimalResponse
// @Failure 400 {string} string "Invalid ID type provided."
// @Failure 404 {string} string "No results found for ID"
// @Failure 422 {string} string "Deletion did not succeed / Error deleting animal"
// @Failure 503 {string} string "store unavailable"
// @Router /animals/{animalID} [delete]
func deleteAnimalHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := svc.Delete(r.Context(), chi.URLParam(r, "animalID"))
		if err != nil {
			msg := Message(err)
			if errors.Is(err, ErrNotFound) {
				msg = fmt.Sprintf("No results found for ID: %d", id)
			}
			http.Error(w, msg, statusFor(err))
			return
		}
		writeJSON(w, http.StatusOK, deleteAnimalResponse{Message: "Deleted successfully", ID: id})
	}
}

// searchHandler godoc
// @Summary Buscar animales
// @Description Filtra la tabla por palabra completa (sin distinguir mayúsculas) en cada campo enviado; los campos se combinan con AND. Los valores quedan recordados en la sesión.
// @Tags search
// @Accept json
// @Produce json
// @Param payload body map[string]string true "Campo (etiqueta o atributo) -> texto. Ej: {\"Species\":\"cat\"}"
// @Success 200 {object} searchResponse
// @Failure 400 {string} string "invalid json / campo desconocido"
// @Failure 503 {string} string "store unavailable"
// @Router /animals/search [post]
func searchHandler(svc *Service, sessions *SessionStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in map[string]string
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		q, err := ParseQuery(in)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		sess := sessions.Get(middleware.SessionID(r.Context()))
		res, err := svc.Search(r.Context(), sess, q)
		if err != nil {
			http.Error(w, Message(err), statusFor(err))
			return
		}
		writeJSON(w, http.StatusOK, toSearchResponse(res, sess.SearchValues()))
	}
}

// rememberedSearchHandler godoc
// @Summary Repetir búsqueda
// @Description Vuelve a correr la búsqueda recordada en la sesión (sin query = tabla completa).
// @Tags search
// @Produce json
// @Success 200 {object} searchResponse
// @Failure 503 {string} string "store unavailable"
// @Router /animals/search [get]
func rememberedSearchHandler(svc *Service, sessions *SessionStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := sessions.Get(middleware.SessionID(r.Context()))
		res, err := svc.SearchRemembered(r.Context(), sess)
		if err != nil {
			http.Error(w, Message(err), statusFor(err))
			return
		}
		writeJSON(w, http.StatusOK, toSearchResponse(res, sess.SearchValues()))
	}
}

// refreshSearchHandler godoc
// @Summary Limpiar búsqueda
// @Description Descarta la sesión (campos de búsqueda recordados) y devuelve la tabla sin filtrar.
// @Tags search
// @Produce json
// @Success 200 {object} searchResponse
// @Failure 503 {string} string "store unavailable"
// @Router /animals/search [delete]
func refreshSearchHandler(svc *Service, sessions *SessionStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Refresh reinicia todo el estado de la sesión, no solo la búsqueda.
		id := middleware.SessionID(r.Context())
		sessions.Drop(id)
		sess := sessions.Get(id)
		res, err := svc.Refresh(r.Context(), sess)
		if err != nil {
			http.Error(w, Message(err), statusFor(err))
			return
		}
		writeJSON(w, http.StatusOK, toSearchResponse(res, sess.SearchValues()))
	}
}

func decodeUpdateForm(raw map[string]json.RawMessage) (UpdateForm, error) {
	form := UpdateForm{Text: map[Field]string{}}
	for key, v := range raw {
		c, ok := LookupColumn(key)
		if !ok || !isEditable(c.Field) {
			return UpdateForm{}, fmt.Errorf("field %q cannot be updated", key)
		}

		if c.Field == FieldAge {
			// null no es un número; decimal lo dejaría en 0
			if string(bytes.TrimSpace(v)) == "null" {
				return UpdateForm{}, fmt.Errorf("animalage must be a number")
			}
			var d decimal.Decimal
			if err := json.Unmarshal(v, &d); err != nil {
				return UpdateForm{}, fmt.Errorf("animalage must be a number")
			}
			form.Age = &d
			continue
		}

		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			// flags y otros campos libres: se guarda el literal tal cual (true, 1, ...)
			lit := string(bytes.TrimSpace(v))
			if lit == "null" {
				lit = ""
			}
			if strings.HasPrefix(lit, "{") || strings.HasPrefix(lit, "[") {
				return UpdateForm{}, fmt.Errorf("%s must be a string", key)
			}
			s = lit
		}
		form.Text[c.Field] = s
	}
	return form, nil
}

func formDefaults(rec Record, now time.Time) map[string]string {
	out := make(map[string]string, len(EditableFields))
	for _, f := range EditableFields {
		v := rec.Text(f)
		if (f == FieldIntakeDate || f == FieldMovementDate) && v == "" {
			v = now.Format(DateLayout)
		}
		out[string(f)] = v
	}
	return out
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrInvalidID), errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrWriteRejected), errors.Is(err, ErrUpdateRejected), errors.Is(err, ErrDeleteRejected):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func toAnimalResponse(r Record) animalResponse {
	return animalResponse{
		ID:             r.ID,
		Name:           r.Name,
		Species:        r.Species,
		Breed:          r.Breed,
		Sex:            r.Sex,
		Age:            r.Age,
		Color:          r.Color,
		Location:       r.Location,
		ShelterCode:    r.ShelterCode,
		ChipNumber:     r.ChipNumber,
		IntakeReason:   r.IntakeReason,
		IntakeDate:     r.IntakeDate,
		MovementType:   r.MovementType,
		MovementDate:   r.MovementDate,
		ReturnedReason: r.ReturnedReason,
		DeceasedReason: r.DeceasedReason,
		DiedOffShelter: string(r.DiedOffShelter),
		IsTransfer:     string(r.IsTransfer),
		IsTrial:        string(r.IsTrial),
		PutToSleep:     string(r.PutToSleep),
		IsDOA:          string(r.IsDOA),
	}
}

func toTableResponse(s Snapshot) tableResponse {
	rows := make([]rowResponse, 0, len(s.Rows))
	for _, row := range s.Rows {
		rows = append(rows, rowResponse{Index: row.Index, Values: row.Values()})
	}
	return tableResponse{Columns: Labels(), Rows: rows, Count: len(rows)}
}

func toSearchResponse(res FilterResult, q Query) searchResponse {
	query := make(map[string]string, len(SearchColumns))
	for _, f := range SearchColumns {
		c, _ := LookupColumn(string(f))
		query[c.Label] = q[f]
	}
	// campos no estándar que también se hayan buscado
	for f, v := range q {
		if c, ok := LookupColumn(string(f)); ok {
			query[c.Label] = v
		}
	}

	out := searchResponse{
		Status: res.Status,
		Query:  query,
		Table:  toTableResponse(res.Snapshot),
	}
	if res.Status == FilterNoMatch {
		out.Message = "No Matches Found"
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
