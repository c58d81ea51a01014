package web

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"trainerapp/internal/application/debounce"
	"trainerapp/internal/application/listutil"
	"trainerapp/internal/application/orchestrators"
	"trainerapp/internal/application/projections"
	domainClient "trainerapp/internal/domain/client"
	"trainerapp/internal/domain/exercise"
	"trainerapp/internal/domain/location"
	"trainerapp/internal/domain/payment"
)

type clientResponse struct {
	ID                int64  `json:"id"`
	Name              string `json:"name"`
	Phone             string `json:"phone,omitempty"`
	Email             string `json:"email,omitempty"`
	DefaultLocationID int64  `json:"default_location_id,omitempty"`
	PhotoURL          string `json:"photo_url,omitempty"`
	Age               int    `json:"age,omitempty"`
}

func toClientResponse(c domainClient.Client) clientResponse {
	return clientResponse{
		ID:                c.ID,
		Name:              c.Name,
		Phone:             c.Phone,
		Email:             c.Email,
		DefaultLocationID: c.DefaultLocationID,
		PhotoURL:          c.PhotoURL,
		Age:               c.Age(timeNow()),
	}
}

// searchLimit caps autocomplete suggestions.
const searchLimit = 10

// handleClientSearch handles GET /api/clients/search?q=...
// Keystrokes from one trainer are debounced: only the last query in a burst reaches the
// backend, and the requests it replaced get 204.
func handleClientSearch(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	fetch := func(ctx context.Context) ([]domainClient.Client, error) {
		return app.Backend.ListClients(ctx, q)
	}

	var (
		clients []domainClient.Client
		err     error
	)
	if app.Search != nil {
		clients, err = debounce.Search(r.Context(), app.Search, searchKey(r, "clients"), fetch)
	} else {
		clients, err = fetch(r.Context())
	}
	if errors.Is(err, debounce.ErrSuperseded) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}
	if len(clients) > searchLimit {
		clients = clients[:searchLimit]
	}
	out := make([]clientResponse, len(clients))
	for i, c := range clients {
		out[i] = toClientResponse(c)
	}
	writeJSON(w, http.StatusOK, out)
}

type rosterRowResponse struct {
	Client  clientResponse  `json:"client"`
	Balance payment.Balance `json:"balance"`
	Paid    string          `json:"paid"` // total paid, formatted COP
}

type rosterResponse struct {
	Rows       []rosterRowResponse `json:"rows"`
	Page       int                 `json:"page"`
	PerPage    int                 `json:"per_page"`
	Total      int                 `json:"total"`
	TotalPages int                 `json:"total_pages"`
}

func clientRoster(r *http.Request) (listutil.ListParams, projections.GetClientRosterResult, error) {
	params := listutil.ParseListParams(r.URL.Query(), projections.RosterSortColumns)
	res, err := projections.QueryGetClientRoster(r.Context(), projections.GetClientRosterQuery{ListParams: params},
		projections.GetClientRosterDeps{Clients: app.Backend, Balances: app.Backend})
	return params, res, err
}

// handleClientRoster handles GET /api/clients?q=&sort=&dir=&page=&per_page=
func handleClientRoster(w http.ResponseWriter, r *http.Request) {
	_, res, err := clientRoster(r)
	if err != nil {
		writeError(w, err)
		return
	}
	out := rosterResponse{
		Rows:       make([]rosterRowResponse, len(res.Rows)),
		Page:       res.PageInfo.Page,
		PerPage:    res.PageInfo.PerPage,
		Total:      res.PageInfo.Total,
		TotalPages: res.PageInfo.TotalPages,
	}
	for i, row := range res.Rows {
		out.Rows[i] = rosterRowResponse{
			Client:  toClientResponse(row.Client),
			Balance: row.Balance,
			Paid:    payment.FormatCOP(row.Balance.TotalAmountPaidCOP),
		}
	}
	writeJSON(w, http.StatusOK, out)
}

type paymentRequest struct {
	ClientID     int64  `json:"client_id"`
	SessionsPaid int    `json:"sessions_paid"`
	AmountCOP    int64  `json:"amount_cop"`
	Date         string `json:"date"`
	Notes        string `json:"notes"`
}

// handleRecordPayment handles POST /api/payments
func handleRecordPayment(w http.ResponseWriter, r *http.Request) {
	var req paymentRequest
	if err := strictDecode(r, &req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	res, err := orchestrators.ExecuteRecordPayment(r.Context(), orchestrators.RecordPaymentInput{
		ClientID:     req.ClientID,
		SessionsPaid: req.SessionsPaid,
		AmountCOP:    req.AmountCOP,
		Date:         req.Date,
		Notes:        req.Notes,
	}, orchestrators.RecordPaymentDeps{Payments: app.Backend, Now: timeNow})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"payment_id": res.Payment.ID,
		"amount":     payment.FormatCOP(res.Payment.AmountCOP),
		"balance":    res.Balance,
	})
}

type fieldResponse struct {
	exercise.FieldDescriptor
	Input inputResponse `json:"input"`
}

type inputResponse struct {
	Type    string `json:"type"`
	Step    string `json:"step,omitempty"`
	Pattern string `json:"pattern,omitempty"`
}

// handleTemplateFields handles GET /api/templates/{id}/fields: the form controls for logging
// an exercise from the template.
func handleTemplateFields(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "invalid template id", http.StatusBadRequest)
		return
	}
	t, err := app.Backend.GetTemplate(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]fieldResponse, len(t.Fields))
	for i, f := range t.Fields {
		in := exercise.InputFor(f)
		out[i] = fieldResponse{FieldDescriptor: f, Input: inputResponse{Type: in.Type, Step: in.Step, Pattern: in.Pattern}}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"id":         t.ID,
		"name":       t.Name,
		"discipline": t.DisciplineType,
		"fields":     out,
	})
}

type locationResponse struct {
	ID        int64    `json:"id"`
	Name      string   `json:"name"`
	Type      string   `json:"type"`
	Address   string   `json:"address"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	PlaceID   string   `json:"place_id,omitempty"`
}

func toLocationResponse(l location.Location) locationResponse {
	return locationResponse{
		ID:        l.ID,
		Name:      l.Name,
		Type:      l.Type,
		Address:   l.Address(),
		Latitude:  l.Latitude,
		Longitude: l.Longitude,
		PlaceID:   l.GooglePlaceID,
	}
}

// handleLocations handles GET /api/locations: the trainer's locations plus the map widget config.
// A missing maps key only hides the map.
func handleLocations(w http.ResponseWriter, r *http.Request) {
	list, err := app.Backend.ListLocations(r.Context(), currentSession(r).TrainerID)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]locationResponse, len(list))
	for i, l := range list {
		out[i] = toLocationResponse(l)
	}
	body := map[string]any{"locations": out}
	if app.Maps != nil {
		cfg, err := app.Maps.EnsureLoaded(r.Context())
		if err != nil {
			slog.Debug("maps_event", "event", "maps_unavailable", "error", err)
		} else {
			body["maps"] = cfg
		}
	}
	writeJSON(w, http.StatusOK, body)
}

type dashboardResponse struct {
	Period            string            `json:"period"`
	TotalSessions     int               `json:"total_sessions"`
	CompletedSessions int               `json:"completed_sessions"`
	ScheduledSessions int               `json:"scheduled_sessions"`
	CancelledSessions int               `json:"cancelled_sessions"`
	TotalClients      int               `json:"total_clients"`
	Computed          bool              `json:"computed"`
	Upcoming          []sessionResponse `json:"upcoming"`
}

func dashboardStats(r *http.Request) (projections.GetDashboardStatsResult, error) {
	return projections.QueryGetDashboardStats(r.Context(),
		projections.GetDashboardStatsQuery{Period: r.URL.Query().Get("period")},
		projections.GetDashboardStatsDeps{Stats: app.Backend, Sessions: app.Backend, Now: timeNow})
}

// handleDashboardStats handles GET /api/dashboard?period=week|month|all
func handleDashboardStats(w http.ResponseWriter, r *http.Request) {
	res, err := dashboardStats(r)
	if err != nil {
		writeError(w, err)
		return
	}
	period := r.URL.Query().Get("period")
	if period == "" {
		period = projections.PeriodWeek
	}
	writeJSON(w, http.StatusOK, dashboardResponse{
		Period:            period,
		TotalSessions:     res.Stats.TotalSessions,
		CompletedSessions: res.Stats.CompletedSessions,
		ScheduledSessions: res.Stats.ScheduledSessions,
		CancelledSessions: res.Stats.CancelledSessions,
		TotalClients:      res.Stats.TotalClients,
		Computed:          res.Computed,
		Upcoming:          toSessionResponses(res.Upcoming),
	})
}
