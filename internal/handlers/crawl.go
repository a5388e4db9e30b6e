package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/jwebster45206/crawl-engine/internal/storage"
	"github.com/jwebster45206/crawl-engine/pkg/combat"
	"github.com/jwebster45206/crawl-engine/pkg/dungeon"
	"github.com/jwebster45206/crawl-engine/pkg/narrate"
	"github.com/jwebster45206/crawl-engine/pkg/rng"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

// CreateCrawlRequest defines the request body for starting a new crawl.
// A zero seed means the server draws one.
type CreateCrawlRequest struct {
	Seed uint64 `json:"seed,omitempty"`
}

// ActionRequest is one player action against an existing crawl.
type ActionRequest struct {
	Action    string `json:"action"`              // move, confirm, descend, search, roll, lock, unlock, attack, flee
	Direction string `json:"direction,omitempty"` // for move
	Die       int    `json:"die,omitempty"`       // for lock/unlock, zero-based
	Accept    bool   `json:"accept,omitempty"`    // for confirm
}

// CrawlResponse returns the full crawl state plus whatever the action
// produced: the navigation result, the attack result, and the narration
// emitted during the request.
type CrawlResponse struct {
	State  *dungeon.Crawl       `json:"state"`
	Result *dungeon.MoveResult  `json:"result,omitempty"`
	Attack *combat.AttackResult `json:"attack,omitempty"`
	Log    []narrate.Line       `json:"log,omitempty"`
}

type CrawlHandler struct {
	storage storage.Storage
	logger  *slog.Logger
}

func NewCrawlHandler(logger *slog.Logger, storage storage.Storage) *CrawlHandler {
	return &CrawlHandler{
		storage: storage,
		logger:  logger,
	}
}

// ServeHTTP handles HTTP requests for crawl operations
// Routes:
// POST /v1/crawl             - Start a new crawl
// GET /v1/crawl/{id}         - Read crawl state by ID
// DELETE /v1/crawl/{id}      - Abandon a crawl
// POST /v1/crawl/{id}/action - Apply one player action
func (h *CrawlHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	path := strings.TrimPrefix(r.URL.Path, "/v1/crawl")
	path = strings.Trim(path, "/")

	var crawlID uuid.UUID
	var action bool
	var err error

	if path != "" {
		parts := strings.Split(path, "/")
		crawlID, err = uuid.Parse(parts[0])
		if err != nil {
			h.logger.Warn("Invalid crawl ID", "id", parts[0], "error", err)
			w.WriteHeader(http.StatusBadRequest)
			response := ErrorResponse{
				Error: "Invalid crawl ID format",
			}
			if err := json.NewEncoder(w).Encode(response); err != nil {
				h.logger.Error("Failed to encode error response", "error", err)
			}
			return
		}
		if len(parts) > 1 {
			if len(parts) > 2 || parts[1] != "action" {
				w.WriteHeader(http.StatusNotFound)
				response := ErrorResponse{
					Error: "Not found",
				}
				if err := json.NewEncoder(w).Encode(response); err != nil {
					h.logger.Error("Failed to encode error response", "error", err)
				}
				return
			}
			action = true
		}
	}

	switch {
	case r.Method == http.MethodPost && crawlID == uuid.Nil:
		h.handleCreate(w, r)

	case r.Method == http.MethodPost && action:
		h.handleAction(w, r, crawlID)

	case r.Method == http.MethodGet && crawlID != uuid.Nil && !action:
		h.handleRead(w, r, crawlID)

	case r.Method == http.MethodDelete && crawlID != uuid.Nil && !action:
		h.handleDelete(w, r, crawlID)

	default:
		h.logger.Warn("Method not allowed for crawl endpoint", "method", r.Method, "path", r.URL.Path)
		w.WriteHeader(http.StatusMethodNotAllowed)
		response := ErrorResponse{
			Error: "Method not allowed. Supported: POST /v1/crawl, GET/DELETE /v1/crawl/{id}, POST /v1/crawl/{id}/action",
		}
		if err := json.NewEncoder(w).Encode(response); err != nil {
			h.logger.Error("Failed to encode error response", "error", err)
		}
	}
}

func (h *CrawlHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	h.logger.Debug("Starting new crawl")

	var req CreateCrawlRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.logger.Warn("Invalid JSON in request body", "error", err)
			w.WriteHeader(http.StatusBadRequest)
			response := ErrorResponse{
				Error: "Invalid JSON in request body",
			}
			if err := json.NewEncoder(w).Encode(response); err != nil {
				h.logger.Error("Failed to encode error response", "error", err)
			}
			return
		}
	}

	cat, err := h.storage.GetCatalog(r.Context())
	if err != nil {
		h.logger.Error("Failed to load room catalog", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		response := ErrorResponse{
			Error: "Failed to load room catalog",
		}
		if err := json.NewEncoder(w).Encode(response); err != nil {
			h.logger.Error("Failed to encode error response", "error", err)
		}
		return
	}

	seed := req.Seed
	if seed == 0 {
		drawn, err := rng.NewSeed()
		if err != nil {
			h.logger.Error("Failed to draw a seed", "error", err)
			w.WriteHeader(http.StatusInternalServerError)
			response := ErrorResponse{
				Error: "Failed to start crawl",
			}
			if err := json.NewEncoder(w).Encode(response); err != nil {
				h.logger.Error("Failed to encode error response", "error", err)
			}
			return
		}
		seed = drawn
	}
	src := rng.NewSeeded(seed)
	rec := &narrate.Recorder{}

	crawl, err := dungeon.New(cat, src, rec.Sink)
	if err != nil {
		h.logger.Error("Failed to start crawl", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		response := ErrorResponse{
			Error: "Failed to start crawl",
		}
		if err := json.NewEncoder(w).Encode(response); err != nil {
			h.logger.Error("Failed to encode error response", "error", err)
		}
		return
	}

	if err := h.saveCrawl(r, crawl, src); err != nil {
		h.logger.Error("Failed to save new crawl", "error", err, "id", crawl.ID.String())
		w.WriteHeader(http.StatusInternalServerError)
		response := ErrorResponse{
			Error: "Failed to save crawl",
		}
		if err := json.NewEncoder(w).Encode(response); err != nil {
			h.logger.Error("Failed to encode error response", "error", err)
		}
		return
	}

	h.logger.Debug("Crawl started", "id", crawl.ID.String(), "seed", seed)
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(CrawlResponse{State: crawl, Log: rec.Lines}); err != nil {
		h.logger.Error("Failed to encode crawl response", "error", err)
	}
}

func (h *CrawlHandler) handleRead(w http.ResponseWriter, r *http.Request, crawlID uuid.UUID) {
	sc, err := h.storage.LoadCrawl(r.Context(), crawlID)
	if err != nil {
		h.logger.Error("Failed to load crawl", "error", err, "id", crawlID.String())
		w.WriteHeader(http.StatusInternalServerError)
		response := ErrorResponse{
			Error: "Failed to load crawl",
		}
		if err := json.NewEncoder(w).Encode(response); err != nil {
			h.logger.Error("Failed to encode error response", "error", err)
		}
		return
	}

	if sc == nil {
		h.logger.Warn("Crawl not found", "id", crawlID.String())
		w.WriteHeader(http.StatusNotFound)
		response := ErrorResponse{
			Error: "Crawl not found",
		}
		if err := json.NewEncoder(w).Encode(response); err != nil {
			h.logger.Error("Failed to encode error response", "error", err)
		}
		return
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(CrawlResponse{State: sc.State}); err != nil {
		h.logger.Error("Failed to encode crawl response", "error", err)
	}
}

func (h *CrawlHandler) handleDelete(w http.ResponseWriter, r *http.Request, crawlID uuid.UUID) {
	if err := h.storage.DeleteCrawl(r.Context(), crawlID); err != nil {
		h.logger.Error("Failed to delete crawl", "error", err, "id", crawlID.String())
		w.WriteHeader(http.StatusInternalServerError)
		response := ErrorResponse{
			Error: "Failed to delete crawl",
		}
		if err := json.NewEncoder(w).Encode(response); err != nil {
			h.logger.Error("Failed to encode error response", "error", err)
		}
		return
	}
	h.logger.Debug("Crawl deleted", "id", crawlID.String())
	w.WriteHeader(http.StatusNoContent)
}

func (h *CrawlHandler) handleAction(w http.ResponseWriter, r *http.Request, crawlID uuid.UUID) {
	var req ActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("Invalid JSON in action request body", "error", err)
		w.WriteHeader(http.StatusBadRequest)
		response := ErrorResponse{
			Error: "Invalid JSON in request body",
		}
		if err := json.NewEncoder(w).Encode(response); err != nil {
			h.logger.Error("Failed to encode error response", "error", err)
		}
		return
	}

	sc, err := h.storage.LoadCrawl(r.Context(), crawlID)
	if err != nil {
		h.logger.Error("Failed to load crawl for action", "error", err, "id", crawlID.String())
		w.WriteHeader(http.StatusInternalServerError)
		response := ErrorResponse{
			Error: "Failed to load crawl",
		}
		if err := json.NewEncoder(w).Encode(response); err != nil {
			h.logger.Error("Failed to encode error response", "error", err)
		}
		return
	}
	if sc == nil {
		h.logger.Warn("Crawl not found for action", "id", crawlID.String())
		w.WriteHeader(http.StatusNotFound)
		response := ErrorResponse{
			Error: "Crawl not found",
		}
		if err := json.NewEncoder(w).Encode(response); err != nil {
			h.logger.Error("Failed to encode error response", "error", err)
		}
		return
	}

	cat, err := h.storage.GetCatalog(r.Context())
	if err != nil {
		h.logger.Error("Failed to load room catalog", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		response := ErrorResponse{
			Error: "Failed to load room catalog",
		}
		if err := json.NewEncoder(w).Encode(response); err != nil {
			h.logger.Error("Failed to encode error response", "error", err)
		}
		return
	}

	src := rng.NewSeeded(0)
	if err := src.UnmarshalBinary(sc.RNG); err != nil {
		h.logger.Error("Failed to restore random source", "error", err, "id", crawlID.String())
		w.WriteHeader(http.StatusInternalServerError)
		response := ErrorResponse{
			Error: "Failed to restore crawl",
		}
		if err := json.NewEncoder(w).Encode(response); err != nil {
			h.logger.Error("Failed to encode error response", "error", err)
		}
		return
	}

	rec := &narrate.Recorder{}
	crawl := sc.State
	crawl.Attach(cat, src, rec.Sink)

	resp, actionErr := h.apply(crawl, req)
	if actionErr != nil {
		h.logger.Debug("Action refused", "action", req.Action, "error", actionErr, "id", crawlID.String())
		w.WriteHeader(http.StatusConflict)
		response := ErrorResponse{
			Error: actionErr.Error(),
		}
		if err := json.NewEncoder(w).Encode(response); err != nil {
			h.logger.Error("Failed to encode error response", "error", err)
		}
		return
	}
	if resp == nil {
		w.WriteHeader(http.StatusBadRequest)
		response := ErrorResponse{
			Error: "Unknown or malformed action: " + req.Action,
		}
		if err := json.NewEncoder(w).Encode(response); err != nil {
			h.logger.Error("Failed to encode error response", "error", err)
		}
		return
	}

	if err := h.saveCrawl(r, crawl, src); err != nil {
		h.logger.Error("Failed to save crawl after action", "error", err, "id", crawlID.String())
		w.WriteHeader(http.StatusInternalServerError)
		response := ErrorResponse{
			Error: "Failed to save crawl",
		}
		if err := json.NewEncoder(w).Encode(response); err != nil {
			h.logger.Error("Failed to encode error response", "error", err)
		}
		return
	}

	resp.State = crawl
	resp.Log = rec.Lines
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Error("Failed to encode action response", "error", err)
	}
}

// apply dispatches one action against the crawl. A nil response with nil
// error means the action name was not recognized.
func (h *CrawlHandler) apply(c *dungeon.Crawl, req ActionRequest) (*CrawlResponse, error) {
	switch req.Action {
	case "move":
		dir := dungeon.Direction(strings.ToLower(req.Direction))
		if !dir.Valid() {
			return nil, nil
		}
		res, err := c.RequestMove(dir)
		if err != nil {
			return nil, err
		}
		return &CrawlResponse{Result: &res}, nil

	case "confirm":
		res, err := c.ConfirmEntry(req.Accept)
		if err != nil {
			return nil, err
		}
		return &CrawlResponse{Result: &res}, nil

	case "descend":
		res, err := c.Descend()
		if err != nil {
			return nil, err
		}
		return &CrawlResponse{Result: &res}, nil

	case "search":
		res, err := c.Search()
		if err != nil {
			return nil, err
		}
		return &CrawlResponse{Result: &res}, nil

	case "roll":
		if err := c.RollDice(); err != nil {
			return nil, err
		}
		return &CrawlResponse{}, nil

	case "lock":
		if err := c.LockDie(req.Die); err != nil {
			return nil, err
		}
		return &CrawlResponse{}, nil

	case "unlock":
		if err := c.UnlockDie(req.Die); err != nil {
			return nil, err
		}
		return &CrawlResponse{}, nil

	case "attack":
		res, err := c.Attack()
		if err != nil {
			return nil, err
		}
		return &CrawlResponse{Attack: &res}, nil

	case "flee":
		res, err := c.Flee()
		if err != nil {
			return nil, err
		}
		return &CrawlResponse{Result: &res}, nil

	default:
		return nil, nil
	}
}

func (h *CrawlHandler) saveCrawl(r *http.Request, c *dungeon.Crawl, src *rng.Seeded) error {
	rngState, err := src.MarshalBinary()
	if err != nil {
		return err
	}
	return h.storage.SaveCrawl(r.Context(), c.ID, &storage.SavedCrawl{
		State: c,
		RNG:   rngState,
	})
}
