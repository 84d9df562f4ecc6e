package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/job-board/internal/auth"
	"github.com/sakif/job-board/internal/service"
)

// BoardHandler serves the posting and reply endpoints.
type BoardHandler struct {
	board  *service.BoardService
	logger *slog.Logger
}

func NewBoardHandler(board *service.BoardService, logger *slog.Logger) *BoardHandler {
	return &BoardHandler{board: board, logger: logger}
}

type createPostingRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Contact     string `json:"contact"`
}

// HandleListPostings returns one page of postings in creation order.
//
// HTTP: GET /api/postings?from_index=0&limit=20
func (h *BoardHandler) HandleListPostings(w http.ResponseWriter, r *http.Request) {
	from, err := uintQuery(r, "from_index", 0)
	if err != nil {
		writeError(w, err)
		return
	}
	limit, err := uintQuery(r, "limit", service.DefaultListLimit)
	if err != nil {
		writeError(w, err)
		return
	}

	entries, err := h.board.ListPostings(r.Context(), from, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// HandleCreatePosting stores a posting owned by the caller.
//
// HTTP: POST /api/postings
// Auth: required
func (h *BoardHandler) HandleCreatePosting(w http.ResponseWriter, r *http.Request) {
	owner, _ := auth.UserIDFromContext(r.Context())

	var req createPostingRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	posting, err := h.board.CreatePosting(r.Context(), owner, req.Title, req.Description, req.Contact)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, posting)
}

// HandleDeletePosting removes a posting and its replies. Only the caller
// who created the posting may do this.
//
// HTTP: DELETE /api/postings/{id}
// Auth: required
func (h *BoardHandler) HandleDeletePosting(w http.ResponseWriter, r *http.Request) {
	requester, _ := auth.UserIDFromContext(r.Context())

	id, err := postingIDParam(r)
	if err != nil {
		writeError(w, err)
		return
	}

	removed, err := h.board.DeletePosting(r.Context(), requester, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, removed)
}

// HandleStats reports record counts and the next identifiers.
//
// HTTP: GET /api/stats
func (h *BoardHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.board.Stats(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
