package handler

import "net/http"

type createReplyRequest struct {
	GitHub      string `json:"github"`
	Description string `json:"description"`
	Contact     string `json:"contact"`
}

// HandleListReplies returns the replies to a posting in creation order.
// A posting without replies yields an empty array.
//
// HTTP: GET /api/postings/{id}/replies
func (h *BoardHandler) HandleListReplies(w http.ResponseWriter, r *http.Request) {
	id, err := postingIDParam(r)
	if err != nil {
		writeError(w, err)
		return
	}

	replies, err := h.board.ListReplies(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, replies)
}

// HandleCreateReply stores a reply to a posting.
//
// HTTP: POST /api/postings/{id}/replies
// Auth: required
func (h *BoardHandler) HandleCreateReply(w http.ResponseWriter, r *http.Request) {
	id, err := postingIDParam(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req createReplyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	reply, err := h.board.CreateReply(r.Context(), req.GitHub, req.Description, req.Contact, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, reply)
}
