// Package httpapi implements the HTTP surface of the match service.
//
// Subscriber routes expect an x-user-id header forwarded by the Gateway.
// /internal/* routes are service-to-service: the posting CRUD service
// pushes lifecycle events there and operators use them for recovery.
//
// Routes:
//
//	POST /subscriptions                       → create filter subscription
//	GET  /subscriptions                       → list own subscriptions
//	GET  /subscriptions/{id}/matches          → match history of one subscription
//	GET  /recommendations                     → latest recommended postings
//	GET  /notifications                       → list notifications (paged)
//	GET  /notifications/unread-count          → unread total
//	POST /notifications/read                  → mark all read
//	GET  /notifications/stream                → SSE live event stream
//	POST /internal/postings                   → posting created
//	PUT  /internal/postings/{id}              → posting updated
//	DELETE /internal/postings/{id}            → posting deleted
//	POST /internal/postings/{id}/reindex      → rebuild document from stored feed
//	POST /internal/jobs/{postId}/requeue      → requeue a dead dispatch job
package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/Ke1ly/haloop-match-service/internal/docindex"
	"github.com/Ke1ly/haloop-match-service/internal/model"
	"github.com/Ke1ly/haloop-match-service/internal/notify"
	"github.com/Ke1ly/haloop-match-service/internal/percolator"
	"github.com/Ke1ly/haloop-match-service/internal/posting"
	"github.com/Ke1ly/haloop-match-service/internal/queue"
	"github.com/Ke1ly/haloop-match-service/internal/realtime"
	"github.com/Ke1ly/haloop-match-service/internal/recommend"
	"github.com/Ke1ly/haloop-match-service/internal/subscription"
)

// ─── Handler ─────────────────────────────────────────────────────────────────

// Handler holds shared dependencies.
type Handler struct {
	subs      *subscription.Service
	notifs    *notify.Store
	directory *notify.ProfileDirectory
	docs      *docindex.Index
	entries   *recommend.EntryStore
	jobs      *queue.Repo
	postings  *posting.Service
	stream    *realtime.SSEHandler
}

// NewHandler returns a configured Handler.
func NewHandler(
	subs *subscription.Service,
	notifs *notify.Store,
	directory *notify.ProfileDirectory,
	docs *docindex.Index,
	entries *recommend.EntryStore,
	jobs *queue.Repo,
	postings *posting.Service,
	broker realtime.Broker,
) *Handler {
	return &Handler{
		subs:      subs,
		notifs:    notifs,
		directory: directory,
		docs:      docs,
		entries:   entries,
		jobs:      jobs,
		postings:  postings,
		stream:    realtime.NewSSEHandler(broker),
	}
}

// RegisterRoutes mounts all match-service routes on mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/subscriptions", h.handleSubscriptions)
	mux.HandleFunc("/subscriptions/", h.handleSubscriptionAction)
	mux.HandleFunc("/recommendations", h.handleRecommendations)
	mux.HandleFunc("/notifications", h.handleNotifications)
	mux.HandleFunc("/notifications/unread-count", h.handleUnreadCount)
	mux.HandleFunc("/notifications/read", h.handleMarkRead)
	mux.Handle("/notifications/stream", h.stream)
	mux.HandleFunc("/internal/postings", h.handlePostingCreated)
	mux.HandleFunc("/internal/postings/", h.handlePostingAction)
	mux.HandleFunc("/internal/jobs/", h.handleJobAction)
}

// helperProfile resolves the caller's helper profile from the forwarded
// user identity. Writes the error response itself; callers bail on "".
func (h *Handler) helperProfile(w http.ResponseWriter, r *http.Request) string {
	userID := r.Header.Get("x-user-id")
	if userID == "" {
		jsonError(w, "missing x-user-id header", http.StatusUnauthorized)
		return ""
	}
	helperID, err := h.directory.HelperProfileID(r.Context(), userID)
	if err != nil {
		log.Printf("[httpapi] Resolve helper profile: %v", err)
		jsonError(w, "database error", http.StatusInternalServerError)
		return ""
	}
	if helperID == "" {
		jsonError(w, "no helper profile for this user", http.StatusForbidden)
		return ""
	}
	return helperID
}

// ─── Subscriptions ───────────────────────────────────────────────────────────

// handleSubscriptions handles GET and POST /subscriptions
func (h *Handler) handleSubscriptions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.listSubscriptions(w, r)
	case http.MethodPost:
		h.createSubscription(w, r)
	default:
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) createSubscription(w http.ResponseWriter, r *http.Request) {
	helperID := h.helperProfile(w, r)
	if helperID == "" {
		return
	}

	var body struct {
		Name    *string      `json:"name"`
		Filters model.Filter `json:"filters"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		jsonError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	sub, err := h.subs.Create(r.Context(), helperID, body.Name, body.Filters)
	var verr *percolator.ValidationError
	if errors.As(err, &verr) {
		jsonError(w, verr.Error(), http.StatusBadRequest)
		return
	}
	if err != nil {
		log.Printf("[httpapi] createSubscription: %v", err)
		jsonError(w, "database error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(sub)
}

func (h *Handler) listSubscriptions(w http.ResponseWriter, r *http.Request) {
	helperID := h.helperProfile(w, r)
	if helperID == "" {
		return
	}

	subs, err := h.subs.List(r.Context(), helperID)
	if err != nil {
		log.Printf("[httpapi] listSubscriptions: %v", err)
		jsonError(w, "database error", http.StatusInternalServerError)
		return
	}
	if subs == nil {
		subs = []model.Subscription{}
	}
	jsonOK(w, subs)
}

// handleSubscriptionAction handles GET /subscriptions/{id}/matches
func (h *Handler) handleSubscriptionAction(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// Parse /subscriptions/{id}/{action}
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(parts) != 3 || parts[2] != "matches" {
		jsonError(w, "invalid path", http.StatusNotFound)
		return
	}
	h.listMatches(w, r, parts[1])
}

func (h *Handler) listMatches(w http.ResponseWriter, r *http.Request, subscriptionID string) {
	helperID := h.helperProfile(w, r)
	if helperID == "" {
		return
	}

	matches, err := h.subs.ListMatches(r.Context(), helperID, subscriptionID)
	if errors.Is(err, subscription.ErrNotFound) {
		jsonError(w, "subscription not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Printf("[httpapi] listMatches: %v", err)
		jsonError(w, "database error", http.StatusInternalServerError)
		return
	}
	if matches == nil {
		matches = []subscription.MatchedPost{}
	}
	jsonOK(w, matches)
}

// ─── Recommendations ─────────────────────────────────────────────────────────

// handleRecommendations handles GET /recommendations — the subscriber's
// most recently surfaced postings, hydrated from the document index.
// Postings that have left the index since being surfaced are dropped.
func (h *Handler) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	helperID := h.helperProfile(w, r)
	if helperID == "" {
		return
	}

	ids, err := h.entries.Recent(r.Context(), helperID, recommend.TopN)
	if err != nil {
		log.Printf("[httpapi] recommendations: %v", err)
		jsonError(w, "recommendation store error", http.StatusInternalServerError)
		return
	}

	docs := make([]model.WorkDocument, 0, len(ids))
	for _, id := range ids {
		if doc, ok := h.docs.Get(id); ok {
			docs = append(docs, doc)
		}
	}
	jsonOK(w, docs)
}

// ─── Notifications ───────────────────────────────────────────────────────────

const (
	defaultNotificationLimit = 20
	maxNotificationLimit     = 100
)

func (h *Handler) handleNotifications(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	helperID := h.helperProfile(w, r)
	if helperID == "" {
		return
	}

	limit := queryInt(r, "limit", defaultNotificationLimit)
	if limit > maxNotificationLimit {
		limit = maxNotificationLimit
	}
	offset := queryInt(r, "offset", 0)

	notifs, err := h.notifs.List(r.Context(), helperID, limit, offset)
	if err != nil {
		log.Printf("[httpapi] listNotifications: %v", err)
		jsonError(w, "database error", http.StatusInternalServerError)
		return
	}
	jsonOK(w, notifs)
}

func (h *Handler) handleUnreadCount(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	helperID := h.helperProfile(w, r)
	if helperID == "" {
		return
	}

	count, err := h.notifs.UnreadCount(r.Context(), helperID)
	if err != nil {
		log.Printf("[httpapi] unreadCount: %v", err)
		jsonError(w, "database error", http.StatusInternalServerError)
		return
	}
	jsonOK(w, map[string]int{"unreadCount": count})
}

func (h *Handler) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	helperID := h.helperProfile(w, r)
	if helperID == "" {
		return
	}

	if err := h.notifs.MarkAllRead(r.Context(), helperID); err != nil {
		log.Printf("[httpapi] markAllRead: %v", err)
		jsonError(w, "database error", http.StatusInternalServerError)
		return
	}
	jsonOK(w, map[string]bool{"success": true})
}

// ─── Internal: posting lifecycle ─────────────────────────────────────────────

// handlePostingCreated handles POST /internal/postings
func (h *Handler) handlePostingCreated(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var post model.RawWorkPost
	if err := json.NewDecoder(r.Body).Decode(&post); err != nil || post.ID == "" {
		jsonError(w, "body must be a posting with an id", http.StatusBadRequest)
		return
	}

	h.postings.OnCreated(post)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]string{"status": "accepted", "workPostId": post.ID})
}

// handlePostingAction handles PUT/DELETE /internal/postings/{id} and
// POST /internal/postings/{id}/reindex
func (h *Handler) handlePostingAction(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")

	switch {
	case len(parts) == 3 && r.Method == http.MethodPut:
		h.updatePosting(w, r, parts[2])
	case len(parts) == 3 && r.Method == http.MethodDelete:
		h.postings.OnDeleted(parts[2])
		jsonOK(w, map[string]string{"status": "deleted", "workPostId": parts[2]})
	case len(parts) == 4 && parts[3] == "reindex" && r.Method == http.MethodPost:
		h.reindexPosting(w, r, parts[2])
	default:
		jsonError(w, "invalid path", http.StatusNotFound)
	}
}

func (h *Handler) updatePosting(w http.ResponseWriter, r *http.Request, id string) {
	var post model.RawWorkPost
	if err := json.NewDecoder(r.Body).Decode(&post); err != nil {
		jsonError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if post.ID == "" {
		post.ID = id
	}
	if post.ID != id {
		jsonError(w, "posting id does not match path", http.StatusBadRequest)
		return
	}

	h.postings.OnUpdated(post)
	jsonOK(w, map[string]string{"status": "updated", "workPostId": id})
}

// reindexPosting rebuilds one document from the stored feed snapshot,
// recovering an index that drifted from the feed.
func (h *Handler) reindexPosting(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.postings.Reindex(r.Context(), id); err != nil {
		if errors.Is(err, posting.ErrNotInFeed) {
			jsonError(w, fmt.Sprintf("posting %s not in feed", id), http.StatusNotFound)
			return
		}
		log.Printf("[httpapi] reindexPosting: %v", err)
		jsonError(w, "database error", http.StatusInternalServerError)
		return
	}
	jsonOK(w, map[string]string{"status": "reindexed", "workPostId": id})
}

// ─── Internal: job recovery ──────────────────────────────────────────────────

// handleJobAction handles POST /internal/jobs/{postId}/requeue
func (h *Handler) handleJobAction(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(parts) != 4 || parts[3] != "requeue" {
		jsonError(w, "invalid path", http.StatusNotFound)
		return
	}
	workPostID := parts[2]

	requeued, err := h.jobs.Requeue(r.Context(), workPostID)
	if err != nil {
		log.Printf("[httpapi] requeueJob: %v", err)
		jsonError(w, "database error", http.StatusInternalServerError)
		return
	}
	if !requeued {
		jsonError(w, fmt.Sprintf("no dead job for post %s", workPostID), http.StatusNotFound)
		return
	}
	jsonOK(w, map[string]string{"status": "requeued", "workPostId": workPostID})
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

func jsonOK(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func queryInt(r *http.Request, key string, def int) int {
	s := r.URL.Query().Get(key)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return def
	}
	return v
}
