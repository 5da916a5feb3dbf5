package httpapi

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/shopsage/shopsage/internal/activity"
	"github.com/shopsage/shopsage/internal/models"
)

// turnRequestBody is the wire shape of the Turn-level RPC request (spec §6).
type turnRequestBody struct {
	Phase          models.Phase `json:"phase"`
	Message        string       `json:"message,omitempty"`
	ImageBase64    string       `json:"image_base64,omitempty"`
	CustomerID     string       `json:"customer_id,omitempty"`
	ConversationID string       `json:"conversation_id,omitempty"`
}

func (s *Server) handleTurn(w http.ResponseWriter, r *http.Request) {
	var body turnRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.Phase < models.PhaseDirect || body.Phase > models.PhaseAgentic {
		s.respondError(w, http.StatusBadRequest, "phase must be 1, 2, or 3")
		return
	}

	var imageBytes []byte
	if body.ImageBase64 != "" {
		decoded, err := base64.StdEncoding.DecodeString(body.ImageBase64)
		if err != nil {
			s.respondError(w, http.StatusBadRequest, "invalid image_base64")
			return
		}
		imageBytes = decoded
	}

	req := models.TurnRequest{
		Phase:          body.Phase,
		Message:        body.Message,
		ImageBytes:     imageBytes,
		CustomerID:     body.CustomerID,
		ConversationID: body.ConversationID,
	}

	var sink activity.Sink
	if sub := s.streams.attachFromRequest(r); sub != nil {
		sink = sub
	}

	result, err := s.orchestrator.HandleTurn(r.Context(), req, sink)
	if err != nil {
		s.logger.Error("turn handling failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, result)
}

// orderRequestBody is the wire shape of the Order RPC request (spec §6).
type orderRequestBody struct {
	ProductID string       `json:"product_id"`
	Size      string       `json:"size,omitempty"`
	Quantity  int          `json:"quantity"`
	Phase     models.Phase `json:"phase"`
}

func (s *Server) handleOrder(w http.ResponseWriter, r *http.Request) {
	var body orderRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.ProductID == "" || body.Quantity < 1 {
		s.respondError(w, http.StatusBadRequest, "product_id is required and quantity must be >= 1")
		return
	}

	// The Order RPC always runs agentic: Worker: Order's pricing and
	// inventory checks are only reachable through the Supervisor dispatch
	// path, regardless of which phase the caller named.
	result, err := s.orchestrator.HandleTurn(r.Context(), models.TurnRequest{
		Phase:      models.PhaseAgentic,
		Message:    orderMessage(body.ProductID, body.Size, body.Quantity),
		CustomerID: r.Header.Get("X-Customer-ID"),
	}, nil)
	if err != nil {
		s.logger.Error("order handling failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, result)
}

func orderMessage(productID, size string, quantity int) string {
	msg := "order " + strconv.Itoa(quantity) + " of " + productID
	if size != "" {
		msg += " size " + size
	}
	return msg
}

// handleStream implements the streaming-trace RPC (spec §6): a server-push
// channel of ActivityEvent records for one turn_id. A caller opens this
// before posting the turn so no events are missed; handleTurn looks up the
// subscription by the turn_id query parameter the client supplied.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	turnID := chi.URLParam(r, "turn_id")
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.respondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	sub := s.streams.subscribe(turnID)
	defer s.streams.unsubscribe(turnID)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case ev, ok := <-sub.Events():
			if !ok {
				return
			}
			data, err := json.Marshal(ev)
			if err != nil {
				continue
			}
			_, _ = w.Write([]byte("data: "))
			_, _ = w.Write(data)
			_, _ = w.Write([]byte("\n\n"))
			flusher.Flush()
		case <-r.Context().Done():
			return
		}
	}
}

// streamRegistry maps turn_id to the ChannelSink a client subscribed before
// the turn started, so handleTurn can find it and pass it to the
// Orchestrator as the streaming sink.
type streamRegistry struct {
	mu   sync.Mutex
	subs map[string]*activity.ChannelSink
}

func newStreamRegistry() *streamRegistry {
	return &streamRegistry{subs: make(map[string]*activity.ChannelSink)}
}

func (r *streamRegistry) subscribe(turnID string) *activity.ChannelSink {
	sink := activity.NewChannelSink(64)
	r.mu.Lock()
	r.subs[turnID] = sink
	r.mu.Unlock()
	return sink
}

func (r *streamRegistry) unsubscribe(turnID string) {
	r.mu.Lock()
	sink, ok := r.subs[turnID]
	delete(r.subs, turnID)
	r.mu.Unlock()
	if ok {
		sink.Close()
	}
}

// attachFromRequest looks up a pre-registered subscription by the
// "stream_turn_id" query parameter, so a caller that opened a stream before
// posting the turn gets its events pushed through it.
func (r *streamRegistry) attachFromRequest(req *http.Request) *activity.ChannelSink {
	turnID := req.URL.Query().Get("stream_turn_id")
	if turnID == "" {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.subs[turnID]
}
