package server

import (
	"io"
	"net/http"
	"strings"

	"memoria_chatbot/internal/core"

	"github.com/bytedance/sonic"
)

const maxBodyBytes = 64 << 10

type pageData struct {
	Mensagem string
	Resposta string
	Registro string
}

type messageRequest struct {
	Mensagem string `json:"mensagem"`
}

type messageResponse struct {
	Resposta   string `json:"resposta"`
	Categoria  string `json:"categoria"`
	Registro   string `json:"registro"`
	Fonte      string `json:"fonte"`
	Chave      string `json:"chave"`
	Resultado  string `json:"resultado,omitempty"`
	Persistido bool   `json:"persistido"`
}

type healthResponse struct {
	Status string         `json:"status"`
	Stores map[string]int `json:"stores"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	data := pageData{}

	if r.Method == http.MethodPost {
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Formulário inválido", http.StatusBadRequest)
			return
		}

		if !r.PostForm.Has("mensagem") {
			http.Error(w, "Campo mensagem ausente", http.StatusBadRequest)
			return
		}
		data.Mensagem = r.PostForm.Get("mensagem")
		turn, err := s.resolver.Resolve(r.Context(), data.Mensagem)
		if err != nil {
			s.log.Error().Err(err).Str("request_id", core.RequestID(r.Context())).Msg("Failed to resolve message")
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		data.Resposta = turn.Answer
		if turn.Category != "" {
			data.Registro = turn.Category.Label()
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.page.Execute(w, data); err != nil {
		s.log.Error().Err(err).Msg("Failed to render page")
	}
}

func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		s.writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Error: "request body too large"})
		return
	}

	var req messageRequest
	if err := sonic.Unmarshal(body, &req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON"})
		return
	}
	if strings.TrimSpace(req.Mensagem) == "" {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "mensagem is required"})
		return
	}

	turn, err := s.resolver.Resolve(r.Context(), req.Mensagem)
	if err != nil {
		s.log.Error().Err(err).Str("request_id", core.RequestID(r.Context())).Msg("Failed to resolve message")
		s.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to resolve message"})
		return
	}

	resp := messageResponse{
		Resposta:   turn.Answer,
		Categoria:  string(turn.Category),
		Fonte:      string(turn.Kind),
		Chave:      turn.Key,
		Resultado:  string(turn.Outcome),
		Persistido: turn.Persisted,
	}
	if turn.Category != "" {
		resp.Registro = turn.Category.Label()
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok", Stores: make(map[string]int, len(s.stores))}
	for cat, store := range s.stores {
		resp.Stores[string(cat)] = store.Len()
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := sonic.ConfigDefault.Marshal(v)
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to encode response")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	w.Write(data)
}
