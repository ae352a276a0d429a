package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"memoria_chatbot/internal/core"
	"memoria_chatbot/internal/storage"
	"memoria_chatbot/pkg"

	"github.com/bytedance/sonic"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type fakeResolver struct {
	turn  *core.Turn
	err   error
	panic bool
	seen  []string
	ids   []string
}

func (f *fakeResolver) Resolve(ctx context.Context, message string) (*core.Turn, error) {
	if f.panic {
		panic("boom")
	}
	f.seen = append(f.seen, message)
	f.ids = append(f.ids, core.RequestID(ctx))
	if f.err != nil {
		return nil, f.err
	}
	return f.turn, nil
}

func newTestServer(t *testing.T, resolver Resolver) *Server {
	t.Helper()
	ctx := context.Background()

	backend := storage.NewFileBackend(t.TempDir(), storage.DefaultFiles)
	stores, err := storage.OpenAll(ctx, backend, pkg.CategorySlang, pkg.CategoryAcademic)
	require.NoError(t, err)
	require.NoError(t, stores[pkg.CategoryAcademic].Learn(ctx, "ola", "Olá!"))

	s, err := New(Config{}, resolver, stores, zerolog.Nop())
	require.NoError(t, err)
	return s
}

func sampleTurn() *core.Turn {
	return &core.Turn{
		Message:   "Ola, tudo bem?",
		Key:       "ola tudo bem",
		Category:  pkg.CategoryAcademic,
		Answer:    "Olá! <b>Como</b> posso ajudar?",
		Kind:      pkg.MatchSubstring,
		Persisted: true,
	}
}

func TestIndexForm(t *testing.T) {
	resolver := &fakeResolver{turn: sampleTurn()}
	s := newTestServer(t, resolver)

	t.Run("get renders the empty form", func(t *testing.T) {
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `name="mensagem"`)
		assert.NotContains(t, rec.Body.String(), `class="resposta"`)
		assert.NotEmpty(t, rec.Header().Get(requestIDHeader))
	})

	t.Run("post renders the answer escaped", func(t *testing.T) {
		form := url.Values{"mensagem": {"Ola, tudo bem?"}}
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		body := rec.Body.String()
		assert.Contains(t, body, "Olá! &lt;b&gt;Como&lt;/b&gt; posso ajudar?")
		assert.Contains(t, body, "acadêmica")
		assert.Equal(t, []string{"Ola, tudo bem?"}, resolver.seen)
	})

	t.Run("post without mensagem is a 400", func(t *testing.T) {
		resolver := &fakeResolver{turn: sampleTurn()}
		s := newTestServer(t, resolver)
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("texto=oi"))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Empty(t, resolver.seen)
	})

	t.Run("resolver error is a 500", func(t *testing.T) {
		s := newTestServer(t, &fakeResolver{err: errors.New("graph failed")})
		form := url.Values{"mensagem": {"oi"}}
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})

	t.Run("other methods are rejected", func(t *testing.T) {
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/", nil))
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})
}

func TestMessageAPI(t *testing.T) {
	resolver := &fakeResolver{turn: sampleTurn()}
	s := newTestServer(t, resolver)

	post := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/mensagem", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set(requestIDHeader, "req-42")
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, req)
		return rec
	}

	t.Run("answers", func(t *testing.T) {
		rec := post(`{"mensagem": "Ola, tudo bem?"}`)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "req-42", rec.Header().Get(requestIDHeader))

		var resp messageResponse
		require.NoError(t, sonic.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "Olá! <b>Como</b> posso ajudar?", resp.Resposta)
		assert.Equal(t, "academic", resp.Categoria)
		assert.Equal(t, "acadêmica", resp.Registro)
		assert.Equal(t, "substring", resp.Fonte)
		assert.Equal(t, "ola tudo bem", resp.Chave)
		assert.True(t, resp.Persistido)
		assert.Equal(t, "req-42", resolver.ids[len(resolver.ids)-1])
	})

	t.Run("invalid json", func(t *testing.T) {
		assert.Equal(t, http.StatusBadRequest, post(`{"mensagem": `).Code)
	})

	t.Run("missing message", func(t *testing.T) {
		assert.Equal(t, http.StatusBadRequest, post(`{"texto": "oi"}`).Code)
	})

	t.Run("too large", func(t *testing.T) {
		big := `{"mensagem": "` + strings.Repeat("a", maxBodyBytes) + `"}`
		assert.Equal(t, http.StatusRequestEntityTooLarge, post(big).Code)
	})
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, &fakeResolver{})

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp healthResponse
	require.NoError(t, sonic.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, map[string]int{"slang": 0, "academic": 1}, resp.Stores)
}

func TestRecovery(t *testing.T) {
	s := newTestServer(t, &fakeResolver{panic: true})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/mensagem", strings.NewReader(`{"mensagem": "oi"}`))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestServeShutsDownGracefully(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	s := newTestServer(t, &fakeResolver{turn: sampleTurn()})
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get("http://" + ln.Addr().String() + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	client.CloseIdleConnections()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
