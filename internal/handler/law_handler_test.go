package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/law-cbt/cbt-backend/internal/config"
	"github.com/law-cbt/cbt-backend/internal/database"
	"github.com/law-cbt/cbt-backend/internal/repository"
	"github.com/law-cbt/cbt-backend/internal/service"
)

func newLawRouter(t *testing.T, upstream http.HandlerFunc) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.NewSQLiteInMemory()
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	srv := httptest.NewServer(upstream)
	t.Cleanup(srv.Close)

	cfg := &config.Config{
		LawAPIBaseURL:   srv.URL,
		LawFetchTimeout: 5 * time.Second,
		LawCacheSize:    4,
		LawCacheTTL:     time.Minute,
	}
	lawService := service.NewLawService(cfg, repository.NewStateRepository(db), zerolog.Nop())
	h := NewLawHandler(lawService)

	router := gin.New()
	router.GET("/laws", h.GetLaw)
	router.GET("/laws/current", h.GetCurrent)
	return router
}

func TestGetLawWithoutIDReturnsNoContent(t *testing.T) {
	router := newLawRouter(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("upstream must not be called without a law id")
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/laws", nil))

	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", rec.Code)
	}
	if rec.Body.Len() != 0 {
		t.Errorf("body = %q, want empty", rec.Body.String())
	}
}

func TestGetLawProxiesUpstreamVerbatim(t *testing.T) {
	payload := `{"lawId":"CONST","lawName":"日本国憲法"}`
	router := newLawRouter(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(payload))
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/laws?lawId=CONST", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if rec.Body.String() != payload {
		t.Errorf("body = %q, want upstream payload verbatim", rec.Body.String())
	}
}

func TestGetLawMirrorsUpstreamFailure(t *testing.T) {
	router := newLawRouter(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"message":"unknown law"}`))
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/laws?lawId=NOPE", nil))

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want mirrored 404", rec.Code)
	}
	if body := rec.Body.String(); body != `{"error":"{\"message\":\"unknown law\"}"}` {
		t.Errorf("body = %s", body)
	}
}

func TestGetCurrentBeforeAnyFetch(t *testing.T) {
	router := newLawRouter(t, func(w http.ResponseWriter, r *http.Request) {})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/laws/current", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}
