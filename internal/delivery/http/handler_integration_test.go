package http

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/pharmaprocure/backend/config"
	"github.com/pharmaprocure/backend/internal/domain"
	"github.com/pharmaprocure/backend/internal/infrastructure/cache"
	"github.com/pharmaprocure/backend/internal/infrastructure/sqlite"
	"github.com/pharmaprocure/backend/internal/usecase"
)

// TestMain sets up test environment before running tests
func TestMain(m *testing.M) {
	// Set Gin to test mode once for all tests
	gin.SetMode(gin.TestMode)
	zerolog.SetGlobalLevel(zerolog.Disabled)

	os.Exit(m.Run())
}

// setupTestRouter wires the full stack over an in-memory database.
func setupTestRouter(t *testing.T) *gin.Engine {
	t.Helper()

	cfg := &config.Config{
		Server: config.ServerConfig{
			Port:           "8080",
			Environment:    "test",
			AllowedOrigins: []string{"*"},
		},
		Database: config.DatabaseConfig{Path: ":memory:"},
		Matching: config.MatchingConfig{
			CutoffTokenSort:  85,
			CutoffTokenSet:   85,
			CutoffPartial:    90,
			ScoreTolerance:   3,
			ConfidenceHigh:   95,
			ConfidenceMedium: 85,
		},
		Simplifier: config.SimplifierConfig{NoisePatterns: config.DefaultNoisePatterns},
		RateLimit:  config.RateLimitConfig{PerIP: 0},
	}

	db, err := sqlite.Open(cfg.Database.Path)
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	catalogRepo := sqlite.NewCatalogRepo(db)
	aliasRepo := sqlite.NewAliasRepo(db)
	offerRepo := sqlite.NewOfferRepo(db)

	simplifier, err := usecase.NewNameSimplifier(cfg.Simplifier.NoisePatterns)
	if err != nil {
		t.Fatalf("build simplifier: %v", err)
	}

	matcher := usecase.NewMatchingService(usecase.MatchConfig{
		CutoffTokenSort:  cfg.Matching.CutoffTokenSort,
		CutoffTokenSet:   cfg.Matching.CutoffTokenSet,
		CutoffPartial:    cfg.Matching.CutoffPartial,
		ScoreTolerance:   cfg.Matching.ScoreTolerance,
		ConfidenceHigh:   cfg.Matching.ConfidenceHigh,
		ConfidenceMedium: cfg.Matching.ConfidenceMedium,
	}, aliasRepo)

	procurement := usecase.NewProcurementService(
		catalogRepo, offerRepo, aliasRepo,
		matcher, usecase.NewCostService(), simplifier,
		cache.NewSnapshotCache(time.Minute),
	)

	return SetupRouter(cfg, NewHandler(procurement))
}

// uploadRequest builds a multipart request carrying one CSV file plus extra
// form fields.
func uploadRequest(t *testing.T, url, csvContent string, fields map[string]string) *http.Request {
	t.Helper()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("write field %s: %v", k, err)
		}
	}
	part, err := w.CreateFormFile("file", "upload.csv")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write([]byte(csvContent)); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	req := httptest.NewRequest("POST", url, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

const catalogCSV = `Item Code,Product Name,Dosage,Pack Size,Standard Cost
PCM500,"PARACETAMOL BP 500MG TABLETS, BLISTER PACK 100'S",500MG,10x10,10.0
AMX250,AMOXICILLIN 250MG CAPSULES,250MG,10,20.0
`

const offersCSV = `Item Description,Pack,Bonus,Unit Price
PARACETAMOL TABLETS 500MG,10x10,10+2,50.00
MYSTERY TONIC ELIXIR,1,,5.00
`

func importCatalog(t *testing.T, router *gin.Engine) {
	t.Helper()
	w := httptest.NewRecorder()
	router.ServeHTTP(w, uploadRequest(t, "/api/v1/catalog/import", catalogCSV, nil))
	if w.Code != http.StatusOK {
		t.Fatalf("catalog import status = %d, body: %s", w.Code, w.Body.String())
	}
}

func importOffers(t *testing.T, router *gin.Engine) {
	t.Helper()
	w := httptest.NewRecorder()
	router.ServeHTTP(w, uploadRequest(t, "/api/v1/offers/import", offersCSV, map[string]string{
		"supplier_name": "Gulf Pharma",
	}))
	if w.Code != http.StatusOK {
		t.Fatalf("offers import status = %d, body: %s", w.Code, w.Body.String())
	}
}

func TestHealthCheckEndpoint(t *testing.T) {
	t.Run("returns healthy status", func(t *testing.T) {
		router := setupTestRouter(t)

		req := httptest.NewRequest("GET", "/health", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusOK)
		}

		var response map[string]interface{}
		if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
			t.Fatalf("Failed to unmarshal response: %v", err)
		}
		if response["status"] != "healthy" {
			t.Errorf("status = %v, want healthy", response["status"])
		}
		if response["service"] != "pharmaprocure-backend" {
			t.Errorf("service = %v, want pharmaprocure-backend", response["service"])
		}
	})
}

func TestCatalogImportEndpoint(t *testing.T) {
	t.Run("creates entries from csv", func(t *testing.T) {
		router := setupTestRouter(t)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, uploadRequest(t, "/api/v1/catalog/import", catalogCSV, nil))

		if w.Code != http.StatusOK {
			t.Fatalf("Status = %d, body: %s", w.Code, w.Body.String())
		}
		var response map[string]float64
		if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
			t.Fatalf("Failed to unmarshal response: %v", err)
		}
		if response["created"] != 2 || response["skipped"] != 0 {
			t.Errorf("created/skipped = %v/%v, want 2/0", response["created"], response["skipped"])
		}
	})

	t.Run("rejects csv without usable columns", func(t *testing.T) {
		router := setupTestRouter(t)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, uploadRequest(t, "/api/v1/catalog/import", "a,b\n1,2\n", nil))

		if w.Code != http.StatusBadRequest {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusBadRequest)
		}
	})

	t.Run("rejects missing file", func(t *testing.T) {
		router := setupTestRouter(t)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest("POST", "/api/v1/catalog/import", nil))

		if w.Code != http.StatusBadRequest {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusBadRequest)
		}
	})
}

func TestMatchPreviewEndpoint(t *testing.T) {
	t.Run("matches against imported catalog", func(t *testing.T) {
		router := setupTestRouter(t)
		importCatalog(t, router)

		payload := `{"rawName":"PARACETAMOL TABLETS 500MG","price":50,"packSizeText":"10x10","bonusText":"10+2"}`
		req := httptest.NewRequest("POST", "/api/v1/match", strings.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("Status = %d, body: %s", w.Code, w.Body.String())
		}

		var response struct {
			Match *domain.MatchResult `json:"match"`
			Cost  domain.CostResult   `json:"cost"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
			t.Fatalf("Failed to unmarshal response: %v", err)
		}
		if response.Match == nil {
			t.Fatal("match = nil, want a result")
		}
		if response.Match.CatalogEntryID != 1 {
			t.Errorf("CatalogEntryID = %d, want 1", response.Match.CatalogEntryID)
		}
		if !strings.Contains(response.Match.MatchName, "PARACETAMOL") {
			t.Errorf("MatchName = %q, want the paracetamol entry", response.Match.MatchName)
		}
		if response.Match.Confidence != domain.ConfidenceHigh {
			t.Errorf("Confidence = %q, want High", response.Match.Confidence)
		}
		// 50 * 10/12 = 41.6667 per pack, /100 units = 0.4167
		if response.Cost.NormalizedUnitCost != 0.4167 {
			t.Errorf("NormalizedUnitCost = %v, want 0.4167", response.Cost.NormalizedUnitCost)
		}
	})

	t.Run("returns null match for unknown product", func(t *testing.T) {
		router := setupTestRouter(t)
		importCatalog(t, router)

		payload := `{"rawName":"MYSTERY TONIC ELIXIR","price":5}`
		req := httptest.NewRequest("POST", "/api/v1/match", strings.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("Status = %d, body: %s", w.Code, w.Body.String())
		}
		var response struct {
			Match *domain.MatchResult `json:"match"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
			t.Fatalf("Failed to unmarshal response: %v", err)
		}
		if response.Match != nil {
			t.Errorf("match = %+v, want nil", response.Match)
		}
	})

	t.Run("rejects blank name", func(t *testing.T) {
		router := setupTestRouter(t)

		req := httptest.NewRequest("POST", "/api/v1/match", strings.NewReader(`{"price":5}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusBadRequest)
		}
	})
}

func TestOfferImportFlow(t *testing.T) {
	router := setupTestRouter(t)
	importCatalog(t, router)
	importOffers(t, router)

	t.Run("import summary counts matches", func(t *testing.T) {
		// Re-import the same list: previous rows move to history.
		w := httptest.NewRecorder()
		router.ServeHTTP(w, uploadRequest(t, "/api/v1/offers/import", offersCSV, map[string]string{
			"supplier_name": "Gulf Pharma",
		}))
		if w.Code != http.StatusOK {
			t.Fatalf("Status = %d, body: %s", w.Code, w.Body.String())
		}

		var summary usecase.ImportSummary
		if err := json.Unmarshal(w.Body.Bytes(), &summary); err != nil {
			t.Fatalf("Failed to unmarshal response: %v", err)
		}
		if summary.Total != 2 || summary.Matched != 1 || summary.Unmatched != 1 {
			t.Errorf("summary = %+v, want total 2, matched 1, unmatched 1", summary)
		}
		if summary.Archived != 2 {
			t.Errorf("Archived = %d, want 2 rows from the previous import", summary.Archived)
		}
	})

	t.Run("requires supplier name", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, uploadRequest(t, "/api/v1/offers/import", offersCSV, nil))
		if w.Code != http.StatusBadRequest {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusBadRequest)
		}
	})
}

func TestUnmatchedReviewAndLinking(t *testing.T) {
	router := setupTestRouter(t)
	importCatalog(t, router)
	importOffers(t, router)

	// The tonic has no catalog counterpart, so it lands in review.
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/offers/unmatched", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("unmatched status = %d, body: %s", w.Code, w.Body.String())
	}

	var unmatched struct {
		Offers []domain.SupplierOffer `json:"offers"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &unmatched); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if len(unmatched.Offers) != 1 {
		t.Fatalf("unmatched offers = %d, want 1", len(unmatched.Offers))
	}
	if unmatched.Offers[0].RawProductName != "MYSTERY TONIC ELIXIR" {
		t.Errorf("RawProductName = %q, want MYSTERY TONIC ELIXIR", unmatched.Offers[0].RawProductName)
	}

	// Search the catalog for a linking target.
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/catalog/search?q=AMOX", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("search status = %d, body: %s", w.Code, w.Body.String())
	}
	var search struct {
		Entries []domain.CatalogEntry `json:"entries"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &search); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if len(search.Entries) != 1 {
		t.Fatalf("search entries = %d, want 1", len(search.Entries))
	}

	// Confirm the link.
	body, _ := json.Marshal(map[string]int64{
		"offerId":        unmatched.Offers[0].ID,
		"catalogEntryId": search.Entries[0].ID,
	})
	req := httptest.NewRequest("POST", "/api/v1/aliases", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("link status = %d, body: %s", w.Code, w.Body.String())
	}

	// The review queue is now empty.
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/offers/unmatched", nil))
	if err := json.Unmarshal(w.Body.Bytes(), &unmatched); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if len(unmatched.Offers) != 0 {
		t.Errorf("unmatched offers after linking = %d, want 0", len(unmatched.Offers))
	}

	t.Run("linking unknown offer returns 404", func(t *testing.T) {
		body, _ := json.Marshal(map[string]int64{"offerId": 9999, "catalogEntryId": search.Entries[0].ID})
		req := httptest.NewRequest("POST", "/api/v1/aliases", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		if w.Code != http.StatusNotFound {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusNotFound)
		}
	})
}

func TestCompareOffersEndpoint(t *testing.T) {
	router := setupTestRouter(t)
	importCatalog(t, router)
	importOffers(t, router)

	// A second supplier for the same product, cheaper per unit.
	secondList := "Item Description,Pack,Bonus,Unit Price\nPARACETAMOL 500MG TABLETS,10x10,,30.00\n"
	w := httptest.NewRecorder()
	router.ServeHTTP(w, uploadRequest(t, "/api/v1/offers/import", secondList, map[string]string{
		"supplier_name": "Delta Med",
	}))
	if w.Code != http.StatusOK {
		t.Fatalf("second import status = %d, body: %s", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/catalog/1/offers", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("compare status = %d, body: %s", w.Code, w.Body.String())
	}

	var compare struct {
		Offers []domain.SupplierOffer `json:"offers"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &compare); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if len(compare.Offers) != 2 {
		t.Fatalf("offers = %d, want 2", len(compare.Offers))
	}
	// Delta Med: 30/100 = 0.3 per unit beats Gulf Pharma's 0.4167.
	if compare.Offers[0].SupplierName != "Delta Med" {
		t.Errorf("cheapest supplier = %q, want Delta Med", compare.Offers[0].SupplierName)
	}
	if compare.Offers[0].NormalizedCost >= compare.Offers[1].NormalizedCost {
		t.Errorf("offers not sorted by normalized cost: %v then %v",
			compare.Offers[0].NormalizedCost, compare.Offers[1].NormalizedCost)
	}

	t.Run("invalid id returns 400", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/catalog/abc/offers", nil))
		if w.Code != http.StatusBadRequest {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusBadRequest)
		}
	})
}
