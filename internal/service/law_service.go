package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/rs/zerolog"

	"github.com/law-cbt/cbt-backend/internal/config"
	"github.com/law-cbt/cbt-backend/internal/repository"
)

// Law proxy errors.
var (
	ErrLawIDRequired  = errors.New("law id is required")
	ErrLawUnavailable = errors.New("law text unavailable")
)

// UpstreamError carries a non-2xx upstream status so the handler can
// mirror it to the client.
type UpstreamError struct {
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream returned %d", e.Status)
}

// LawDocument is the decoded statute payload. Unknown upstream fields
// are ignored; only the structure needed for anchor lookup is kept.
type LawDocument struct {
	LawID    string       `json:"lawId"`
	Name     string       `json:"lawName"`
	Articles []LawArticle `json:"articles"`
}

type LawArticle struct {
	Article    int            `json:"article"`
	Caption    string         `json:"caption"`
	Paragraphs []LawParagraph `json:"paragraphs"`
}

type LawParagraph struct {
	Paragraph int       `json:"paragraph"`
	Items     []LawItem `json:"items"`
}

type LawItem struct {
	Item int `json:"item"`
}

type cachedLaw struct {
	raw []byte
	doc *LawDocument
}

// LawService proxies statute fetches to the upstream law API and keeps
// a bounded, expiring cache of fetched documents. The displayed law is
// tracked so notes can tell whether a jump needs a document switch.
type LawService struct {
	cfg       *config.Config
	stateRepo *repository.StateRepository
	client    *http.Client
	cache     *expirable.LRU[string, cachedLaw]
	log       zerolog.Logger
}

func NewLawService(cfg *config.Config, stateRepo *repository.StateRepository, log zerolog.Logger) *LawService {
	return &LawService{
		cfg:       cfg,
		stateRepo: stateRepo,
		client:    &http.Client{Timeout: cfg.LawFetchTimeout},
		cache:     expirable.NewLRU[string, cachedLaw](cfg.LawCacheSize, nil, cfg.LawCacheTTL),
		log:       log.With().Str("component", "law_service").Logger(),
	}
}

// Fetch returns the raw upstream JSON for lawID, serving from cache
// when possible. A cache miss that fails upstream leaves any
// previously cached entry untouched.
func (s *LawService) Fetch(ctx context.Context, lawID string) (json.RawMessage, error) {
	if lawID == "" {
		return nil, ErrLawIDRequired
	}

	if entry, ok := s.cache.Get(lawID); ok {
		s.trackCurrent(ctx, lawID, entry.doc)
		return entry.raw, nil
	}

	raw, err := s.fetchUpstream(ctx, lawID)
	if err != nil {
		return nil, err
	}

	entry := cachedLaw{raw: raw, doc: decodeLawDocument(raw)}
	s.cache.Add(lawID, entry)
	s.trackCurrent(ctx, lawID, entry.doc)
	return raw, nil
}

func (s *LawService) fetchUpstream(ctx context.Context, lawID string) ([]byte, error) {
	u := fmt.Sprintf("%s/api?lawId=%s", strings.TrimRight(s.cfg.LawAPIBaseURL, "/"), url.QueryEscape(lawID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLawUnavailable, err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLawUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLawUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		s.log.Warn().Int("status", resp.StatusCode).Str("law_id", lawID).Msg("Upstream law fetch failed")
		return nil, &UpstreamError{Status: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}

// trackCurrent persists the displayed law so a restart can restore it.
func (s *LawService) trackCurrent(ctx context.Context, lawID string, doc *LawDocument) {
	name := lawID
	if doc != nil && doc.Name != "" {
		name = doc.Name
	}
	if err := s.stateRepo.Set(ctx, repository.KeyLastLawID, lawID); err != nil {
		s.log.Warn().Err(err).Msg("Failed to persist current law id")
		return
	}
	if err := s.stateRepo.Set(ctx, repository.KeyLastLawName, name); err != nil {
		s.log.Warn().Err(err).Msg("Failed to persist current law name")
	}
}

// Current returns the persisted displayed law id and name.
func (s *LawService) Current(ctx context.Context) (string, string, error) {
	id, _, err := s.stateRepo.Get(ctx, repository.KeyLastLawID)
	if err != nil {
		return "", "", err
	}
	name, _, err := s.stateRepo.Get(ctx, repository.KeyLastLawName)
	if err != nil {
		return "", "", err
	}
	return id, name, nil
}

// AnchorExists reports whether the given DOM anchor resolves inside
// the law's document structure. The document is fetched (or served
// from cache) on demand.
func (s *LawService) AnchorExists(ctx context.Context, lawID, anchor string) (bool, error) {
	if _, err := s.Fetch(ctx, lawID); err != nil {
		return false, err
	}
	entry, ok := s.cache.Get(lawID)
	if !ok || entry.doc == nil {
		return false, nil
	}

	article, paragraph, item, ok := parseAnchor(anchor)
	if !ok {
		return false, nil
	}

	for _, a := range entry.doc.Articles {
		if a.Article != article {
			continue
		}
		if paragraph == 0 && item == 0 {
			return true, nil
		}
		for _, p := range a.Paragraphs {
			if paragraph > 0 && p.Paragraph != paragraph {
				continue
			}
			if item == 0 {
				return true, nil
			}
			for _, it := range p.Items {
				if it.Item == item {
					return true, nil
				}
			}
		}
		return false, nil
	}
	return false, nil
}

// decodeLawDocument parses the upstream payload tolerantly. A payload
// that does not match the expected shape still proxies fine; it just
// cannot answer anchor lookups.
func decodeLawDocument(raw []byte) *LawDocument {
	doc := &LawDocument{}
	if err := json.Unmarshal(raw, doc); err != nil {
		return nil
	}
	return doc
}

// parseAnchor decomposes the DOM anchor forms: "top-article-5",
// "5-paragraph-2", "5-paragraph-2-item-3", "5-item-3".
func parseAnchor(anchor string) (article, paragraph, item int, ok bool) {
	if rest, found := strings.CutPrefix(anchor, "top-article-"); found {
		n, err := strconv.Atoi(rest)
		if err != nil || n <= 0 {
			return 0, 0, 0, false
		}
		return n, 0, 0, true
	}

	parts := strings.Split(anchor, "-")
	if len(parts) == 0 {
		return 0, 0, 0, false
	}
	n, err := strconv.Atoi(parts[0])
	if err != nil || n <= 0 {
		return 0, 0, 0, false
	}
	article = n

	for i := 1; i+1 < len(parts); i += 2 {
		v, err := strconv.Atoi(parts[i+1])
		if err != nil {
			return 0, 0, 0, false
		}
		switch parts[i] {
		case "paragraph":
			paragraph = v
		case "item":
			item = v
		default:
			return 0, 0, 0, false
		}
	}
	return article, paragraph, item, true
}
