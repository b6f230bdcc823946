package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"

	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/history"
)

const emptyMessage = "No recommendations available."

type resultResponse struct {
	Strategy string                `json:"strategy"`
	Items    []core.ProductSummary `json:"items"`
	Message  string                `json:"message,omitempty"`
}

func toResponse(rs core.ResultSet) resultResponse {
	resp := resultResponse{Strategy: rs.Strategy, Items: rs.Items}
	if resp.Items == nil {
		resp.Items = []core.ProductSummary{}
	}
	if rs.Empty() {
		resp.Message = emptyMessage
	}
	return resp
}

type productResponse struct {
	Product core.ProductSummary `json:"product"`
	Similar resultResponse      `json:"similar"`
}

type historyResponse struct {
	UserID  string          `json:"user_id"`
	Entries []history.Entry `json:"entries"`
}

type recordViewRequest struct {
	ProductID string `json:"product_id"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "ok",
		"products": s.engine.Catalog().Len(),
	})
}

func (s *Server) handleTrending(w http.ResponseWriter, r *http.Request) {
	n, err := queryInt(r, "n")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	rs, err := s.engine.Trending(r.Context(), n)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toResponse(rs))
}

// handleProduct 返回商品详情与相似商品；带 X-User-ID 时记录浏览。
func (s *Server) handleProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	productID := chi.URLParam(r, "productID")

	p, err := s.engine.Product(ctx, productID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if userID := userFromHeader(r); userID != "" {
		if err := s.engine.RecordView(ctx, userID, productID); err != nil {
			s.log.Warn("record view failed", "user_id", userID, "product_id", productID, "error", err)
		}
	}
	rs, err := s.engine.OnProductClick(ctx, productID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, productResponse{Product: p, Similar: toResponse(rs)})
}

// handleRecommendations 按名称搜索；带 X-User-ID 时走混合推荐。
func (s *Server) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	name, err := requiredQuery(r, "name")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	n, err := queryInt(r, "n")
	if err != nil {
		s.fail(w, r, err)
		return
	}

	var rs core.ResultSet
	if userID := userFromHeader(r); userID != "" {
		rs, err = s.engine.Hybrid(r.Context(), userID, name, n)
	} else {
		rs, err = s.engine.SimilarProducts(r.Context(), name, n)
	}
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toResponse(rs))
}

func (s *Server) handleUserRecommendations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := chi.URLParam(r, "userID")
	n, err := queryInt(r, "n")
	if err != nil {
		s.fail(w, r, err)
		return
	}

	var rs core.ResultSet
	switch strategy := chi.URLParam(r, "strategy"); strategy {
	case "browsing", "content":
		rs, err = s.engine.ContentBased(ctx, userID, n)
	case "collaborative":
		rs, err = s.engine.Collaborative(ctx, userID, n)
	case "hybrid":
		var name string
		if name, err = requiredQuery(r, "name"); err == nil {
			rs, err = s.engine.Hybrid(ctx, userID, name, n)
		}
	default:
		err = core.InvalidInput(core.ModuleEngine, "unknown strategy "+strconv.Quote(strategy))
	}
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toResponse(rs))
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	n, err := queryInt(r, "n")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	entries, err := s.engine.History(r.Context(), userID, n)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if entries == nil {
		entries = []history.Entry{}
	}
	writeJSON(w, http.StatusOK, historyResponse{UserID: userID, Entries: entries})
}

func (s *Server) handleRecordView(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	var req recordViewRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&req); err != nil {
		s.fail(w, r, core.InvalidInput(core.ModuleHistory, "invalid JSON body"))
		return
	}
	if strings.TrimSpace(req.ProductID) == "" {
		s.fail(w, r, core.InvalidInput(core.ModuleHistory, "product_id is required"))
		return
	}
	if err := s.engine.RecordView(r.Context(), userID, req.ProductID); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"user_id": userID, "product_id": req.ProductID})
}

func userFromHeader(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get(UserHeader))
}

func requiredQuery(r *http.Request, key string) (string, error) {
	v := strings.TrimSpace(r.URL.Query().Get(key))
	if v == "" {
		return "", core.InvalidInput(core.ModuleEngine, key+" is required")
	}
	return v, nil
}

// queryInt 解析非负整数参数；缺省为 0（即使用默认值）。
func queryInt(r *http.Request, key string) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, core.InvalidInput(core.ModuleEngine, key+" must be a non-negative integer")
	}
	return n, nil
}
