package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"token-ledger-engine/internal/domain"
	"token-ledger-engine/internal/mint"
	"token-ledger-engine/internal/observability"
	"token-ledger-engine/internal/storage"
)

type tokenResponse struct {
	TokenID     string          `json:"token_id"`
	Symbol      string          `json:"symbol"`
	Name        string          `json:"name"`
	Supply      decimal.Decimal `json:"supply"`
	Price       decimal.Decimal `json:"price"`
	Volume24h   decimal.Decimal `json:"volume_24h"`
	HolderCount int             `json:"holder_count"`
	LaunchedAt  int64           `json:"launched_at"`
}

func toTokenResponse(t *domain.Token) tokenResponse {
	return tokenResponse{
		TokenID:     t.TokenID,
		Symbol:      t.Symbol,
		Name:        t.Name,
		Supply:      t.Supply,
		Price:       t.Price,
		Volume24h:   t.Volume24h,
		HolderCount: t.HolderCount,
		LaunchedAt:  t.LaunchedAt,
	}
}

type distributionResponse struct {
	AI      decimal.Decimal `json:"ai"`
	Creator decimal.Decimal `json:"creator"`
	Lucky   decimal.Decimal `json:"lucky"`
	System  decimal.Decimal `json:"system"`
	Public  decimal.Decimal `json:"public"`
}

type eligibilityResponse struct {
	Wallet        string          `json:"wallet"`
	TokenID       string          `json:"token_id"`
	TotalBought   decimal.Decimal `json:"total_bought"`
	TotalSold     decimal.Decimal `json:"total_sold"`
	MaxBuyPct     decimal.Decimal `json:"max_buy_pct"`
	MaxSellPct    decimal.Decimal `json:"max_sell_pct"`
	WhaleStatus   bool            `json:"whale_status"`
	IsEligible    bool            `json:"is_eligible"`
	FlaggedReason *string         `json:"flagged_reason,omitempty"`
}

// handleMint creates a token and its initial supply split.
func (s *Server) handleMint(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name          string          `json:"name"`
		Symbol        string          `json:"symbol"`
		Supply        decimal.Decimal `json:"supply"`
		CreatorWallet string          `json:"creator_wallet"`
		Price         decimal.Decimal `json:"price"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, fmt.Errorf("%w: invalid JSON", storage.ErrInvalidInput))
		return
	}

	start := time.Now()
	res, err := s.minter.Mint(r.Context(), mint.Request{
		Name:          req.Name,
		Symbol:        req.Symbol,
		Supply:        req.Supply,
		CreatorWallet: req.CreatorWallet,
		Price:         req.Price,
	})
	observability.RecordOperation("mint", time.Since(start).Seconds(), err, errorKind(err))
	if err != nil {
		s.writeError(w, err)
		return
	}
	observability.RecordMint()

	s.writeJSON(w, http.StatusCreated, map[string]any{
		"token": toTokenResponse(res.Token),
		"distribution": distributionResponse{
			AI:      res.Distribution.AIAmount,
			Creator: res.Distribution.CreatorAmount,
			Lucky:   res.Distribution.LuckyAmount,
			System:  res.Distribution.SystemAmount,
			Public:  res.Distribution.PublicAmount,
		},
	})
}

// handleTrade records a buy or sell against a token.
func (s *Server) handleTrade(w http.ResponseWriter, r *http.Request) {
	tokenID := chi.URLParam(r, "tokenID")

	var req struct {
		Wallet string          `json:"wallet"`
		Kind   string          `json:"kind"`
		Amount decimal.Decimal `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, fmt.Errorf("%w: invalid JSON", storage.ErrInvalidInput))
		return
	}

	start := time.Now()
	res, err := s.trades.Trade(r.Context(), tokenID, req.Wallet, domain.ActivityKind(req.Kind), req.Amount)
	observability.RecordOperation("trade", time.Since(start).Seconds(), err, errorKind(err))
	if err != nil {
		s.writeError(w, err)
		return
	}
	observability.RecordTrade(req.Kind, res.WhaleFlagged)

	s.writeJSON(w, http.StatusOK, map[string]any{
		"activity_id": res.ActivityID,
		"fees": map[string]decimal.Decimal{
			"creator": res.CreatorFee,
			"system":  res.SystemFee,
		},
		"whale_flagged":  res.WhaleFlagged,
		"pct_of_supply":  res.PctOfSupply,
		"new_volume_24h": res.NewVolume24h,
	})
}

// handleBurn destroys part of a wallet's holding.
func (s *Server) handleBurn(w http.ResponseWriter, r *http.Request) {
	tokenID := chi.URLParam(r, "tokenID")

	var req struct {
		Wallet string          `json:"wallet"`
		Amount decimal.Decimal `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, fmt.Errorf("%w: invalid JSON", storage.ErrInvalidInput))
		return
	}

	start := time.Now()
	res, err := s.trades.Burn(r.Context(), tokenID, req.Wallet, req.Amount)
	observability.RecordOperation("burn", time.Since(start).Seconds(), err, errorKind(err))
	if err != nil {
		s.writeError(w, err)
		return
	}
	observability.RecordBurn()

	s.writeJSON(w, http.StatusOK, map[string]any{
		"activity_id":   res.ActivityID,
		"new_supply":    res.NewSupply,
		"pct_of_supply": res.PctOfSupply,
	})
}

// handleDistributeProfit runs the profit waterfall out of a pool.
func (s *Server) handleDistributeProfit(w http.ResponseWriter, r *http.Request) {
	pool := chi.URLParam(r, "pool")

	var req struct {
		TotalProfit decimal.Decimal `json:"total_profit"`
		TokenID     string          `json:"token_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, fmt.Errorf("%w: invalid JSON", storage.ErrInvalidInput))
		return
	}

	start := time.Now()
	event, err := s.profits.Distribute(r.Context(), pool, req.TokenID, req.TotalProfit)
	observability.RecordOperation("distribute_profit", time.Since(start).Seconds(), err, errorKind(err))
	if err != nil {
		s.writeError(w, err)
		return
	}
	if event.EventID != "" {
		observability.RecordProfitEvent()
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"event_id":            event.EventID,
		"token_id":            event.TokenID,
		"source_pool":         event.SourcePool,
		"sale_amount":         event.SaleAmount,
		"reinvestment_amount": event.ReinvestmentAmount,
		"dao_amount":          event.DAOAmount,
		"lucky_amount":        event.LuckyAmount,
		"creator_amount":      event.CreatorAmount,
		"timestamp":           event.Timestamp,
	})
}

// handleSelectLucky pays one activity-weighted random wallet.
func (s *Server) handleSelectLucky(w http.ResponseWriter, r *http.Request) {
	tokenID := chi.URLParam(r, "tokenID")

	var req struct {
		DistributionAmount decimal.Decimal `json:"distribution_amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, fmt.Errorf("%w: invalid JSON", storage.ErrInvalidInput))
		return
	}

	start := time.Now()
	sel, err := s.selector.Select(r.Context(), tokenID, req.DistributionAmount)
	observability.RecordOperation("select_lucky", time.Since(start).Seconds(), err, errorKind(err))
	if err != nil {
		s.writeError(w, err)
		return
	}
	observability.RecordLuckySelection()

	s.writeJSON(w, http.StatusOK, map[string]any{
		"selection_id":        sel.SelectionID,
		"wallet":              sel.Wallet,
		"token_id":            sel.TokenID,
		"distribution_amount": sel.DistributionAmount,
		"activity_score":      sel.ActivityScore,
		"timestamp":           sel.Timestamp,
	})
}

// handleCheckEligibility reports a wallet's standing for a token.
func (s *Server) handleCheckEligibility(w http.ResponseWriter, r *http.Request) {
	tokenID := chi.URLParam(r, "tokenID")
	wallet := chi.URLParam(r, "wallet")

	rec, err := s.tracker.Check(r.Context(), wallet, tokenID)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, eligibilityResponse{
		Wallet:        rec.Wallet,
		TokenID:       rec.TokenID,
		TotalBought:   rec.TotalBought,
		TotalSold:     rec.TotalSold,
		MaxBuyPct:     rec.MaxBuyPct,
		MaxSellPct:    rec.MaxSellPct,
		WhaleStatus:   rec.WhaleStatus,
		IsEligible:    rec.IsEligible,
		FlaggedReason: rec.FlaggedReason,
	})
}

// handleListTokens lists all tokens.
func (s *Server) handleListTokens(w http.ResponseWriter, r *http.Request) {
	tokens, err := s.ledger.Tokens().List(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}

	out := make([]tokenResponse, 0, len(tokens))
	for _, t := range tokens {
		out = append(out, toTokenResponse(t))
	}
	s.writeJSON(w, http.StatusOK, out)
}

// handleGetToken reads one token.
func (s *Server) handleGetToken(w http.ResponseWriter, r *http.Request) {
	token, err := s.ledger.Tokens().GetByID(r.Context(), chi.URLParam(r, "tokenID"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toTokenResponse(token))
}

// handleGetPool reads one pooled wallet.
func (s *Server) handleGetPool(w http.ResponseWriter, r *http.Request) {
	pool, err := s.ledger.Pools().Get(r.Context(), chi.URLParam(r, "pool"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"name":               pool.Name,
		"balance":            pool.Balance,
		"total_rewards_paid": pool.TotalRewardsPaid,
		"reward_count":       pool.RewardCount,
		"last_reward_at":     pool.LastRewardAt,
	})
}

// errorKind labels an error for metrics.
func errorKind(err error) string {
	if err == nil {
		return ""
	}
	return http.StatusText(statusFor(err))
}
