package httpserver

import (
	"errors"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/fullcount-labs/fullcount/internal/engine"
	"github.com/fullcount-labs/fullcount/internal/ledger"
	"github.com/fullcount-labs/fullcount/internal/settlement"
	"github.com/fullcount-labs/fullcount/pkg/types"
)

// MarketScheduler hands a freshly created market to the oracle automation.
type MarketScheduler interface {
	ScheduleMarket(marketID string) error
}

type handler struct {
	engine           *engine.Engine
	ledger           *ledger.Ledger
	settlement       *settlement.Tracker
	scheduler        MarketScheduler
	defaultLiquidity float64
	logger           *zap.Logger
}

type createMarketRequest struct {
	GameID    string  `json:"game_id"`
	Question  string  `json:"question"`
	Liquidity float64 `json:"liquidity"` // 0 means the configured default
}

type tradeRequest struct {
	Bettor     string  `json:"bettor"`
	Outcome    string  `json:"outcome"`
	ShareDelta float64 `json:"share_delta"`
}

type resolveRequest struct {
	Outcome string `json:"outcome"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *handler) createMarket(w http.ResponseWriter, r *http.Request) {
	var req createMarketRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeBadRequest(w, "malformed request body")
		return
	}

	b := req.Liquidity
	if b == 0 {
		b = h.defaultLiquidity
	}

	market, err := h.engine.CreateMarket(req.GameID, req.Question, b)
	if err != nil {
		// The only failure mode is an unusable liquidity parameter.
		h.writeBadRequest(w, err.Error())
		return
	}

	// An exhausted outcome schedule fails the request loud; the oracle never
	// invents outcomes for markets it cannot resolve.
	if h.scheduler != nil {
		if err := h.scheduler.ScheduleMarket(market.ID); err != nil {
			h.writeError(w, err)
			return
		}
	}

	h.writeJSON(w, http.StatusCreated, market)
}

func (h *handler) listMarkets(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, h.engine.List())
}

func (h *handler) getMarket(w http.ResponseWriter, r *http.Request) {
	market, err := h.engine.Get(chi.URLParam(r, "marketID"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, market)
}

func (h *handler) getQuote(w http.ResponseWriter, r *http.Request) {
	quote, err := h.engine.Quote(chi.URLParam(r, "marketID"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, quote)
}

func (h *handler) getPositions(w http.ResponseWriter, r *http.Request) {
	marketID := chi.URLParam(r, "marketID")
	if _, err := h.engine.Get(marketID); err != nil {
		h.writeError(w, err)
		return
	}

	positions := h.ledger.Snapshot(marketID)

	if raw := r.URL.Query().Get("bettor"); raw != "" {
		if !common.IsHexAddress(raw) {
			h.writeBadRequest(w, "invalid bettor address")
			return
		}
		bettor := common.HexToAddress(raw)
		filtered := positions[:0]
		for _, pos := range positions {
			if pos.Bettor == bettor {
				filtered = append(filtered, pos)
			}
		}
		positions = filtered
	}

	h.writeJSON(w, http.StatusOK, positions)
}

func (h *handler) getResolution(w http.ResponseWriter, r *http.Request) {
	result, err := h.engine.Resolution(chi.URLParam(r, "marketID"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

func (h *handler) applyTrade(w http.ResponseWriter, r *http.Request) {
	var req tradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeBadRequest(w, "malformed request body")
		return
	}
	if !common.IsHexAddress(req.Bettor) {
		h.writeBadRequest(w, "invalid bettor address")
		return
	}

	receipt, err := h.engine.ApplyTrade(
		chi.URLParam(r, "marketID"),
		common.HexToAddress(req.Bettor),
		types.Outcome(req.Outcome),
		req.ShareDelta,
	)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, receipt)
}

func (h *handler) openMarket(w http.ResponseWriter, r *http.Request) {
	market, err := h.engine.Open(chi.URLParam(r, "marketID"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, market)
}

func (h *handler) closeMarket(w http.ResponseWriter, r *http.Request) {
	market, err := h.engine.Close(chi.URLParam(r, "marketID"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, market)
}

func (h *handler) resolveMarket(w http.ResponseWriter, r *http.Request) {
	var req resolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeBadRequest(w, "malformed request body")
		return
	}

	result, err := h.engine.Resolve(chi.URLParam(r, "marketID"), types.Outcome(req.Outcome))
	if err != nil {
		h.writeError(w, err)
		return
	}

	// Settlement runs strictly after the resolution has committed. A failed
	// payout never reverses RESOLVED; it lands in the retry tracker.
	if h.settlement != nil {
		if err := h.settlement.Settle(r.Context(), result, nil); err != nil {
			h.logger.Warn("settlement-incomplete",
				zap.String("market-id", result.MarketID),
				zap.Error(err))
		}
	}

	h.writeJSON(w, http.StatusOK, result)
}

func (h *handler) retrySettlement(w http.ResponseWriter, r *http.Request) {
	marketID := chi.URLParam(r, "marketID")
	if err := h.settlement.Retry(r.Context(), marketID); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]int{
		"pending": len(h.settlement.Pending(marketID)),
	})
}

// writeError maps the engine's error taxonomy onto HTTP statuses: unknown
// market 404, out-of-order lifecycle 409, bad trade 400, the rest 500.
func (h *handler) writeError(w http.ResponseWriter, err error) {
	var (
		notFound   *types.NotFoundError
		transition *types.InvalidTransitionError
		trade      *types.InvalidTradeError
		exhausted  *types.ScheduleExhaustedError
		settle     *types.SettlementFailureError
	)

	status := http.StatusInternalServerError
	switch {
	case errors.As(err, &notFound):
		status = http.StatusNotFound
	case errors.As(err, &transition):
		status = http.StatusConflict
	case errors.As(err, &trade):
		status = http.StatusBadRequest
	case errors.As(err, &exhausted):
		status = http.StatusConflict
	case errors.As(err, &settle):
		status = http.StatusBadGateway
	}

	if status == http.StatusInternalServerError {
		h.logger.Error("request-failed", zap.Error(err))
	}

	h.writeJSON(w, status, errorResponse{Error: err.Error()})
}

func (h *handler) writeBadRequest(w http.ResponseWriter, msg string) {
	h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: msg})
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("response-encode-error", zap.Error(err))
	}
}
