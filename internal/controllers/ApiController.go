package controllers

import (
	"clanwatch/internal/analytics"
	"clanwatch/internal/providers"
	"clanwatch/internal/services"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"
)

type ApiController struct {
	logger  providers.Logger
	service services.AnalyticsServiceInterface
	cache   providers.CacheProviderInterface
}

func NewApiController(logger providers.Logger, service services.AnalyticsServiceInterface, cache providers.CacheProviderInterface) *ApiController {
	return &ApiController{
		logger:  logger,
		service: service,
		cache:   cache,
	}
}

// badRequest marks a query parameter error so it renders as 400.
type badRequest struct {
	msg string
}

func (e *badRequest) Error() string {
	return e.msg
}

func badParam(name, value string) error {
	return &badRequest{msg: fmt.Sprintf("invalid %s %q", name, value)}
}

func (ac *ApiController) writeError(w http.ResponseWriter, err error) {
	var br *badRequest
	switch {
	case errors.As(err, &br):
		http.Error(w, br.msg, http.StatusBadRequest)
	case errors.Is(err, services.ErrUnknownMember), errors.Is(err, services.ErrUnknownItem):
		http.Error(w, err.Error(), http.StatusNotFound)
	default:
		ac.logger.Errorf(providers.TypeGet, "Request failed: %s", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// cacheKey scopes key to the current snapshot generation.
func (ac *ApiController) cacheKey(key string) string {
	return "g" + strconv.FormatInt(ac.service.Generation(), 10) + ":" + key
}

func (ac *ApiController) serveFromCacheOrCompute(w http.ResponseWriter, key string, compute func() (any, error)) {
	cacheKey := ac.cacheKey(key)
	if data, ok := ac.cache.Get(cacheKey); ok {
		writeJSON(w, http.StatusOK, data)
		return
	}

	result, err := compute()
	if err != nil {
		ac.writeError(w, err)
		return
	}

	gson, err := json.Marshal(result)
	if err != nil {
		ac.writeError(w, err)
		return
	}

	ac.cache.Set(cacheKey, gson)
	writeJSON(w, http.StatusOK, gson)
}

func (ac *ApiController) threshold(r *http.Request) (float64, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("threshold"))
	if raw == "" {
		return ac.service.DefaultThreshold(), nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 {
		return 0, badParam("threshold", raw)
	}
	return v, nil
}

func requiredParam(r *http.Request, name string) (string, error) {
	v := strings.TrimSpace(r.URL.Query().Get(name))
	if v == "" {
		return "", &badRequest{msg: "missing " + name}
	}
	return v, nil
}

// parseBound accepts RFC 3339 timestamps or plain dates. A plain end date
// covers the whole day.
func parseBound(name, raw string, end bool) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return nil, badParam(name, raw)
	}
	if end {
		t = t.Add(24*time.Hour - time.Millisecond)
	}
	return &t, nil
}

func (ac *ApiController) Overview(w http.ResponseWriter, r *http.Request) {
	ac.serveFromCacheOrCompute(w, "overview", func() (any, error) {
		return ac.service.Overview(), nil
	})
}

func (ac *ApiController) Members(w http.ResponseWriter, r *http.Request) {
	threshold, err := ac.threshold(r)
	if err != nil {
		ac.writeError(w, err)
		return
	}
	key := "members:" + strconv.FormatFloat(threshold, 'f', -1, 64)
	ac.serveFromCacheOrCompute(w, key, func() (any, error) {
		return ac.service.Members(threshold), nil
	})
}

func (ac *ApiController) Alerts(w http.ResponseWriter, r *http.Request) {
	threshold, err := ac.threshold(r)
	if err != nil {
		ac.writeError(w, err)
		return
	}
	key := "alerts:" + strconv.FormatFloat(threshold, 'f', -1, 64)
	ac.serveFromCacheOrCompute(w, key, func() (any, error) {
		return ac.service.Alerts(threshold), nil
	})
}

func (ac *ApiController) Logs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	start, err := parseBound("start", strings.TrimSpace(q.Get("start")), false)
	if err != nil {
		ac.writeError(w, err)
		return
	}
	end, err := parseBound("end", strings.TrimSpace(q.Get("end")), true)
	if err != nil {
		ac.writeError(w, err)
		return
	}
	filter := analytics.LogFilter{
		Member:  q.Get("member"),
		Message: q.Get("message"),
		Start:   start,
		End:     end,
	}
	key := fmt.Sprintf("logs:%q:%q:%s:%s", filter.Member, filter.Message, q.Get("start"), q.Get("end"))
	ac.serveFromCacheOrCompute(w, key, func() (any, error) {
		return ac.service.Logs(filter), nil
	})
}

func (ac *ApiController) GoldWeeks(w http.ResponseWriter, r *http.Request) {
	ac.serveFromCacheOrCompute(w, "gold:weeks", func() (any, error) {
		return ac.service.GoldWeeks(), nil
	})
}

// Gold returns member totals of one week, the latest when week is omitted.
func (ac *ApiController) Gold(w http.ResponseWriter, r *http.Request) {
	raw := strings.TrimSpace(r.URL.Query().Get("week"))
	var key int64
	if raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			ac.writeError(w, badParam("week", raw))
			return
		}
		key = v
	} else if weeks := ac.service.GoldWeeks(); len(weeks) > 0 {
		key = weeks[0].Key
	}
	ac.serveFromCacheOrCompute(w, "gold:"+strconv.FormatInt(key, 10), func() (any, error) {
		totals, ok := ac.service.GoldWeek(key)
		if !ok {
			return []analytics.MemberGold{}, nil
		}
		return totals, nil
	})
}

func (ac *ApiController) Player(w http.ResponseWriter, r *http.Request) {
	name, err := requiredParam(r, "name")
	if err != nil {
		ac.writeError(w, err)
		return
	}
	ac.serveFromCacheOrCompute(w, "player:"+name, func() (any, error) {
		return ac.service.Player(name)
	})
}

func (ac *ApiController) PlayerLogs(w http.ResponseWriter, r *http.Request) {
	name, err := requiredParam(r, "name")
	if err != nil {
		ac.writeError(w, err)
		return
	}
	ac.serveFromCacheOrCompute(w, "player-logs:"+name, func() (any, error) {
		return ac.service.PlayerEvents(name)
	})
}

func (ac *ApiController) Compare(w http.ResponseWriter, r *http.Request) {
	a, err := requiredParam(r, "a")
	if err != nil {
		ac.writeError(w, err)
		return
	}
	b, err := requiredParam(r, "b")
	if err != nil {
		ac.writeError(w, err)
		return
	}
	ac.serveFromCacheOrCompute(w, fmt.Sprintf("compare:%q:%q", a, b), func() (any, error) {
		return ac.service.Compare(a, b)
	})
}

func (ac *ApiController) Market(w http.ResponseWriter, r *http.Request) {
	ac.serveFromCacheOrCompute(w, "market", func() (any, error) {
		return ac.service.Market(), nil
	})
}

// MarketItem streams the stored detail blob as is.
func (ac *ApiController) MarketItem(w http.ResponseWriter, r *http.Request) {
	raw, err := requiredParam(r, "id")
	if err != nil {
		ac.writeError(w, err)
		return
	}
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		ac.writeError(w, badParam("id", raw))
		return
	}
	blob, err := ac.service.MarketItem(id)
	if err != nil {
		ac.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, blob)
}

type refreshResponse struct {
	Generation int64 `json:"generation"`
}

func (ac *ApiController) Refresh(w http.ResponseWriter, r *http.Request) {
	if err := ac.service.Reload(); err != nil {
		ac.logger.Errorf(providers.TypePost, "Refresh failed: %s", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	ac.cache.Purge()
	gson, err := json.Marshal(refreshResponse{Generation: ac.service.Generation()})
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, gson)
}
