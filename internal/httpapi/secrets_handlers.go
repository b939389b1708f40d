package httpapi

import (
	"encoding/json"
	"net/http"
	"sync/atomic"

	"relist-engine/internal/config"
	"relist-engine/internal/secrets"
)

type SecretsHandler struct {
	CfgVal *atomic.Value // stores config.Config
}

type setPublishTokenReq struct {
	Token string `json:"token"`
}

// SetPublishToken stores the eBay OAuth token in the OS keychain. The
// token never touches the config file or the database.
func (h SecretsHandler) SetPublishToken(w http.ResponseWriter, r *http.Request) {
	var req setPublishTokenReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	cfg := h.CfgVal.Load().(config.Config)
	if err := secrets.SetPublishToken(cfg.Publish.KeyringAccount, req.Token); err != nil {
		http.Error(w, "failed to store token: "+err.Error(), http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
