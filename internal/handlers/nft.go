package handlers

import (
	"net/http"

	"github.com/creatorhub/apiserver/internal/auth"
	"github.com/creatorhub/apiserver/internal/services"
	"github.com/creatorhub/apiserver/types"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type NFTHandler struct {
	nftService *services.NFTService
	log        *zap.Logger
}

func NewNFTHandler(nftService *services.NFTService, log *zap.Logger) *NFTHandler {
	return &NFTHandler{nftService: nftService, log: log}
}

// NFTRouter registers the mint route behind mint_nft.
func NFTRouter(r chi.Router, nftService *services.NFTService, requireUser func(http.Handler) http.Handler, log *zap.Logger) {
	handler := NewNFTHandler(nftService, log)

	r.With(requireUser, RequireCapability(auth.CapMintNFT)).Post("/mint", handler.Mint)
}

func (h *NFTHandler) Mint(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, services.ErrUnauthorized.Error())
		return
	}

	var meta types.NFTMetadata
	if err := decodeJSON(w, r, &meta); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.nftService.Mint(r.Context(), user, meta)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}
