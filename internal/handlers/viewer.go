package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"osld-portal/internal/deadline"
	"osld-portal/internal/middleware"
	"osld-portal/internal/service"
)

// ViewerSource builds the viewer of an authenticated organization
type ViewerSource interface {
	Viewer(ctx context.Context, orgCode string) (deadline.Viewer, error)
}

// currentViewer resolves the organization behind the request token. A token
// for an organization that no longer exists is treated as unauthenticated.
func currentViewer(w http.ResponseWriter, r *http.Request, viewers ViewerSource) (deadline.Viewer, bool) {
	code, ok := middleware.GetOrganizationCode(r)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, ErrMsgUnauthorized)
		return deadline.Viewer{}, false
	}

	viewer, err := viewers.Viewer(r.Context(), code)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondWithError(w, http.StatusUnauthorized, ErrMsgUnauthorized)
		} else {
			respondWithServiceError(w, r, err)
		}
		return deadline.Viewer{}, false
	}
	return viewer, true
}

func requestMeta(r *http.Request) service.RequestMeta {
	accountID, _ := middleware.GetAccountID(r)
	return service.RequestMeta{
		AccountID: accountID,
		IPAddress: middleware.ClientIP(r),
		UserAgent: r.UserAgent(),
	}
}

// parseID parses a positive numeric identifier
func parseID(s string) (uint, bool) {
	id, err := strconv.ParseUint(s, 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// parseDate parses an optional YYYY-MM-DD value
func parseDate(s string) (*time.Time, bool) {
	if s == "" {
		return nil, true
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return nil, false
	}
	return &t, true
}
