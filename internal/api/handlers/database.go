package handlers

import (
	"context"
	"net/http"

	"github.com/medika-labs/medquery/internal/api"
)

// DatabaseLister enumerates tenant databases available for querying.
type DatabaseLister interface {
	ListDatabases(ctx context.Context) ([]string, error)
}

type DatabaseHandler struct {
	lister DatabaseLister
}

func NewDatabaseHandler(lister DatabaseLister) *DatabaseHandler {
	return &DatabaseHandler{lister: lister}
}

type ListDatabasesResponse struct {
	Databases []string `json:"databases"`
}

// List handles GET /databases.
func (h *DatabaseHandler) List(w http.ResponseWriter, r *http.Request) {
	names, err := h.lister.ListDatabases(r.Context())
	if err != nil {
		api.Error(w, http.StatusInternalServerError, "failed to list databases")
		return
	}

	api.Success(w, http.StatusOK, ListDatabasesResponse{Databases: names})
}
