// Package health serves GET /healthz.
package health

import (
	"net/http"

	"github.com/aanand-mishra/student-records/internal/utils/response"
)

// Reporter is satisfied by *repository.Repository.
type Reporter interface {
	Driver() string
	Degraded() bool
}

type status struct {
	Status   string `json:"status"`
	Storage  string `json:"storage"`
	Degraded bool   `json:"degraded"`
}

// New always answers 200: a degraded store still serves requests, so
// the process is healthy. The body tells an operator which backend is
// actually in use.
//
//	{ "status": "ok", "storage": "json", "degraded": false }
func New(rep Reporter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body := status{Status: "ok", Storage: rep.Driver(), Degraded: rep.Degraded()}
		if body.Degraded {
			body.Status = "degraded"
		}
		response.WriteJSON(w, http.StatusOK, body)
	}
}
