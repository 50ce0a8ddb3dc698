package history

import (
	"net/http"
	"strconv"

	"github.com/emicklei/go-restful"
	log "github.com/sirupsen/logrus"

	"github.com/zbxtools/zbxcall/internal/db"
	apperror "github.com/zbxtools/zbxcall/internal/error"
	"github.com/zbxtools/zbxcall/modules/call/types"
)

type resource struct {
	s *Service
}

// Register add handlers for /v1/history endpoint
func Register(prefix string, container *restful.Container, s *Service) {
	r := resource{s: s}

	ws := new(restful.WebService)
	ws.
		Path(prefix + "history").
		Doc("Show call history").
		Consumes(restful.MIME_JSON).
		Produces(restful.MIME_JSON)

	ws.Route(ws.GET("/").To(r.Get).
		Doc("Get all calls").
		Param(ws.QueryParameter("method", "api method").DataType("string")).
		Param(ws.QueryParameter("failed", "only failed or succeeded calls").DataType("boolean")).
		Writes([]types.CallRecord{}).
		Operation("HistoryGet"))

	ws.Route(ws.GET("/{id:[0-9]*}").To(r.GetByID).
		Doc("Get call by id").
		Param(ws.PathParameter("id", "id").DataType("string")).
		Writes(types.CallRecord{}).
		Operation("HistoryGetByID"))

	container.Add(ws)
}

// Get handles GET /v1/history
func (r resource) Get(request *restful.Request, response *restful.Response) {
	query := map[string]interface{}{}
	if m := request.QueryParameter("method"); m != "" {
		query["Method"] = m
	}
	if f := request.QueryParameter("failed"); f != "" {
		failed, err := strconv.ParseBool(f)
		if err != nil {
			appErr := apperror.AppErrorf(http.StatusBadRequest, "Bad failed query parameter %q", f)
			response.WriteErrorString(appErr.Code, appErr.Error())
			return
		}
		query["Failed"] = failed
	}

	rs, err := r.s.List(query)
	if err != nil {
		response.WriteErrorString(http.StatusInternalServerError, err.Error())
		return
	}
	response.WriteEntity(rs)
}

// GetByID handles GET /v1/history/{id}
func (r resource) GetByID(request *restful.Request, response *restful.Response) {
	id := request.PathParameter("id")
	log.Debugf("Try to get call by %s", id)
	rec, err := r.s.Get(id)
	if err == db.ErrNotFound {
		response.AddHeader("Content-Type", "text/plain")
		response.WriteErrorString(http.StatusNotFound, "404: Could not found call")
		return
	}
	if err != nil {
		response.WriteErrorString(http.StatusInternalServerError, err.Error())
		return
	}
	response.WriteEntity(rec)
}
