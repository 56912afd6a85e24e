package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"crosspost/domain/dto"
	"crosspost/domain/model"
	"crosspost/domain/repository"
	"crosspost/infrastructure/logger"
	"crosspost/infrastructure/scheduler"
	"crosspost/infrastructure/utils"
)

const recentRunsLimit = 5

type ISchedulerHandler interface {
	Healthz(ctx *gin.Context)
	ListJobs(ctx *gin.Context)
	RunJob(ctx *gin.Context)
}

type SchedulerHandler struct {
	runtime *scheduler.Runtime
	jobRuns repository.IJobRunStore
}

func NewSchedulerHandler(runtime *scheduler.Runtime, jobRuns repository.IJobRunStore) ISchedulerHandler {
	return &SchedulerHandler{runtime: runtime, jobRuns: jobRuns}
}

// Healthz returns OK for health checks
func (h *SchedulerHandler) Healthz(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"status": "ok", "time": utils.GetCurrentTime()})
}

type jobView struct {
	dto.JobStats
	RecentRuns []*model.JobRun `json:"recentRuns,omitempty"`
}

func (h *SchedulerHandler) ListJobs(ctx *gin.Context) {
	stats := h.runtime.Stats()
	jobs := make([]jobView, 0, len(stats))
	for _, s := range stats {
		view := jobView{JobStats: s}
		if h.jobRuns != nil {
			runs, err := h.jobRuns.ListRecent(ctx.Request.Context(), s.Name, recentRunsLimit)
			if err != nil {
				logger.GetLogger().WithField("job", s.Name).WithField("error", err).Warn("Failed to load recent job runs")
			} else {
				view.RecentRuns = runs
			}
		}
		jobs = append(jobs, view)
	}
	ctx.JSON(http.StatusOK, dto.Res{
		ResponseCode:    "200",
		ResponseMessage: "Success",
		Data:            jobs,
	})
}

// RunJob triggers one out-of-band run of the named job. The run happens in
// the background; the overlap guard still applies.
func (h *SchedulerHandler) RunJob(ctx *gin.Context) {
	name := ctx.Param("name")
	found := false
	for _, s := range h.runtime.Stats() {
		if s.Name == name {
			found = true
			break
		}
	}
	if !found {
		ctx.JSON(http.StatusNotFound, dto.Res{
			ResponseCode:    "404",
			ResponseMessage: "Unknown job: " + name,
		})
		return
	}
	go func() {
		if err := h.runtime.RunNow(name); err != nil {
			logger.GetLogger().WithField("job", name).WithField("error", err).Error("Manual job run failed")
		}
	}()
	ctx.JSON(http.StatusAccepted, dto.Res{
		ResponseCode:    "202",
		ResponseMessage: "Job run triggered",
		Data:            gin.H{"job": name},
	})
}
