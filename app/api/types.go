package api

import (
	"github.com/lysyi3m/epg-comb/app/database"
	"github.com/lysyi3m/epg-comb/app/store"
	"github.com/lysyi3m/epg-comb/app/tasks"
)

const (
	defaultRunsLimit = 20
	maxRunsLimit     = 100
)

type Handler struct {
	guideStore *store.GuideStore
	runRepo    database.RunRepository
	scheduler  tasks.TaskSchedulerInterface
	version    string
}
