package controller

import (
	"net/http"

	log "github.com/sirupsen/logrus"
)

type HealthController interface {
	HandleLiveRequest(w http.ResponseWriter, r *http.Request)
	HandleReadyRequest(w http.ResponseWriter, r *http.Request)
}

func NewHealthController(readyChan chan bool) HealthController {
	c := &healthControllerImpl{}
	go func() {
		for ready := range readyChan {
			c.ready = ready
		}
		log.Infof("Service startup finished, ready = %t", c.ready)
	}()
	return c
}

type healthControllerImpl struct {
	ready bool
}

func (h *healthControllerImpl) HandleLiveRequest(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func (h *healthControllerImpl) HandleReadyRequest(w http.ResponseWriter, r *http.Request) {
	if h.ready {
		w.WriteHeader(http.StatusOK)
		return
	}
	w.WriteHeader(http.StatusServiceUnavailable)
}
